package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConjoin(t *testing.T) {
	a := Compare{Column: Col("vs", "state_status"), Op: OpEq, Value: "UNCONSUMED"}
	b := IsNull{Column: Col("vs", "lock_id")}

	assert.Nil(t, Conjoin())
	assert.Nil(t, Conjoin(nil, nil))
	assert.Equal(t, a, Conjoin(nil, a))
	assert.Equal(t, And{Predicates: []Predicate{a, b}}, Conjoin(a, nil, b))
}

func TestJoinKind_String(t *testing.T) {
	assert.Equal(t, "LEFT JOIN", JoinLeft.String())
	assert.Equal(t, "INNER JOIN", JoinInner.String())
}

func TestSealedInterfaces(t *testing.T) {
	queries := []Query{Select{}, &Select{}, Count{}, &Count{}}
	for _, q := range queries {
		switch q.(type) {
		case Select, *Select, Count, *Count:
		default:
			t.Fatalf("unexpected query type %T", q)
		}
	}

	preds := []Predicate{
		Compare{}, ColumnsEqual{}, In{}, TupleIn{}, Between{},
		Like{}, IsNull{}, And{}, Or{},
	}
	assert.Len(t, preds, 9)
}
