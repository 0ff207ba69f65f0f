package vault

import (
	"github.com/roach88/vaultq/internal/criteria"
	"github.com/roach88/vaultq/internal/queryir"
	"github.com/roach88/vaultq/internal/vaulterr"
)

var compareOps = map[criteria.Operator]queryir.CompareOp{
	criteria.OpEqual:              queryir.OpEq,
	criteria.OpNotEqual:           queryir.OpNe,
	criteria.OpLessThan:           queryir.OpLt,
	criteria.OpLessThanOrEqual:    queryir.OpLe,
	criteria.OpGreaterThan:        queryir.OpGt,
	criteria.OpGreaterThanOrEqual: queryir.OpGe,
}

// resolveOperator dispatches a condition on col by operator and value
// shape: unary (no value), collection, or scalar.
func resolveOperator(col queryir.Column, op criteria.Operator, right any) (queryir.Predicate, error) {
	if right == nil {
		return resolveUnary(col, op)
	}
	if values, ok := right.(criteria.Collection); ok {
		return resolveCollection(col, op, values)
	}
	return resolveScalar(col, op, right)
}

func resolveUnary(col queryir.Column, op criteria.Operator) (queryir.Predicate, error) {
	switch op {
	case criteria.OpIsNull:
		return queryir.IsNull{Column: col}, nil
	case criteria.OpNotNull:
		return queryir.IsNull{Column: col, Negate: true}, nil
	default:
		return nil, vaulterr.Malformedf("invalid query operator: %s", op)
	}
}

func resolveCollection(col queryir.Column, op criteria.Operator, values criteria.Collection) (queryir.Predicate, error) {
	if len(values) == 0 {
		return nil, vaulterr.Malformedf("%s expects at least one argument value %v", op, values)
	}
	switch op {
	case criteria.OpBetween:
		if len(values) != 2 {
			return nil, vaulterr.Malformedf("%s expects two argument values %v", op, values)
		}
		return queryir.Between{Column: col, Low: values[0], High: values[1]}, nil
	case criteria.OpIn:
		return queryir.In{Column: col, Values: []any(values)}, nil
	case criteria.OpNotIn:
		return queryir.In{Column: col, Values: []any(values), Negate: true}, nil
	default:
		return nil, vaulterr.Malformedf("invalid query operator: %s", op)
	}
}

func resolveScalar(col queryir.Column, op criteria.Operator, value any) (queryir.Predicate, error) {
	if cmp, ok := compareOps[op]; ok {
		return queryir.Compare{Column: col, Op: cmp, Value: value}, nil
	}
	switch op {
	case criteria.OpLike, criteria.OpNotLike:
		pattern, ok := value.(string)
		if !ok {
			return nil, vaulterr.Malformedf(
				"operator %s expects a SQL LIKE wildcarded expression (using '%%' '_') as a String (%v)", op, value)
		}
		return queryir.Like{Column: col, Pattern: pattern, Negate: op == criteria.OpNotLike}, nil
	default:
		return nil, vaulterr.Malformedf("invalid query operator: %s", op)
	}
}
