package queryir

// Query is a compilable query. Sealed: Select and Count.
type Query interface {
	queryNode()
}

// Predicate is a WHERE or ON condition. Sealed to this package.
type Predicate interface {
	predicateNode()
}

// Source is a table reference with the alias columns use to address it.
type Source struct {
	Table string
	Alias string
}

// Column addresses a column of an aliased source.
type Column struct {
	Alias string
	Name  string
}

// Col is shorthand for Column{Alias: alias, Name: name}.
func Col(alias, name string) Column { return Column{Alias: alias, Name: name} }

// JoinKind selects INNER or LEFT join semantics.
type JoinKind int

const (
	JoinLeft JoinKind = iota
	JoinInner
)

// String returns the SQL keyword for the join kind.
func (k JoinKind) String() string {
	if k == JoinInner {
		return "INNER JOIN"
	}
	return "LEFT JOIN"
}

// Join attaches Source to the query under the On condition.
type Join struct {
	Kind   JoinKind
	Source Source
	On     Predicate
}

// NullOrder controls where NULLs sort. NullsDefault leaves it to the backend.
type NullOrder int

const (
	NullsDefault NullOrder = iota
	NullsFirst
	NullsLast
)

// Order is one ORDER BY term.
type Order struct {
	Column Column
	Desc   bool
	Nulls  NullOrder
}

// Select is a single-root query.
//
//	SELECT [DISTINCT] <Columns> FROM <From> <Joins> WHERE <Where>
//	ORDER BY <OrderBy>, <Key> LIMIT <Limit> OFFSET <Offset>
//
// Key lists the columns that uniquely identify a root row. Backends append
// them to the ordering as a tiebreaker so paging is deterministic, and
// Count counts distinct Key tuples.
type Select struct {
	From     Source
	Joins    []Join
	Columns  []Column
	Key      []Column
	Where    Predicate // nil = no filter
	Distinct bool
	OrderBy  []Order
	Limit    int // 0 = unbounded
	Offset   int
}

func (Select) queryNode() {}

// Count counts the distinct Key tuples Select would return, ignoring its
// ordering and window.
type Count struct {
	Select Select
}

func (Count) queryNode() {}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "<>"
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Compare is <column> <op> <value>.
type Compare struct {
	Column Column
	Op     CompareOp
	Value  any
}

func (Compare) predicateNode() {}

// ColumnsEqual is <left> = <right>, used for join conditions.
type ColumnsEqual struct {
	Left  Column
	Right Column
}

func (ColumnsEqual) predicateNode() {}

// In is <column> [NOT] IN (<values>). An empty value list matches nothing,
// or everything when negated.
type In struct {
	Column Column
	Values []any
	Negate bool
}

func (In) predicateNode() {}

// TupleIn is (<columns>) IN (<tuples>). Every tuple has len(Columns)
// values. An empty tuple list matches nothing.
type TupleIn struct {
	Columns []Column
	Tuples  [][]any
}

func (TupleIn) predicateNode() {}

// Between is <column> BETWEEN <low> AND <high>, inclusive.
type Between struct {
	Column Column
	Low    any
	High   any
}

func (Between) predicateNode() {}

// Like is <column> [NOT] LIKE <pattern> with % and _ wildcards.
type Like struct {
	Column  Column
	Pattern string
	Negate  bool
}

func (Like) predicateNode() {}

// IsNull is <column> IS [NOT] NULL.
type IsNull struct {
	Column Column
	Negate bool
}

func (IsNull) predicateNode() {}

// And holds when every predicate holds. Empty = always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or holds when any predicate holds. Empty = always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Conjoin returns the conjunction of the non-nil predicates, collapsing the
// trivial cases: nil for none, the predicate itself for one.
func Conjoin(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
