package criteria

// Operator is a comparison or logical operator used in conditions.
type Operator string

const (
	// Logical operators, used only for composition.
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"

	// Binary operators.
	OpEqual              Operator = "EQUAL"
	OpNotEqual           Operator = "NOT_EQUAL"
	OpLessThan           Operator = "LESS_THAN"
	OpLessThanOrEqual    Operator = "LESS_THAN_OR_EQUAL"
	OpGreaterThan        Operator = "GREATER_THAN"
	OpGreaterThanOrEqual Operator = "GREATER_THAN_OR_EQUAL"
	OpIn                 Operator = "IN"
	OpNotIn              Operator = "NOT_IN"
	OpLike               Operator = "LIKE"
	OpNotLike            Operator = "NOT_LIKE"
	OpBetween            Operator = "BETWEEN"

	// Unary operators, no right operand.
	OpIsNull  Operator = "IS_NULL"
	OpNotNull Operator = "NOT_NULL"
)

// Operators lists the complete operator vocabulary.
var Operators = []Operator{
	OpAnd, OpOr,
	OpEqual, OpNotEqual,
	OpLessThan, OpLessThanOrEqual,
	OpGreaterThan, OpGreaterThanOrEqual,
	OpIn, OpNotIn,
	OpLike, OpNotLike,
	OpBetween,
	OpIsNull, OpNotNull,
}

// ParseOperator returns the Operator named s.
func ParseOperator(s string) (Operator, bool) {
	for _, op := range Operators {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// IsUnary reports whether op takes no right operand.
func (op Operator) IsUnary() bool {
	return op == OpIsNull || op == OpNotNull
}

// IsLogical reports whether op combines expressions rather than testing a value.
func (op Operator) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// IsCollection reports whether op expects a collection of values.
func (op Operator) IsCollection() bool {
	return op == OpIn || op == OpNotIn || op == OpBetween
}

// String returns the operator name.
func (op Operator) String() string { return string(op) }
