package criteria

import (
	"fmt"
	"reflect"

	"github.com/roach88/vaultq/internal/vaulterr"
)

// Expression is a condition or a logical composition of conditions.
//
// This is a sealed interface - only Condition and Combine implement it.
type Expression interface {
	// Operator returns the top-level operator of the expression.
	Operator() Operator

	expressionNode()
}

// Collection is the right operand of IN, NOT_IN and BETWEEN.
//
// NewCondition converts any slice or array operand (except []byte) into a
// Collection, so callers may pass typed slices directly.
type Collection []any

// Attribute names a column of a registered entity (record shape).
//
// Entity is a schema registry identifier such as "VaultLinearStates" or
// "CashSchemaV1.PersistentCashState"; Name is the attribute name declared by
// that entity's table description.
type Attribute struct {
	Entity string
	Name   string
}

// String returns "Entity.Name".
func (a Attribute) String() string { return a.Entity + "." + a.Name }

// Condition is the triple (left operand, operator, right operand).
//
// The zero value is not valid; use NewCondition.
type Condition[L any] struct {
	left  L
	op    Operator
	right any
}

// NewCondition validates and returns a condition.
//
// The right operand must be nil exactly when op is IS_NULL or NOT_NULL.
// AND and OR are composition operators and are rejected here; use And/Or.
func NewCondition[L any](left L, op Operator, right any) (Condition[L], error) {
	if _, ok := ParseOperator(string(op)); !ok {
		return Condition[L]{}, vaulterr.Malformedf("unknown query operator: %q", op)
	}
	if op.IsLogical() {
		return Condition[L]{}, vaulterr.Malformedf("operator %s combines expressions; use And/Or", op)
	}
	if isNil(right) {
		right = nil
		if !op.IsUnary() {
			return Condition[L]{}, vaulterr.Malformedf(
				"must use a unary operator (%s, %s) if right operand is null", OpIsNull, OpNotNull)
		}
	} else if op.IsUnary() {
		return Condition[L]{}, vaulterr.Malformedf(
			"cannot use a unary operator (%s, %s) if right operand is not null", OpIsNull, OpNotNull)
	}
	return Condition[L]{left: left, op: op, right: toCollection(right)}, nil
}

// MustCondition is like NewCondition but panics on error.
// Intended for package-level fixtures and tests.
func MustCondition[L any](left L, op Operator, right any) Condition[L] {
	c, err := NewCondition(left, op, right)
	if err != nil {
		panic(err)
	}
	return c
}

// Left returns the left operand.
func (c Condition[L]) Left() L { return c.left }

// Operator returns the condition operator.
func (c Condition[L]) Operator() Operator { return c.op }

// Right returns the right operand (nil for unary conditions).
func (c Condition[L]) Right() any { return c.right }

// Values returns the right operand as a Collection, if it is one.
func (c Condition[L]) Values() (Collection, bool) {
	v, ok := c.right.(Collection)
	return v, ok
}

// And returns Combine{AND, c, other}.
func (c Condition[L]) And(other Expression) Combine {
	return Combine{op: OpAnd, left: c, right: other}
}

// Or returns Combine{OR, c, other}.
func (c Condition[L]) Or(other Expression) Combine {
	return Combine{op: OpOr, left: c, right: other}
}

// String renders the condition for logs.
func (c Condition[L]) String() string {
	if c.op.IsUnary() {
		return fmt.Sprintf("%v %s", c.left, c.op)
	}
	return fmt.Sprintf("%v %s %v", c.left, c.op, c.right)
}

func (Condition[L]) expressionNode() {}

// Combine is a logical AND/OR of two expressions.
//
// Chains fold to the left: the existing expression becomes the left operand
// and the new condition the right one.
type Combine struct {
	op    Operator
	left  Expression
	right Expression
}

// Operator returns OpAnd or OpOr.
func (c Combine) Operator() Operator { return c.op }

// Left returns the left sub-expression.
func (c Combine) Left() Expression { return c.left }

// Right returns the right sub-expression.
func (c Combine) Right() Expression { return c.right }

// And returns Combine{AND, c, other}.
func (c Combine) And(other Expression) Combine {
	return Combine{op: OpAnd, left: c, right: other}
}

// Or returns Combine{OR, c, other}.
func (c Combine) Or(other Expression) Combine {
	return Combine{op: OpOr, left: c, right: other}
}

// String renders the expression for logs.
func (c Combine) String() string {
	return fmt.Sprintf("(%v %s %v)", c.left, c.op, c.right)
}

func (Combine) expressionNode() {}

// toCollection converts slice and array operands into a Collection.
// []byte is an opaque scalar (issuer references, hashes) and is kept as is.
// isNil reports whether v is nil or a typed nil slice, map or pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

func toCollection(v any) any {
	switch val := v.(type) {
	case Collection:
		return val
	case []byte:
		return val
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	out := make(Collection, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
