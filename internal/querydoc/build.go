package querydoc

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/vaultq/internal/criteria"
	"github.com/roach88/vaultq/internal/schema"
	"github.com/roach88/vaultq/internal/vaulterr"
)

// Query is a built document, ready for vault.Service.QueryBy.
type Query struct {
	Criteria     criteria.QueryCriteria
	Paging       criteria.PageSpecification
	Sorting      criteria.Sort
	ContractType string
}

// timeAttributes hold unix-nanosecond timestamps; document values for
// them are RFC 3339 strings.
var timeAttributes = map[criteria.Attribute]bool{
	{Entity: schema.EntityVaultStates, Name: "recordedTime"}:   true,
	{Entity: schema.EntityVaultStates, Name: "consumedTime"}:   true,
	{Entity: schema.EntityVaultStates, Name: "lockUpdateTime"}: true,
}

// Build validates the document and converts it to the criteria model.
// Errors are *vaulterr.Error with KindMalformedCriteria.
func (d *Document) Build() (*Query, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	c, err := d.Criteria.build("criteria")
	if err != nil {
		return nil, err
	}

	q := &Query{
		Criteria:     c,
		Paging:       criteria.DefaultPage(),
		ContractType: d.ContractType,
	}
	if q.ContractType == "" {
		q.ContractType = schema.AnyState
	}
	if d.Page != nil {
		q.Paging = criteria.PageSpecification{PageNumber: d.Page.Number, PageSize: d.Page.Size}
	}
	for i, term := range d.Sort {
		col, err := term.build()
		if err != nil {
			return nil, vaulterr.Malformedf("sort[%d]: %v", i, err)
		}
		q.Sorting.Columns = append(q.Sorting.Columns, col)
	}
	return q, nil
}

func (t SortTerm) build() (criteria.SortColumn, error) {
	dir, err := criteria.ParseDirection(t.Direction)
	if err != nil {
		return criteria.SortColumn{}, err
	}
	nulls, err := criteria.ParseNullHandling(t.Nulls)
	if err != nil {
		return criteria.SortColumn{}, err
	}
	return criteria.SortColumn{Entity: t.Entity, Column: t.Column, Direction: dir, NullHandling: nulls}, nil
}

func (n *Node) build(path string) (criteria.QueryCriteria, error) {
	set := 0
	for _, ok := range []bool{n.Vault != nil, n.Fungible != nil, n.Linear != nil, n.Attribute != nil, n.And != nil, n.Or != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, vaulterr.Malformedf("%s: exactly one of vault, fungible, linear, attribute, and, or must be set", path)
	}

	switch {
	case n.Vault != nil:
		return n.Vault.build(path + ".vault")
	case n.Fungible != nil:
		return n.Fungible.build(path + ".fungible")
	case n.Linear != nil:
		return n.Linear.build(path + ".linear")
	case n.Attribute != nil:
		expr, err := n.Attribute.Expr.build(path + ".attribute.expr")
		if err != nil {
			return nil, err
		}
		if n.Attribute.Nullable {
			return criteria.NullableAttributeCriteria{Expression: expr}, nil
		}
		return criteria.AttributeCriteria{Expression: expr}, nil
	case n.And != nil:
		return foldNodes(path+".and", n.And, func(l, r criteria.QueryCriteria) criteria.QueryCriteria {
			return criteria.And(l, r)
		})
	default:
		return foldNodes(path+".or", n.Or, func(l, r criteria.QueryCriteria) criteria.QueryCriteria {
			return criteria.Or(l, r)
		})
	}
}

func foldNodes(path string, nodes []Node, combine func(l, r criteria.QueryCriteria) criteria.QueryCriteria) (criteria.QueryCriteria, error) {
	if len(nodes) < 2 {
		return nil, vaulterr.Malformedf("%s: needs at least two children", path)
	}
	var out criteria.QueryCriteria
	for i := range nodes {
		c, err := nodes[i].build(fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = c
			continue
		}
		out = combine(out, c)
	}
	return out, nil
}

func (v *VaultNode) build(path string) (criteria.QueryCriteria, error) {
	status, err := criteria.ParseStateStatus(v.Status)
	if err != nil {
		return nil, vaulterr.Malformedf("%s.status: %v", path, err)
	}
	c := criteria.VaultCriteria{
		Status:             status,
		ContractStateTypes: v.Types,
		IncludeSoftLocked:  v.IncludeSoftLocked,
		Notaries:           parties(v.Notaries),
	}
	if v.StateRefs != nil {
		c.StateRefs = make([]criteria.StateRef, len(v.StateRefs))
		for i, ref := range v.StateRefs {
			c.StateRefs[i] = criteria.StateRef{TxHash: ref.TxHash, Index: ref.Index}
		}
	}
	if v.Time != nil {
		on := criteria.TimeRecorded
		if strings.EqualFold(v.Time.On, "CONSUMED") {
			on = criteria.TimeConsumed
		}
		op, err := operator(path+".time", v.Time.Op)
		if err != nil {
			return nil, err
		}
		var right any
		switch {
		case op.IsUnary():
		case op.IsCollection() || len(v.Time.Values) != 1:
			right = v.Time.Values
		default:
			right = v.Time.Values[0]
		}
		cond, err := criteria.NewCondition(on, op, right)
		if err != nil {
			return nil, vaulterr.Malformedf("%s.time: %v", path, err)
		}
		c.TimeCondition = &cond
	}
	return c, nil
}

func (f *FungibleNode) build(path string) (criteria.QueryCriteria, error) {
	c := criteria.FungibleCriteria{
		Owners:        parties(f.Owners),
		Participants:  parties(f.Participants),
		IssuerParties: parties(f.Issuers),
	}
	if f.IssuerRefs != nil {
		c.IssuerRefs = make([][]byte, len(f.IssuerRefs))
		for i, s := range f.IssuerRefs {
			b, err := hex.DecodeString(s)
			if err != nil {
				return nil, vaulterr.Malformedf("%s.issuer_refs[%d]: %v", path, i, err)
			}
			c.IssuerRefs[i] = b
		}
	}
	if f.Quantity != nil {
		op, err := operator(path+".quantity", f.Quantity.Op)
		if err != nil {
			return nil, err
		}
		right, err := operand(f.Quantity.Value, f.Quantity.Values, false)
		if err != nil {
			return nil, vaulterr.Malformedf("%s.quantity: %v", path, err)
		}
		cond, err := criteria.QuantityCondition(op, right)
		if err != nil {
			return nil, vaulterr.Malformedf("%s.quantity: %v", path, err)
		}
		c.Quantity = &cond
	}
	return c, nil
}

func (l *LinearNode) build(path string) (criteria.QueryCriteria, error) {
	c := criteria.LinearCriteria{
		DealRefs:     l.DealRefs,
		Participants: parties(l.Participants),
	}
	if l.IDs != nil {
		c.LinearIDs = make([]criteria.UniqueIdentifier, len(l.IDs))
		for i, id := range l.IDs {
			u, err := uuid.Parse(id.UUID)
			if err != nil {
				return nil, vaulterr.Malformedf("%s.ids[%d]: %v", path, i, err)
			}
			c.LinearIDs[i] = criteria.UniqueIdentifier{ExternalID: id.ExternalID, ID: u}
		}
	}
	return c, nil
}

func (e *ExprNode) build(path string) (criteria.Expression, error) {
	switch {
	case e.And != nil || e.Or != nil:
		if e.And != nil && e.Or != nil {
			return nil, vaulterr.Malformedf("%s: set either and or or", path)
		}
		children, key := e.And, "and"
		if e.Or != nil {
			children, key = e.Or, "or"
		}
		if len(children) < 2 {
			return nil, vaulterr.Malformedf("%s.%s: needs at least two children", path, key)
		}
		var out criteria.Expression
		for i := range children {
			expr, err := children[i].build(fmt.Sprintf("%s.%s[%d]", path, key, i))
			if err != nil {
				return nil, err
			}
			if out == nil {
				out = expr
				continue
			}
			out = combineExpr(out, expr, key == "or")
		}
		return out, nil

	default:
		if e.Entity == "" || e.Attribute == "" {
			return nil, vaulterr.Malformedf("%s: condition needs entity and attribute", path)
		}
		op, err := operator(path, e.Op)
		if err != nil {
			return nil, err
		}
		attr := criteria.Attribute{Entity: e.Entity, Name: e.Attribute}
		right, err := operand(e.Value, e.Values, timeAttributes[attr])
		if err != nil {
			return nil, vaulterr.Malformedf("%s: %v", path, err)
		}
		cond, err := criteria.NewCondition(attr, op, right)
		if err != nil {
			return nil, err
		}
		return cond, nil
	}
}

func combineExpr(left, right criteria.Expression, or bool) criteria.Expression {
	type combinable interface {
		And(criteria.Expression) criteria.Combine
		Or(criteria.Expression) criteria.Combine
	}
	l := left.(combinable)
	if or {
		return l.Or(right)
	}
	return l.And(right)
}

func operator(path, s string) (criteria.Operator, error) {
	op, ok := criteria.ParseOperator(strings.ToUpper(strings.TrimSpace(s)))
	if !ok || op.IsLogical() {
		return "", vaulterr.Malformedf("%s: invalid query operator: %q", path, s)
	}
	return op, nil
}

// operand picks the scalar or collection operand and normalizes decoded
// numbers. Setting both is an error.
func operand(value any, values []any, timestamps bool) (any, error) {
	if value != nil && values != nil {
		return nil, fmt.Errorf("set either value or values")
	}
	if values != nil {
		out := make(criteria.Collection, len(values))
		for i, v := range values {
			n, err := normalize(v, timestamps)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	if value == nil {
		return nil, nil
	}
	return normalize(value, timestamps)
}

// normalize maps YAML and CUE decoded scalars onto the literal types the
// SQL compiler binds. Whole floats become int64.
func normalize(v any, timestamp bool) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64, bool, time.Time:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("value %d out of range", n)
		}
		return int64(n), nil
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n), nil
		}
		return n, nil
	case string:
		if !timestamp {
			return n, nil
		}
		t, err := time.Parse(time.RFC3339Nano, n)
		if err != nil {
			return nil, fmt.Errorf("timestamp %q: %w", n, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}

func parties(names []string) []criteria.Party {
	if names == nil {
		return nil
	}
	out := make([]criteria.Party, len(names))
	for i, name := range names {
		out[i] = criteria.Party{Name: name}
	}
	return out
}
