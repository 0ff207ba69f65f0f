package queryir

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationResult lists the structural problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each defect in traversal order.
	Problems []string
}

// Err returns nil for a valid result, otherwise an error joining the
// problems.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New("invalid query: " + strings.Join(r.Problems, "; "))
}

// Validate checks that a query is well formed:
//  1. Every source has a table and a unique alias
//  2. Every join has an ON condition
//  3. Every column addresses a declared alias
//  4. Comparisons carry values; tuples match their column count
//  5. Window bounds are non-negative
//
// Validate is pure.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	aliases  map[string]bool
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	case Count:
		v.validateCount(query)
	case *Count:
		v.validateCount(*query)
	case nil:
		v.addProblem("nil query")
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateCount(c Count) {
	if len(c.Select.Key) == 0 {
		v.addProblem("count requires key columns")
	}
	v.validateSelect(c.Select)
}

func (v *validator) validateSelect(sel Select) {
	v.aliases = make(map[string]bool)
	v.declare(sel.From)
	for _, j := range sel.Joins {
		v.declare(j.Source)
	}

	for i, j := range sel.Joins {
		if j.On == nil {
			v.addProblem("join %d (%s) has no ON condition", i, j.Source.Alias)
			continue
		}
		v.validatePredicate(j.On)
	}
	if len(sel.Columns) == 0 {
		v.addProblem("no projected columns")
	}
	for _, c := range sel.Columns {
		v.validateColumn(c)
	}
	for _, c := range sel.Key {
		v.validateColumn(c)
	}
	if sel.Where != nil {
		v.validatePredicate(sel.Where)
	}
	for _, o := range sel.OrderBy {
		v.validateColumn(o.Column)
	}
	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}
	if sel.Offset < 0 {
		v.addProblem("negative offset %d", sel.Offset)
	}
}

func (v *validator) declare(s Source) {
	if s.Table == "" {
		v.addProblem("source %q has no table", s.Alias)
	}
	if s.Alias == "" {
		v.addProblem("source %q has no alias", s.Table)
		return
	}
	if v.aliases[s.Alias] {
		v.addProblem("duplicate alias %q", s.Alias)
	}
	v.aliases[s.Alias] = true
}

func (v *validator) validateColumn(c Column) {
	if c.Name == "" {
		v.addProblem("column with empty name on alias %q", c.Alias)
	}
	if !v.aliases[c.Alias] {
		v.addProblem("column %s.%s references undeclared alias", c.Alias, c.Name)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Compare:
		v.validateCompare(pred)
	case *Compare:
		v.validateCompare(*pred)
	case ColumnsEqual:
		v.validateColumn(pred.Left)
		v.validateColumn(pred.Right)
	case *ColumnsEqual:
		v.validateColumn(pred.Left)
		v.validateColumn(pred.Right)
	case In:
		v.validateColumn(pred.Column)
	case *In:
		v.validateColumn(pred.Column)
	case TupleIn:
		v.validateTupleIn(pred)
	case *TupleIn:
		v.validateTupleIn(*pred)
	case Between:
		v.validateBetween(pred)
	case *Between:
		v.validateBetween(*pred)
	case Like:
		v.validateColumn(pred.Column)
	case *Like:
		v.validateColumn(pred.Column)
	case IsNull:
		v.validateColumn(pred.Column)
	case *IsNull:
		v.validateColumn(pred.Column)
	case And:
		v.validateAll("AND", pred.Predicates)
	case *And:
		v.validateAll("AND", pred.Predicates)
	case Or:
		v.validateAll("OR", pred.Predicates)
	case *Or:
		v.validateAll("OR", pred.Predicates)
	case nil:
		v.addProblem("nil predicate")
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateCompare(c Compare) {
	v.validateColumn(c.Column)
	switch c.Op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
	default:
		v.addProblem("unknown comparison %q on %s.%s", c.Op, c.Column.Alias, c.Column.Name)
	}
	if c.Value == nil {
		v.addProblem("%s.%s compared to nil; use IsNull", c.Column.Alias, c.Column.Name)
	}
}

func (v *validator) validateTupleIn(t TupleIn) {
	if len(t.Columns) == 0 {
		v.addProblem("tuple IN without columns")
	}
	for _, c := range t.Columns {
		v.validateColumn(c)
	}
	for i, tuple := range t.Tuples {
		if len(tuple) != len(t.Columns) {
			v.addProblem("tuple %d has %d values, want %d", i, len(tuple), len(t.Columns))
		}
	}
}

func (v *validator) validateBetween(b Between) {
	v.validateColumn(b.Column)
	if b.Low == nil || b.High == nil {
		v.addProblem("%s.%s BETWEEN requires both bounds", b.Column.Alias, b.Column.Name)
	}
}

func (v *validator) validateAll(op string, preds []Predicate) {
	for i, p := range preds {
		if p == nil {
			v.addProblem("%s operand %d is nil", op, i)
			continue
		}
		v.validatePredicate(p)
	}
}
