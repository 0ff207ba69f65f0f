// Package querysql compiles queryir queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/roach88/vaultq/internal/queryir"
)

// SQLCompiler compiles queryir queries to parameterized SQL for SQLite.
//
// Values are always bound as ? parameters and never interpolated.
// Every Select ends its ORDER BY with the query key so paging is stable.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to SQL. Returns (sql, params, error).
// The query is validated first.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.Count:
		return c.compileCount(query)
	case *queryir.Count:
		return c.compileCount(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	body, params, err := c.compileBody(q)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(columnList(q.Columns))
	b.WriteString(body)
	b.WriteString(" ORDER BY ")
	b.WriteString(c.orderBy(q))

	switch {
	case q.Limit > 0:
		b.WriteString(" LIMIT ? OFFSET ?")
		params = append(params, q.Limit, q.Offset)
	case q.Offset > 0:
		b.WriteString(" LIMIT -1 OFFSET ?")
		params = append(params, q.Offset)
	}
	return b.String(), params, nil
}

// compileCount counts distinct key tuples of the select. Joins that fan
// out a root row (participants) do not inflate the count.
func (c *SQLCompiler) compileCount(q queryir.Count) (string, []any, error) {
	body, params, err := c.compileBody(q.Select)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM (SELECT DISTINCT %s%s)", columnList(q.Select.Key), body)
	return sql, params, nil
}

// compileBody renders FROM, joins and WHERE.
func (c *SQLCompiler) compileBody(q queryir.Select) (string, []any, error) {
	var b strings.Builder
	var params []any

	fmt.Fprintf(&b, " FROM %s AS %s", q.From.Table, q.From.Alias)
	for _, j := range q.Joins {
		onSQL, onParams, err := c.compilePredicate(j.On)
		if err != nil {
			return "", nil, fmt.Errorf("compile join %s: %w", j.Source.Alias, err)
		}
		fmt.Fprintf(&b, " %s %s AS %s ON %s", j.Kind, j.Source.Table, j.Source.Alias, onSQL)
		params = append(params, onParams...)
	}

	if q.Where != nil {
		whereSQL, whereParams, err := c.compilePredicate(q.Where)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(whereSQL)
		params = append(params, whereParams...)
	}
	return b.String(), params, nil
}

// orderBy renders the requested terms followed by the key columns not
// already ordered on. COLLATE BINARY keeps text ordering deterministic.
func (c *SQLCompiler) orderBy(q queryir.Select) string {
	var parts []string
	ordered := make(map[queryir.Column]bool)
	for _, o := range q.OrderBy {
		term := columnRef(o.Column)
		if o.Desc {
			term += " DESC"
		} else {
			term += " ASC"
		}
		switch o.Nulls {
		case queryir.NullsFirst:
			term += " NULLS FIRST"
		case queryir.NullsLast:
			term += " NULLS LAST"
		}
		parts = append(parts, term)
		ordered[o.Column] = true
	}
	for _, k := range q.Key {
		if ordered[k] {
			continue
		}
		parts = append(parts, columnRef(k)+" COLLATE BINARY ASC")
	}
	if len(parts) == 0 {
		return "1"
	}
	return strings.Join(parts, ", ")
}

// compilePredicate compiles a predicate to a WHERE/ON fragment.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Compare:
		return c.compileCompare(pred)
	case *queryir.Compare:
		return c.compileCompare(*pred)
	case queryir.ColumnsEqual:
		return columnRef(pred.Left) + " = " + columnRef(pred.Right), nil, nil
	case *queryir.ColumnsEqual:
		return columnRef(pred.Left) + " = " + columnRef(pred.Right), nil, nil
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.TupleIn:
		return c.compileTupleIn(pred)
	case *queryir.TupleIn:
		return c.compileTupleIn(*pred)
	case queryir.Between:
		return c.compileBetween(pred)
	case *queryir.Between:
		return c.compileBetween(*pred)
	case queryir.Like:
		return c.compileLike(pred)
	case *queryir.Like:
		return c.compileLike(*pred)
	case queryir.IsNull:
		return compileIsNull(pred), nil, nil
	case *queryir.IsNull:
		return compileIsNull(*pred), nil, nil
	case queryir.And:
		return c.compileGroup(pred.Predicates, " AND ", "1 = 1")
	case *queryir.And:
		return c.compileGroup(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileGroup(pred.Predicates, " OR ", "1 = 0")
	case *queryir.Or:
		return c.compileGroup(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileCompare(cmp queryir.Compare) (string, []any, error) {
	param, err := toParam(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", columnRef(cmp.Column), err)
	}
	return fmt.Sprintf("%s %s ?", columnRef(cmp.Column), cmp.Op), []any{param}, nil
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		if in.Negate {
			return "1 = 1", nil, nil
		}
		return "1 = 0", nil, nil
	}
	params, err := toParams(in.Values)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", columnRef(in.Column), err)
	}
	op := "IN"
	if in.Negate {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", columnRef(in.Column), op, placeholders(len(params))), params, nil
}

// compileTupleIn uses SQLite row values: (a, b) IN (VALUES (?, ?), ...).
func (c *SQLCompiler) compileTupleIn(t queryir.TupleIn) (string, []any, error) {
	if len(t.Tuples) == 0 {
		return "1 = 0", nil, nil
	}
	if len(t.Columns) == 1 {
		values := make([]any, len(t.Tuples))
		for i, tuple := range t.Tuples {
			values[i] = tuple[0]
		}
		return c.compileIn(queryir.In{Column: t.Columns[0], Values: values})
	}

	var params []any
	rows := make([]string, len(t.Tuples))
	for i, tuple := range t.Tuples {
		ps, err := toParams(tuple)
		if err != nil {
			return "", nil, fmt.Errorf("tuple %d: %w", i, err)
		}
		params = append(params, ps...)
		rows[i] = "(" + placeholders(len(ps)) + ")"
	}
	return fmt.Sprintf("(%s) IN (VALUES %s)", columnList(t.Columns), strings.Join(rows, ", ")), params, nil
}

func (c *SQLCompiler) compileBetween(b queryir.Between) (string, []any, error) {
	params, err := toParams([]any{b.Low, b.High})
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", columnRef(b.Column), err)
	}
	return columnRef(b.Column) + " BETWEEN ? AND ?", params, nil
}

func (c *SQLCompiler) compileLike(l queryir.Like) (string, []any, error) {
	op := "LIKE"
	if l.Negate {
		op = "NOT LIKE"
	}
	return fmt.Sprintf("%s %s ?", columnRef(l.Column), op), []any{l.Pattern}, nil
}

func compileIsNull(n queryir.IsNull) string {
	if n.Negate {
		return columnRef(n.Column) + " IS NOT NULL"
	}
	return columnRef(n.Column) + " IS NULL"
}

// compileGroup joins sub-predicates with sep. Nested groups are
// parenthesized so AND/OR precedence follows the tree.
func (c *SQLCompiler) compileGroup(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}
	if len(preds) == 1 {
		return c.compilePredicate(preds[0])
	}

	parts := make([]string, 0, len(preds))
	var params []any
	for _, p := range preds {
		sql, ps, err := c.compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		if isGroup(p) {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, sep), params, nil
}

func isGroup(p queryir.Predicate) bool {
	switch pred := p.(type) {
	case queryir.And:
		return len(pred.Predicates) > 1
	case *queryir.And:
		return len(pred.Predicates) > 1
	case queryir.Or:
		return len(pred.Predicates) > 1
	case *queryir.Or:
		return len(pred.Predicates) > 1
	default:
		return false
	}
}

func columnRef(c queryir.Column) string {
	return c.Alias + "." + c.Name
}

func columnList(cols []queryir.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = columnRef(c)
	}
	return strings.Join(parts, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toParams(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		p, err := toParam(v)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// toParam converts a literal to a driver value. Timestamps are stored as
// unix nanoseconds.
func toParam(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil cannot be used as a SQL parameter")
	case string, []byte, bool, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case uint:
		return unsignedParam(uint64(val))
	case uint64:
		return unsignedParam(val)
	case uintptr:
		return unsignedParam(uint64(val))
	case uint32:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case float32:
		return float64(val), nil
	case time.Time:
		return val.UnixNano(), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		return nil, fmt.Errorf("unsupported SQL parameter type %T", v)
	}
}

// unsignedParam binds an unsigned integer as int64, the widest integer
// SQLite stores.
func unsignedParam(v uint64) (any, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("unsigned value %d overflows int64", v)
	}
	return int64(v), nil
}
