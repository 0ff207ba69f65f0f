// Package queryir is the relational query representation the vault
// criteria resolver produces and the SQL backend compiles.
//
// A query is a single Select over a root table, with LEFT or INNER joins
// registered by alias, a predicate tree for the WHERE clause, an optional
// DISTINCT flag, ORDER BY terms and a LIMIT/OFFSET window. Count wraps a
// Select and counts its distinct projected rows.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed with marker methods. Only types in this
// package implement them, so backends can type switch exhaustively:
//
//	switch p := pred.(type) {
//	case Compare:
//	    // column <op> value
//	case And:
//	    // conjunction
//	default:
//	    // impossible
//	}
//
// Value and pointer forms of every node are accepted by Validate and by the
// SQL backend.
//
// VALUES:
//
// Literal values are carried as Go values (string, integers, bool, []byte,
// time.Time). Backends bind them as parameters and never interpolate them
// into query text.
package queryir
