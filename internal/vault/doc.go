// Package vault resolves query criteria against the vault store and
// returns paginated, sorted pages of states with their metadata.
//
// ARCHITECTURE:
//
//	[criteria.QueryCriteria] → [criteriaParser] → [queryir.Select] → [querysql] → [store]
//	                               ↑      ↑
//	                 type mapping ─┘      └─ join registry ← sort resolver
//
// One call to Service.QueryBy is one resolution pass:
//  1. Validate the page specification
//  2. Discover the interface → concrete type mapping of the stored types
//  3. Resolve the criteria into predicates, registering fact-table joins
//  4. Resolve the sort against the registered joins
//  5. Count matching states, check page bounds, fetch the page window
//
// Nothing is cached between calls. The type mapping is rebuilt per query.
//
// ERRORS:
//
// Every failure returned by QueryBy is a *vaulterr.Error. Its Kind tells
// malformed criteria, unresolvable references, page bounds violations,
// unsupported features and storage failures apart.
package vault
