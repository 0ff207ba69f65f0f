// Package criteria provides the vault query criteria model.
//
// This package contains value types only. The resolution engine in
// internal/vault turns these values into predicates; criteria imports
// nothing internal except vaulterr.
//
// Key design constraints:
//   - All values are immutable once constructed. And/Or composition returns
//     new values and never mutates its operands.
//   - Condition construction validates the unary invariant immediately: the
//     right operand is absent if and only if the operator is IS_NULL or
//     NOT_NULL.
//   - Logical composition is left-leaning. a.And(b).Or(c) is
//     Combine{OR, Combine{AND, a, b}, c} and consumers traverse it exactly as
//     built.
//   - QueryCriteria is a sealed interface. Only the variants in this package
//     implement it, so the resolver's type switch is exhaustive.
package criteria
