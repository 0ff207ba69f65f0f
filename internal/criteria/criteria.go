package criteria

import (
	"fmt"
	"strings"
)

// Well-known entity names of the vault schema.
const (
	EntityVaultStates         = "VaultStates"
	EntityVaultFungibleStates = "VaultFungibleStates"
	EntityVaultLinearStates   = "VaultLinearStates"
)

// QueryCriteria is a filter over vault states.
//
// This is a sealed interface - only types in this package implement it.
// Variants:
//   - VaultCriteria: status, types, soft locks, notaries, refs, time range
//   - FungibleCriteria: owners, quantity, issuers, issuer refs, participants
//   - LinearCriteria: linear ids, deal refs, participants
//   - AttributeCriteria / NullableAttributeCriteria: any registered attribute
//   - AndCriteria / OrCriteria: composition of two whole criteria
type QueryCriteria interface {
	criteriaNode()
}

// VaultCriteria filters on the base vault table.
//
// The zero value selects unconsumed, unlocked states of the default type.
type VaultCriteria struct {
	Status             StateStatus
	ContractStateTypes []string
	IncludeSoftLocked  bool
	Notaries           []Party
	StateRefs          []StateRef
	TimeCondition      *Condition[TimeInstantType]
}

func (VaultCriteria) criteriaNode() {}

// String renders the criteria for logs.
func (c VaultCriteria) String() string {
	parts := []string{"status=" + c.Status.String()}
	if len(c.ContractStateTypes) > 0 {
		parts = append(parts, "types="+strings.Join(c.ContractStateTypes, ","))
	}
	if c.IncludeSoftLocked {
		parts = append(parts, "softlocked")
	}
	if c.Notaries != nil {
		parts = append(parts, "notaries="+strings.Join(Identities(c.Notaries), ","))
	}
	if c.StateRefs != nil {
		parts = append(parts, fmt.Sprintf("refs=%v", c.StateRefs))
	}
	if c.TimeCondition != nil {
		parts = append(parts, "time="+c.TimeCondition.String())
	}
	return "VaultCriteria{" + strings.Join(parts, " ") + "}"
}

// FungibleCriteria filters on the fungible-asset fact table.
// Nil fields are not filtered on.
type FungibleCriteria struct {
	Participants  []Party
	Owners        []Party
	Quantity      *Condition[Attribute]
	IssuerParties []Party
	IssuerRefs    [][]byte
}

func (FungibleCriteria) criteriaNode() {}

// QuantityCondition builds a condition over the fungible quantity column.
func QuantityCondition(op Operator, value any) (Condition[Attribute], error) {
	return NewCondition(Attribute{Entity: EntityVaultFungibleStates, Name: "quantity"}, op, value)
}

// LinearCriteria filters on the linear-state fact table.
// Nil fields are not filtered on.
type LinearCriteria struct {
	Participants []Party
	LinearIDs    []UniqueIdentifier
	DealRefs     []string
}

func (LinearCriteria) criteriaNode() {}

// AttributeCriteria filters on an attribute of any registered entity.
//
// Expression is a Condition[Attribute] or a Combine of them; combinations
// are resolved in exactly the order they were built.
type AttributeCriteria struct {
	Expression Expression
}

func (AttributeCriteria) criteriaNode() {}

// NullableAttributeCriteria is AttributeCriteria over an attribute whose
// value may be NULL. It resolves identically.
type NullableAttributeCriteria struct {
	Expression Expression
}

func (NullableAttributeCriteria) criteriaNode() {}

// AndCriteria matches states matching both sides.
type AndCriteria struct {
	Left  QueryCriteria
	Right QueryCriteria
}

func (AndCriteria) criteriaNode() {}

// OrCriteria matches states matching either side.
type OrCriteria struct {
	Left  QueryCriteria
	Right QueryCriteria
}

func (OrCriteria) criteriaNode() {}

// And composes two criteria with AND.
func And(left, right QueryCriteria) AndCriteria {
	return AndCriteria{Left: left, Right: right}
}

// Or composes two criteria with OR.
func Or(left, right QueryCriteria) OrCriteria {
	return OrCriteria{Left: left, Right: right}
}
