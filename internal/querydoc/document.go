// Package querydoc is the data form of a vault query: criteria, paging,
// sorting and the default contract type, written as YAML or CUE.
//
// A document is decoded, validated and then built into the criteria model:
//
//	doc, err := querydoc.Load("unconsumed-cash.yaml")
//	q, err := doc.Build()
//	page, err := svc.QueryBy(ctx, q.Criteria, q.Paging, q.Sorting, q.ContractType)
package querydoc

import "time"

// Document is a complete query.
type Document struct {
	ContractType string     `yaml:"contract_type,omitempty" json:"contract_type,omitempty"`
	Criteria     *Node      `yaml:"criteria" json:"criteria" validate:"required"`
	Page         *Page      `yaml:"page,omitempty" json:"page,omitempty"`
	Sort         []SortTerm `yaml:"sort,omitempty" json:"sort,omitempty" validate:"dive"`
}

// Page selects the result window. Omitted, the default page applies.
type Page struct {
	Number int `yaml:"number" json:"number"`
	Size   int `yaml:"size" json:"size"`
}

// SortTerm orders by one attribute of an entity the criteria reference.
type SortTerm struct {
	Entity    string `yaml:"entity" json:"entity" validate:"required"`
	Column    string `yaml:"column" json:"column" validate:"required"`
	Direction string `yaml:"direction,omitempty" json:"direction,omitempty"`
	Nulls     string `yaml:"nulls,omitempty" json:"nulls,omitempty"`
}

// Node is one criteria node. Exactly one field is set. And and Or fold
// left over two or more children.
type Node struct {
	Vault     *VaultNode     `yaml:"vault,omitempty" json:"vault,omitempty"`
	Fungible  *FungibleNode  `yaml:"fungible,omitempty" json:"fungible,omitempty"`
	Linear    *LinearNode    `yaml:"linear,omitempty" json:"linear,omitempty"`
	Attribute *AttributeNode `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	And       []Node         `yaml:"and,omitempty" json:"and,omitempty" validate:"omitempty,min=2,dive"`
	Or        []Node         `yaml:"or,omitempty" json:"or,omitempty" validate:"omitempty,min=2,dive"`
}

// VaultNode filters on the common state columns. A nil list applies no
// filter; an empty list matches nothing.
type VaultNode struct {
	Status            string         `yaml:"status,omitempty" json:"status,omitempty"`
	Types             []string       `yaml:"types,omitempty" json:"types,omitempty"`
	IncludeSoftLocked bool           `yaml:"include_soft_locked,omitempty" json:"include_soft_locked,omitempty"`
	Notaries          []string       `yaml:"notaries,omitempty" json:"notaries,omitempty"`
	StateRefs         []StateRefNode `yaml:"state_refs,omitempty" json:"state_refs,omitempty" validate:"dive"`
	Time              *TimeNode      `yaml:"time,omitempty" json:"time,omitempty"`
}

// StateRefNode is a state reference.
type StateRefNode struct {
	TxHash string `yaml:"txhash" json:"txhash" validate:"required"`
	Index  int    `yaml:"index" json:"index" validate:"gte=0"`
}

// TimeNode is a condition on the recorded or consumed timestamp.
type TimeNode struct {
	On     string      `yaml:"on,omitempty" json:"on,omitempty" validate:"omitempty,oneof=RECORDED CONSUMED recorded consumed"`
	Op     string      `yaml:"op" json:"op" validate:"required"`
	Values []time.Time `yaml:"values" json:"values"`
}

// FungibleNode filters fungible states. Parties are identity names.
// IssuerRefs are hex encoded.
type FungibleNode struct {
	Owners       []string   `yaml:"owners,omitempty" json:"owners,omitempty"`
	Participants []string   `yaml:"participants,omitempty" json:"participants,omitempty"`
	Issuers      []string   `yaml:"issuers,omitempty" json:"issuers,omitempty"`
	IssuerRefs   []string   `yaml:"issuer_refs,omitempty" json:"issuer_refs,omitempty" validate:"dive,hexadecimal"`
	Quantity     *ValueNode `yaml:"quantity,omitempty" json:"quantity,omitempty"`
}

// LinearNode filters linear states.
type LinearNode struct {
	IDs          []LinearIDNode `yaml:"ids,omitempty" json:"ids,omitempty" validate:"dive"`
	DealRefs     []string       `yaml:"deal_refs,omitempty" json:"deal_refs,omitempty"`
	Participants []string       `yaml:"participants,omitempty" json:"participants,omitempty"`
}

// LinearIDNode is a linear id; ExternalID is optional.
type LinearIDNode struct {
	ExternalID string `yaml:"external_id,omitempty" json:"external_id,omitempty"`
	UUID       string `yaml:"uuid" json:"uuid" validate:"required,uuid"`
}

// ValueNode is an operator with its operand. Value holds a scalar operand,
// Values a collection operand; unary operators take neither.
type ValueNode struct {
	Op     string `yaml:"op" json:"op" validate:"required"`
	Value  any    `yaml:"value,omitempty" json:"value,omitempty"`
	Values []any  `yaml:"values,omitempty" json:"values,omitempty"`
}

// AttributeNode is a custom attribute expression. Nullable selects the
// nullable attribute criteria variant.
type AttributeNode struct {
	Nullable bool      `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Expr     *ExprNode `yaml:"expr" json:"expr" validate:"required"`
}

// ExprNode is either a condition (Entity, Attribute and an operator) or
// a combination (And or Or with two or more children).
type ExprNode struct {
	Entity    string     `yaml:"entity,omitempty" json:"entity,omitempty"`
	Attribute string     `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Op        string     `yaml:"op,omitempty" json:"op,omitempty"`
	Value     any        `yaml:"value,omitempty" json:"value,omitempty"`
	Values    []any      `yaml:"values,omitempty" json:"values,omitempty"`
	And       []ExprNode `yaml:"and,omitempty" json:"and,omitempty" validate:"omitempty,min=2,dive"`
	Or        []ExprNode `yaml:"or,omitempty" json:"or,omitempty" validate:"omitempty,min=2,dive"`
}
