package vault

import (
	"time"

	"github.com/roach88/vaultq/internal/criteria"
)

// StateAndRef is a stored state payload with its reference.
//
// Payload is the opaque serialized state; decoding it is the caller's
// concern.
type StateAndRef struct {
	Ref                    criteria.StateRef `json:"ref"`
	ContractStateClassName string            `json:"contract_state_class_name"`
	Payload                []byte            `json:"payload,omitempty"`
}

// StateMetadata describes the vault bookkeeping for one state.
type StateMetadata struct {
	Ref                    criteria.StateRef    `json:"ref"`
	ContractStateClassName string               `json:"contract_state_class_name"`
	RecordedTime           time.Time            `json:"recorded_time"`
	ConsumedTime           *time.Time           `json:"consumed_time,omitempty"`
	Status                 criteria.StateStatus `json:"status"`
	NotaryName             string               `json:"notary_name"`
	NotaryKey              string               `json:"notary_key,omitempty"`
	LockID                 string               `json:"lock_id,omitempty"`
	LockUpdateTime         *time.Time           `json:"lock_update_time,omitempty"`
}

// Page is one window of query results.
//
// States and StatesMetadata are index-aligned. Pageable and Sorting echo the
// request. TotalStatesAvailable counts every state matching the criteria.
type Page struct {
	States               []StateAndRef              `json:"states"`
	StatesMetadata       []StateMetadata            `json:"states_metadata"`
	Pageable             criteria.PageSpecification `json:"pageable"`
	Sorting              criteria.Sort              `json:"sorting"`
	TotalStatesAvailable int                        `json:"total_states_available"`
}

// Refs returns the references of the page's states in order.
func (p *Page) Refs() []criteria.StateRef {
	refs := make([]criteria.StateRef, len(p.States))
	for i, s := range p.States {
		refs[i] = s.Ref
	}
	return refs
}
