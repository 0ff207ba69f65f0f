package schema

import (
	"fmt"
	"sync"
)

// AnyState is the universal marker every contract state implements.
// It never appears in interface expansions.
const AnyState = "ContractState"

// Capability interfaces known to the default type registry.
const (
	InterfaceLinearState    = "LinearState"
	InterfaceDealState      = "DealState"
	InterfaceOwnableState   = "OwnableState"
	InterfaceFungibleAsset  = "FungibleAsset"
	InterfaceQueryableState = "QueryableState"
)

// Concrete state types known to the default type registry.
const (
	TypeCash            = "Cash.State"
	TypeCommercialPaper = "CommercialPaper.State"
	TypeDummyLinear     = "DummyLinearContract.State"
	TypeDummyDeal       = "DummyDealContract.State"
	TypeDummy           = "DummyContract.State"
)

// TypeRegistry records the capability interfaces each contract state type
// declares. It is populated when schemas are registered and replaces runtime
// inspection of loaded types.
//
// Safe for concurrent use.
type TypeRegistry struct {
	mu         sync.RWMutex
	interfaces map[string][]string // interface -> parent interfaces
	types      map[string][]string // concrete type -> declared interfaces
}

// NewTypeRegistry returns an empty registry that only knows AnyState.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		interfaces: map[string][]string{AnyState: nil},
		types:      make(map[string][]string),
	}
}

// DefaultTypes returns a registry with the built-in interfaces and types.
func DefaultTypes() *TypeRegistry {
	r := NewTypeRegistry()
	r.RegisterInterface(InterfaceLinearState, AnyState)
	r.RegisterInterface(InterfaceDealState, InterfaceLinearState)
	r.RegisterInterface(InterfaceOwnableState, AnyState)
	r.RegisterInterface(InterfaceFungibleAsset, InterfaceOwnableState)
	r.RegisterInterface(InterfaceQueryableState, AnyState)

	r.RegisterType(TypeCash, InterfaceFungibleAsset, InterfaceQueryableState)
	r.RegisterType(TypeCommercialPaper, InterfaceOwnableState, InterfaceQueryableState)
	r.RegisterType(TypeDummyLinear, InterfaceLinearState, InterfaceQueryableState)
	r.RegisterType(TypeDummyDeal, InterfaceDealState, InterfaceQueryableState)
	r.RegisterType(TypeDummy, AnyState)
	return r
}

// RegisterInterface declares a capability interface and its parents.
func (r *TypeRegistry) RegisterInterface(name string, parents ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interfaces[name] = append([]string(nil), parents...)
}

// RegisterType declares a concrete type and the interfaces it implements.
func (r *TypeRegistry) RegisterType(name string, interfaces ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = append([]string(nil), interfaces...)
}

// IsInterface reports whether name is a registered capability interface.
func (r *TypeRegistry) IsInterface(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.interfaces[name]
	return ok
}

// Known reports whether name is a registered concrete type.
func (r *TypeRegistry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}

// Interfaces returns every interface the concrete type implements, directly
// or through parent interfaces, excluding AnyState. Order is depth-first in
// declaration order without duplicates.
func (r *TypeRegistry) Interfaces(concrete string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	declared, ok := r.types[concrete]
	if !ok {
		return nil, fmt.Errorf("contract state type %q is not registered", concrete)
	}

	var out []string
	seen := make(map[string]bool)
	var walk func(names []string) error
	walk = func(names []string) error {
		for _, name := range names {
			if name == AnyState || seen[name] {
				continue
			}
			parents, ok := r.interfaces[name]
			if !ok {
				return fmt.Errorf("contract state type %q declares unknown interface %q", concrete, name)
			}
			seen[name] = true
			out = append(out, name)
			if err := walk(parents); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(declared); err != nil {
		return nil, err
	}
	return out, nil
}
