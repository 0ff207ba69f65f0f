package vault

import (
	"context"
	"sort"

	"github.com/roach88/vaultq/internal/schema"
	"github.com/roach88/vaultq/internal/vaulterr"
)

// TypeLister enumerates the distinct contract state type names stored in
// the vault.
type TypeLister interface {
	DistinctContractStateTypes(ctx context.Context) ([]string, error)
}

// TypeMapping maps a capability interface to the concrete stored types
// implementing it. Concrete names are sorted.
type TypeMapping map[string][]string

// Expand returns the concrete types implementing iface.
func (m TypeMapping) Expand(iface string) []string {
	return m[iface]
}

// DiscoverTypeMapping builds the mapping for the types present in the
// store. Only stored types appear, so interface filters never match types
// the store does not hold. A stored type missing from the registry is an
// unresolvable reference.
func DiscoverTypeMapping(ctx context.Context, lister TypeLister, types *schema.TypeRegistry) (TypeMapping, error) {
	stored, err := lister.DistinctContractStateTypes(ctx)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.KindStorage, "list stored contract state types")
	}

	mapping := make(TypeMapping)
	for _, concrete := range stored {
		interfaces, err := types.Interfaces(concrete)
		if err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.KindUnresolvableReference, "resolve stored contract state type")
		}
		for _, iface := range interfaces {
			mapping[iface] = append(mapping[iface], concrete)
		}
	}
	for iface := range mapping {
		sort.Strings(mapping[iface])
	}
	return mapping, nil
}
