// Package schema describes the queryable tables of the vault.
//
// A Registry maps logical entity names (record shapes) to table
// descriptions. The vault schema is always registered; custom mapped schemas
// are registered at startup from configuration and are never added while a
// query is being resolved.
package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Reference columns shared by the base table and every fact table.
const (
	RefTxColumn    = "transaction_id"
	RefIndexColumn = "output_index"
)

// Entity names of the built-in vault schema.
const (
	EntityVaultStates         = "VaultStates"
	EntityVaultFungibleStates = "VaultFungibleStates"
	EntityVaultLinearStates   = "VaultLinearStates"
	EntityParty               = "CommonSchemaV1.Party"
)

// Column is a physical column backing an entity attribute.
type Column struct {
	Name     string
	Nullable bool
}

// TableDescription describes one queryable table.
type TableDescription struct {
	// Entity is the logical name used by criteria and sort columns.
	Entity string

	// Table is the SQL table name.
	Table string

	// Attributes maps attribute names to columns.
	Attributes map[string]Column
}

// Column returns the column backing attribute attr.
func (t TableDescription) Column(attr string) (Column, bool) {
	c, ok := t.Attributes[attr]
	return c, ok
}

// AttributeNames returns the attribute names in sorted order.
func (t TableDescription) AttributeNames() []string {
	names := make([]string, 0, len(t.Attributes))
	for name := range t.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MappedSchema is a versioned group of tables registered together.
type MappedSchema struct {
	Name    string
	Version int
	Tables  []TableDescription
}

// Registry maps entity names to table descriptions.
//
// Safe for concurrent use. Queries only read it.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]TableDescription
	schemas  []string
}

// NewRegistry returns a registry holding the vault schema and the named
// custom schemas (see KnownSchemas).
func NewRegistry(custom ...string) (*Registry, error) {
	r := &Registry{entities: make(map[string]TableDescription)}
	if err := r.Register(VaultSchemaV1); err != nil {
		return nil, err
	}
	for _, name := range custom {
		ms, ok := knownSchemas[name]
		if !ok {
			return nil, fmt.Errorf("unknown mapped schema %q (known: %v)", name, KnownSchemaNames())
		}
		if err := r.Register(ms); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds all tables of ms. Registering an entity twice is an error.
func (r *Registry) Register(ms MappedSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range ms.Tables {
		if _, exists := r.entities[t.Entity]; exists {
			return fmt.Errorf("register schema %s v%d: entity %s already registered", ms.Name, ms.Version, t.Entity)
		}
	}
	for _, t := range ms.Tables {
		r.entities[t.Entity] = t
	}
	r.schemas = append(r.schemas, fmt.Sprintf("%s.v%d", ms.Name, ms.Version))
	return nil
}

// Lookup returns the table description for entity.
func (r *Registry) Lookup(entity string) (TableDescription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.entities[entity]
	return t, ok
}

// Entities returns the registered entity names in sorted order.
func (r *Registry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the registered schema labels ("name.vN") in registration order.
func (r *Registry) Schemas() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.schemas...)
}
