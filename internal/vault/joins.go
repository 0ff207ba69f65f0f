package vault

import (
	"strconv"

	"github.com/roach88/vaultq/internal/queryir"
	"github.com/roach88/vaultq/internal/schema"
)

// Aliases of the built-in joins.
const (
	aliasVault             = "vs"
	aliasFungible          = "vfs"
	aliasFungibleOwner     = "vfs_owner"
	aliasFungibleIssuer    = "vfs_issuer"
	aliasFungibleParts     = "vfp"
	aliasFungiblePartParty = aliasFungibleParts + "_party"
	aliasLinear            = "vls"
	aliasLinearParts       = "vlp"
	aliasLinearPartParty   = aliasLinearParts + "_party"
)

// Physical tables not exposed as entities.
const (
	tableFungibleParticipants = "vault_fungible_participants"
	tableLinearParticipants   = "vault_linear_participants"
)

// joinRegistry collects the joins a query needs, each registered once the
// first time a criterion references it. Entity aliases are kept so the sort
// resolver can address every entity the criteria touched.
type joinRegistry struct {
	root     queryir.Source
	joins    []queryir.Join
	aliases  map[string]bool   // registered join aliases
	entities map[string]string // entity -> alias
	fanOuts  map[string]int    // participant joins opened per base alias
	distinct bool
}

func newJoinRegistry(rootTable string) *joinRegistry {
	return &joinRegistry{
		root:     queryir.Source{Table: rootTable, Alias: aliasVault},
		aliases:  map[string]bool{aliasVault: true},
		entities: map[string]string{schema.EntityVaultStates: aliasVault},
		fanOuts:  make(map[string]int),
	}
}

// join registers a LEFT JOIN under alias unless already present.
func (r *joinRegistry) join(alias, table string, on queryir.Predicate) {
	if r.aliases[alias] {
		return
	}
	r.aliases[alias] = true
	r.joins = append(r.joins, queryir.Join{
		Kind:   queryir.JoinLeft,
		Source: queryir.Source{Table: table, Alias: alias},
		On:     on,
	})
}

// joinOnRef joins table to the root on the shared state reference.
func (r *joinRegistry) joinOnRef(alias, table string) {
	r.join(alias, table, refEquals(alias, aliasVault))
}

// joinEntity joins the entity's table on the state reference and records
// the entity alias. Returns the alias.
func (r *joinRegistry) joinEntity(entity, alias, table string) string {
	if existing, ok := r.entities[entity]; ok {
		return existing
	}
	r.joinOnRef(alias, table)
	r.entities[entity] = alias
	return alias
}

// joinParty joins the party table under alias on the party id held by from.
func (r *joinRegistry) joinParty(alias, partyTable string, from queryir.Column) {
	r.join(alias, partyTable, queryir.ColumnsEqual{
		Left:  queryir.Col(alias, "party_id"),
		Right: from,
	})
}

// joinParticipants opens a fresh participant join and its party join for
// one filter, so that two participant filters in the same query never
// constrain the same participant row. The first pair keeps the base alias,
// later ones get a numeric suffix. Returns the party alias.
func (r *joinRegistry) joinParticipants(base, table, partyTable string) string {
	r.fanOuts[base]++
	alias := base
	if n := r.fanOuts[base]; n > 1 {
		alias = base + strconv.Itoa(n)
	}
	party := alias + "_party"
	r.joinOnRef(alias, table)
	r.joinParty(party, partyTable, queryir.Col(alias, colParty))
	r.requireDistinct()
	return party
}

// entityAlias returns the alias an entity was joined under.
func (r *joinRegistry) entityAlias(entity string) (string, bool) {
	alias, ok := r.entities[entity]
	return alias, ok
}

// requireDistinct marks the query as fanning out root rows.
func (r *joinRegistry) requireDistinct() {
	r.distinct = true
}

// present is the predicate "the LEFT JOIN under alias found a row".
func present(alias string) queryir.Predicate {
	return queryir.IsNull{Column: queryir.Col(alias, schema.RefTxColumn), Negate: true}
}

func refEquals(alias, root string) queryir.Predicate {
	return queryir.And{Predicates: []queryir.Predicate{
		queryir.ColumnsEqual{Left: queryir.Col(alias, schema.RefTxColumn), Right: queryir.Col(root, schema.RefTxColumn)},
		queryir.ColumnsEqual{Left: queryir.Col(alias, schema.RefIndexColumn), Right: queryir.Col(root, schema.RefIndexColumn)},
	}}
}

func refKey() []queryir.Column {
	return []queryir.Column{
		queryir.Col(aliasVault, schema.RefTxColumn),
		queryir.Col(aliasVault, schema.RefIndexColumn),
	}
}
