package schema

import "sort"

// VaultSchemaV1 is the base vault schema. It is always registered.
var VaultSchemaV1 = MappedSchema{
	Name:    "vault",
	Version: 1,
	Tables: []TableDescription{
		{
			Entity: EntityVaultStates,
			Table:  "vault_states",
			Attributes: map[string]Column{
				"txId":                   {Name: RefTxColumn},
				"index":                  {Name: RefIndexColumn},
				"contractStateClassName": {Name: "contract_state_class_name"},
				"contractState":          {Name: "contract_state"},
				"notaryName":             {Name: "notary_name"},
				"notaryKey":              {Name: "notary_key"},
				"recordedTime":           {Name: "recorded_timestamp"},
				"consumedTime":           {Name: "consumed_timestamp", Nullable: true},
				"stateStatus":            {Name: "state_status"},
				"lockId":                 {Name: "lock_id", Nullable: true},
				"lockUpdateTime":         {Name: "lock_timestamp", Nullable: true},
			},
		},
		{
			Entity: EntityVaultFungibleStates,
			Table:  "vault_fungible_states",
			Attributes: map[string]Column{
				"txId":      {Name: RefTxColumn},
				"index":     {Name: RefIndexColumn},
				"quantity":  {Name: "quantity"},
				"issuerRef": {Name: "issuer_reference", Nullable: true},
			},
		},
		{
			Entity: EntityVaultLinearStates,
			Table:  "vault_linear_states",
			Attributes: map[string]Column{
				"txId":          {Name: RefTxColumn},
				"index":         {Name: RefIndexColumn},
				"uuid":          {Name: "uuid"},
				"externalId":    {Name: "external_id", Nullable: true},
				"dealReference": {Name: "deal_reference", Nullable: true},
			},
		},
		{
			Entity: EntityParty,
			Table:  "vault_parties",
			Attributes: map[string]Column{
				"name": {Name: "name"},
				"key":  {Name: "key"},
			},
		},
	},
}

// Custom entity names of the optional mapped schemas.
const (
	EntityCashV1      = "CashSchemaV1.PersistentCashState"
	EntityCashV2      = "CashSchemaV2.PersistentCashState"
	EntityDummyDealV1 = "DummyDealStateSchemaV1.PersistentDummyDealState"
)

// CashSchemaV1 maps cash states with owner, currency and amount in pennies.
var CashSchemaV1 = MappedSchema{
	Name:    "cash",
	Version: 1,
	Tables: []TableDescription{{
		Entity: EntityCashV1,
		Table:  "cash_states",
		Attributes: map[string]Column{
			"txId":        {Name: RefTxColumn},
			"index":       {Name: RefIndexColumn},
			"owner":       {Name: "owner_key"},
			"pennies":     {Name: "pennies"},
			"currency":    {Name: "ccy_code"},
			"issuerParty": {Name: "issuer_key"},
			"issuerRef":   {Name: "issuer_ref", Nullable: true},
		},
	}},
}

// CashSchemaV2 maps cash states on top of the common fungible columns.
var CashSchemaV2 = MappedSchema{
	Name:    "cash",
	Version: 2,
	Tables: []TableDescription{{
		Entity: EntityCashV2,
		Table:  "cash_states_v2",
		Attributes: map[string]Column{
			"txId":     {Name: RefTxColumn},
			"index":    {Name: RefIndexColumn},
			"currency": {Name: "ccy_code"},
			"quantity": {Name: "quantity"},
		},
	}},
}

// DummyDealStateSchemaV1 maps test deal states.
var DummyDealStateSchemaV1 = MappedSchema{
	Name:    "dummy_deal",
	Version: 1,
	Tables: []TableDescription{{
		Entity: EntityDummyDealV1,
		Table:  "dummy_deal_states",
		Attributes: map[string]Column{
			"txId":          {Name: RefTxColumn},
			"index":         {Name: RefIndexColumn},
			"dealReference": {Name: "deal_reference"},
			"externalId":    {Name: "external_id", Nullable: true},
			"uuid":          {Name: "uuid"},
		},
	}},
}

var knownSchemas = map[string]MappedSchema{
	"cash.v1":       CashSchemaV1,
	"cash.v2":       CashSchemaV2,
	"dummy_deal.v1": DummyDealStateSchemaV1,
}

// KnownSchemaNames returns the names accepted by NewRegistry, sorted.
func KnownSchemaNames() []string {
	names := make([]string, 0, len(knownSchemas))
	for name := range knownSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
