package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_VaultSchemaAlwaysRegistered(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	for _, entity := range []string{EntityVaultStates, EntityVaultFungibleStates, EntityVaultLinearStates, EntityParty} {
		_, ok := r.Lookup(entity)
		assert.True(t, ok, "entity %s should be registered", entity)
	}
	_, ok := r.Lookup(EntityCashV1)
	assert.False(t, ok, "custom schemas are opt-in")
	assert.Equal(t, []string{"vault.v1"}, r.Schemas())
}

func TestNewRegistry_CustomSchemas(t *testing.T) {
	r, err := NewRegistry("cash.v1", "dummy_deal.v1")
	require.NoError(t, err)

	cash, ok := r.Lookup(EntityCashV1)
	require.True(t, ok)
	assert.Equal(t, "cash_states", cash.Table)

	col, ok := cash.Column("currency")
	require.True(t, ok)
	assert.Equal(t, "ccy_code", col.Name)

	assert.Equal(t, []string{"vault.v1", "cash.v1", "dummy_deal.v1"}, r.Schemas())
}

func TestNewRegistry_UnknownSchema(t *testing.T) {
	_, err := NewRegistry("bonds.v7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bonds.v7")
}

func TestRegistry_RegisterDuplicateEntity(t *testing.T) {
	r, err := NewRegistry("cash.v1")
	require.NoError(t, err)

	err = r.Register(CashSchemaV1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_Entities(t *testing.T) {
	r, err := NewRegistry("cash.v2")
	require.NoError(t, err)
	assert.Equal(t, []string{
		EntityCashV2,
		EntityParty,
		EntityVaultFungibleStates,
		EntityVaultLinearStates,
		EntityVaultStates,
	}, r.Entities())
}

func TestTableDescription_AttributeNames(t *testing.T) {
	assert.Equal(t, []string{"currency", "index", "quantity", "txId"}, CashSchemaV2.Tables[0].AttributeNames())
}

func TestKnownSchemaNames(t *testing.T) {
	assert.Equal(t, []string{"cash.v1", "cash.v2", "dummy_deal.v1"}, KnownSchemaNames())
}
