package vault

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vaultq/internal/criteria"
	"github.com/roach88/vaultq/internal/schema"
	"github.com/roach88/vaultq/internal/store"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var (
	alice  = criteria.Party{Name: "O=Alice, L=London, C=GB", Key: "alice-key"}
	bob    = criteria.Party{Name: "O=Bob, L=Paris, C=FR", Key: "bob-key"}
	bank   = criteria.Party{Name: "O=Bank, L=New York, C=US", Key: "bank-key"}
	notary = criteria.Party{Name: "O=Notary, L=Zurich, C=CH", Key: "notary-key"}
)

var (
	linearA = uuid.MustParse("0190b2a8-7c1e-7000-8000-00000000000a")
	linearB = uuid.MustParse("0190b2a8-7c1e-7000-8000-00000000000b")
)

type testVault struct {
	store   *store.Store
	service *Service
}

// newTestVault opens a migrated store and a service over it with the given
// custom schemas registered.
func newTestVault(t *testing.T, schemas ...string) *testVault {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg, err := schema.NewRegistry(schemas...)
	require.NoError(t, err)
	return &testVault{
		store:   s,
		service: NewService(s, reg, schema.DefaultTypes(), WithLogger(zerolog.Nop())),
	}
}

func (v *testVault) record(t *testing.T, states ...store.RecordedState) {
	t.Helper()
	for _, st := range states {
		require.NoError(t, v.store.RecordState(context.Background(), st))
	}
}

func (v *testVault) consume(t *testing.T, ref criteria.StateRef, at time.Time) {
	t.Helper()
	require.NoError(t, v.store.Consume(context.Background(), ref, at))
}

func ref(tx string, index int) criteria.StateRef {
	return criteria.StateRef{TxHash: tx, Index: index}
}

func cash(tx string, index int, owner criteria.Party, quantity int64, recorded time.Time) store.RecordedState {
	return store.RecordedState{
		Ref:                    ref(tx, index),
		ContractStateClassName: schema.TypeCash,
		Payload:                []byte(`{"quantity":` + strconv.FormatInt(quantity, 10) + `}`),
		Notary:                 notary,
		RecordedAt:             recorded,
		Fungible: &store.FungibleFact{
			Owner:        owner,
			Quantity:     quantity,
			Issuer:       bank,
			IssuerRef:    []byte{0x01},
			Participants: []criteria.Party{owner, bank},
		},
		Custom: []store.CustomFact{{
			Table:  "cash_states_v2",
			Values: map[string]any{"ccy_code": "GBP", "quantity": quantity},
		}},
	}
}

func linear(tx string, index int, id criteria.UniqueIdentifier, participants ...criteria.Party) store.RecordedState {
	return store.RecordedState{
		Ref:                    ref(tx, index),
		ContractStateClassName: schema.TypeDummyLinear,
		Payload:                []byte(`{}`),
		Notary:                 notary,
		RecordedAt:             testEpoch,
		Linear: &store.LinearFact{
			LinearID:     id,
			Participants: participants,
		},
	}
}

func page(number, size int) criteria.PageSpecification {
	return criteria.PageSpecification{PageNumber: number, PageSize: size}
}
