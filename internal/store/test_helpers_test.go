package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/vaultq/internal/criteria"
)

// createTestStore opens a migrated store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	alice  = criteria.Party{Name: "O=Alice, L=London, C=GB", Key: "alice-key"}
	bob    = criteria.Party{Name: "O=Bob, L=Paris, C=FR", Key: "bob-key"}
	bank   = criteria.Party{Name: "O=Bank, L=New York, C=US", Key: "bank-key"}
	notary = criteria.Party{Name: "O=Notary, L=Zurich, C=CH", Key: "notary-key"}
)

func cashState(tx string, index int, owner criteria.Party, quantity int64) RecordedState {
	return RecordedState{
		Ref:                    criteria.StateRef{TxHash: tx, Index: index},
		ContractStateClassName: "Cash.State",
		Payload:                []byte(`{"amount":1}`),
		Notary:                 notary,
		RecordedAt:             testEpoch,
		Fungible: &FungibleFact{
			Owner:        owner,
			Quantity:     quantity,
			Issuer:       bank,
			IssuerRef:    []byte{0x01},
			Participants: []criteria.Party{owner},
		},
	}
}

func linearState(tx string, index int, externalID string) RecordedState {
	return RecordedState{
		Ref:                    criteria.StateRef{TxHash: tx, Index: index},
		ContractStateClassName: "DummyLinearContract.State",
		Payload:                []byte(`{}`),
		Notary:                 notary,
		RecordedAt:             testEpoch,
		Linear: &LinearFact{
			LinearID:     criteria.UniqueIdentifier{ExternalID: externalID, ID: uuid.MustParse("0190b2a8-7c1e-7000-8000-000000000001")},
			Participants: []criteria.Party{alice, bob},
		},
	}
}
