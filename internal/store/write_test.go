package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vaultq/internal/criteria"
)

func TestRecordState_FungibleFacts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordState(ctx, cashState("tx1", 0, alice, 100)))

	var status, className string
	var recorded int64
	err := s.db.QueryRow(`
		SELECT state_status, contract_state_class_name, recorded_timestamp
		FROM vault_states WHERE transaction_id = 'tx1' AND output_index = 0
	`).Scan(&status, &className, &recorded)
	require.NoError(t, err)
	assert.Equal(t, "UNCONSUMED", status)
	assert.Equal(t, "Cash.State", className)
	assert.Equal(t, testEpoch.UnixNano(), recorded)

	var owner string
	var quantity int64
	err = s.db.QueryRow(`
		SELECT p.name, f.quantity
		FROM vault_fungible_states f JOIN vault_parties p ON p.party_id = f.owner_party_id
		WHERE f.transaction_id = 'tx1'
	`).Scan(&owner, &quantity)
	require.NoError(t, err)
	assert.Equal(t, alice.Name, owner)
	assert.Equal(t, int64(100), quantity)
}

func TestRecordState_PartiesAreShared(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordState(ctx, cashState("tx1", 0, alice, 100)))
	require.NoError(t, s.RecordState(ctx, cashState("tx1", 1, alice, 200)))

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM vault_parties").Scan(&n))
	// alice and bank; the notary is held on vault_states
	assert.Equal(t, 2, n)
}

func TestRecordState_LinearParticipants(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	st := linearState("tx2", 0, "deal-1")
	st.Linear.Participants = append(st.Linear.Participants, alice)
	require.NoError(t, s.RecordState(ctx, st))

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM vault_linear_participants").Scan(&n))
	assert.Equal(t, 2, n, "duplicate participants are stored once")

	var externalID string
	require.NoError(t, s.db.QueryRow("SELECT external_id FROM vault_linear_states").Scan(&externalID))
	assert.Equal(t, "deal-1", externalID)
}

func TestRecordState_DuplicateRef(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordState(ctx, cashState("tx1", 0, alice, 100)))
	err := s.RecordState(ctx, cashState("tx1", 0, bob, 5))
	require.Error(t, err)

	n, err := s.CountStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecordState_RollsBackOnFactError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	st := cashState("tx1", 0, alice, 100)
	st.Custom = []CustomFact{{Table: "bonds", Values: map[string]any{"face": 1}}}

	err := s.RecordState(ctx, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown table "bonds"`)

	n, err := s.CountStates(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordState_CustomFacts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	st := cashState("tx1", 0, alice, 100)
	st.Custom = []CustomFact{{
		Table:  "cash_states_v2",
		Values: map[string]any{"ccy_code": "GBP", "quantity": int64(100)},
	}}
	require.NoError(t, s.RecordState(ctx, st))

	var ccy string
	require.NoError(t, s.db.QueryRow("SELECT ccy_code FROM cash_states_v2").Scan(&ccy))
	assert.Equal(t, "GBP", ccy)

	st = cashState("tx1", 1, alice, 100)
	st.Custom = []CustomFact{{Table: "cash_states_v2", Values: map[string]any{"ccy_code; DROP": "x"}}}
	err := s.RecordState(ctx, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no column")
}

func TestRecordState_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.RecordState(ctx, RecordedState{ContractStateClassName: "Cash.State"})
	require.Error(t, err)

	err = s.RecordState(ctx, RecordedState{Ref: criteria.StateRef{TxHash: "tx"}})
	require.Error(t, err)
}

func TestConsume(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ref := criteria.StateRef{TxHash: "tx1", Index: 0}

	require.NoError(t, s.RecordState(ctx, cashState("tx1", 0, alice, 100)))
	at := testEpoch.Add(time.Hour)
	require.NoError(t, s.Consume(ctx, ref, at))

	var status string
	var consumed int64
	require.NoError(t, s.db.QueryRow("SELECT state_status, consumed_timestamp FROM vault_states").Scan(&status, &consumed))
	assert.Equal(t, "CONSUMED", status)
	assert.Equal(t, at.UnixNano(), consumed)

	err := s.Consume(ctx, ref, at)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSoftLock(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	refs := []criteria.StateRef{{TxHash: "tx1", Index: 0}, {TxHash: "tx1", Index: 1}}

	require.NoError(t, s.RecordState(ctx, cashState("tx1", 0, alice, 100)))
	require.NoError(t, s.RecordState(ctx, cashState("tx1", 1, alice, 50)))

	require.NoError(t, s.SoftLock(ctx, "lock-a", refs[:1], testEpoch))
	require.NoError(t, s.SoftLock(ctx, "lock-a", refs[:1], testEpoch), "relocking under the same id")

	err := s.SoftLock(ctx, "lock-b", refs, testEpoch)
	require.ErrorIs(t, err, ErrLocked)

	var locked int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM vault_states WHERE lock_id = 'lock-b'").Scan(&locked))
	assert.Zero(t, locked, "failed lock must not lock any state")

	released, err := s.ReleaseLock(ctx, "lock-a", testEpoch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	require.NoError(t, s.SoftLock(ctx, "lock-b", refs, testEpoch))
}

func TestSoftLock_ConsumedState(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ref := criteria.StateRef{TxHash: "tx1", Index: 0}

	require.NoError(t, s.RecordState(ctx, cashState("tx1", 0, alice, 100)))
	require.NoError(t, s.Consume(ctx, ref, testEpoch))

	err := s.SoftLock(ctx, "lock", []criteria.StateRef{ref}, testEpoch)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SoftLock(ctx, "lock", []criteria.StateRef{{TxHash: "missing"}}, testEpoch)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDistinctContractStateTypes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	types, err := s.DistinctContractStateTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)
	assert.NotNil(t, types)

	require.NoError(t, s.RecordState(ctx, linearState("tx2", 0, "")))
	require.NoError(t, s.RecordState(ctx, cashState("tx1", 0, alice, 1)))
	require.NoError(t, s.RecordState(ctx, cashState("tx1", 1, bob, 1)))
	require.NoError(t, s.Consume(ctx, criteria.StateRef{TxHash: "tx2"}, testEpoch))

	types, err = s.DistinctContractStateTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cash.State", "DummyLinearContract.State"}, types)
}
