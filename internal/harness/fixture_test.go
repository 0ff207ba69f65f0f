package harness

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vaultq/internal/criteria"
	"github.com/roach88/vaultq/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestMinorUnits(t *testing.T) {
	testCases := []struct {
		amount string
		scale  int32
		want   int64
	}{
		{"12.50", 2, 1250},
		{"12.5", 2, 1250},
		{"7", 2, 700},
		{"7", 0, 7},
		{" 0.01 ", 2, 1},
		{"-3.25", 2, -325},
		{"1.234", 3, 1234},
	}
	for _, tc := range testCases {
		t.Run(tc.amount, func(t *testing.T) {
			got, err := MinorUnits(tc.amount, tc.scale)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMinorUnits_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		amount string
		scale  int32
		want   string
	}{
		{"not a number", "ten", 2, "parse"},
		{"too precise", "1.005", 2, "decimal places"},
		{"overflow", "99999999999999999999", 2, "overflows"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MinorUnits(tc.amount, tc.scale)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("abc:3")
	require.NoError(t, err)
	assert.Equal(t, criteria.StateRef{TxHash: "abc", Index: 3}, ref)
	assert.Equal(t, "abc:3", FormatRef(ref))

	for _, bad := range []string{"abc", ":1", "abc:-1", "abc:x"} {
		_, err := ParseRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadFixture_Apply(t *testing.T) {
	f, err := LoadFixture("testdata/fixture.yaml")
	require.NoError(t, err)
	require.Len(t, f.States, 3)

	st := openStore(t)
	clock := f.Clock()
	n, err := f.Apply(context.Background(), st, clock)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	epoch := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	// Two implicit recorded times, one consumption and one lock.
	assert.Equal(t, int64(4), clock.Ticks())

	type row struct {
		recorded int64
		consumed sql.NullInt64
		lockID   sql.NullString
		lockedAt sql.NullInt64
		status   string
	}
	read := func(tx string, index int) row {
		var r row
		err := st.DB().QueryRow(`SELECT recorded_timestamp, consumed_timestamp, lock_id, lock_timestamp, state_status
			FROM vault_states WHERE transaction_id = ? AND output_index = ?`, tx, index).
			Scan(&r.recorded, &r.consumed, &r.lockID, &r.lockedAt, &r.status)
		require.NoError(t, err)
		return r
	}

	first := read("f1", 0)
	assert.Equal(t, epoch.Add(30*time.Second).UnixNano(), first.recorded)
	assert.Equal(t, "UNCONSUMED", first.status)

	locked := read("f1", 1)
	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC).UnixNano(), locked.recorded)
	assert.Equal(t, "lock-7", locked.lockID.String)
	assert.Equal(t, epoch.Add(2*time.Minute).UnixNano(), locked.lockedAt.Int64)

	consumed := read("f2", 0)
	assert.Equal(t, epoch.Add(time.Minute).UnixNano(), consumed.recorded)
	assert.Equal(t, "CONSUMED", consumed.status)
	assert.Equal(t, epoch.Add(90*time.Second).UnixNano(), consumed.consumed.Int64)

	var qty int64
	var issuerRef []byte
	require.NoError(t, st.DB().QueryRow(
		`SELECT quantity, issuer_reference FROM vault_fungible_states WHERE transaction_id = 'f1' AND output_index = 0`).
		Scan(&qty, &issuerRef))
	assert.Equal(t, int64(1250), qty)
	assert.Equal(t, []byte{0x0a, 0x0b}, issuerRef)

	require.NoError(t, st.DB().QueryRow(
		`SELECT quantity FROM vault_fungible_states WHERE transaction_id = 'f1' AND output_index = 1`).Scan(&qty))
	assert.Equal(t, int64(7), qty)
}

func TestFixture_ApplyWritesNothingOnBadState(t *testing.T) {
	f := &Fixture{States: []StateFixture{
		{Ref: "g1:0", Type: "Cash.State", Fungible: &FungibleFixture{Owner: "Alice Corp", Amount: "1.00"}},
		{Ref: "g1:1", Type: "Cash.State", Fungible: &FungibleFixture{Owner: "Alice Corp", Amount: "1.001"}},
	}}
	st := openStore(t)

	_, err := f.Apply(context.Background(), st, f.Clock())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "g1:1")

	count, err := st.CountStates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestFixture_DefaultClock(t *testing.T) {
	f := &Fixture{}
	clock := f.Clock()
	assert.Equal(t, DefaultEpoch, clock.Current())
	assert.Equal(t, DefaultEpoch.Add(time.Minute), clock.Next())
}

func TestValidateStates(t *testing.T) {
	testCases := []struct {
		name   string
		states []StateFixture
		want   string
	}{
		{"bad ref", []StateFixture{{Ref: "x", Type: "Cash.State"}}, "txhash:index"},
		{"duplicate ref", []StateFixture{{Ref: "x:0", Type: "A"}, {Ref: "x:0", Type: "A"}}, "duplicate"},
		{"missing type", []StateFixture{{Ref: "x:0"}}, "type is required"},
		{"missing amount", []StateFixture{{Ref: "x:0", Type: "A", Fungible: &FungibleFixture{Owner: "o"}}}, "amount"},
		{"missing uuid", []StateFixture{{Ref: "x:0", Type: "A", Linear: &LinearFixture{}}}, "uuid"},
		{"missing table", []StateFixture{{Ref: "x:0", Type: "A", Custom: []CustomFixture{{}}}}, "table"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateStates(tc.states)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
