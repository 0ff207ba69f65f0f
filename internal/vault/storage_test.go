package vault

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vaultq/internal/criteria"
	"github.com/roach88/vaultq/internal/schema"
	"github.com/roach88/vaultq/internal/store"
	"github.com/roach88/vaultq/internal/vaulterr"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg, err := schema.NewRegistry()
	require.NoError(t, err)
	return NewService(store.New(db), reg, schema.DefaultTypes(), WithLogger(zerolog.Nop())), mock
}

var stateColumnNames = []string{
	"transaction_id", "output_index", "contract_state_class_name", "contract_state",
	"notary_name", "notary_key", "recorded_timestamp", "consumed_timestamp",
	"state_status", "lock_id", "lock_timestamp",
}

func TestQuery_TypeListingFailure(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery(`SELECT DISTINCT contract_state_class_name`).
		WillReturnError(errors.New("disk I/O error"))

	_, err := svc.Query(context.Background(), criteria.VaultCriteria{})
	require.Error(t, err)
	assert.True(t, vaulterr.IsKind(err, vaulterr.KindStorage))
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_CountFailure(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery(`SELECT DISTINCT contract_state_class_name`).
		WillReturnRows(sqlmock.NewRows([]string{"contract_state_class_name"}).AddRow(schema.TypeCash))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM \(SELECT DISTINCT vs.transaction_id, vs.output_index FROM vault_states AS vs`).
		WithArgs("UNCONSUMED").
		WillReturnError(errors.New("database is locked"))

	_, err := svc.Query(context.Background(), criteria.VaultCriteria{})
	require.Error(t, err)
	assert.True(t, vaulterr.IsKind(err, vaulterr.KindStorage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_ScanFailure(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery(`SELECT DISTINCT contract_state_class_name`).
		WillReturnRows(sqlmock.NewRows([]string{"contract_state_class_name"}).AddRow(schema.TypeCash))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT vs.transaction_id, .* LIMIT \? OFFSET \?`).
		WithArgs("UNCONSUMED", 200, 0).
		WillReturnRows(sqlmock.NewRows(stateColumnNames).
			AddRow("tx1", 0, schema.TypeCash, []byte("{}"), "notary", "key", int64(1), nil, "BOGUS", nil, nil))

	_, err := svc.Query(context.Background(), criteria.VaultCriteria{})
	require.Error(t, err)
	assert.True(t, vaulterr.IsKind(err, vaulterr.KindStorage))
	assert.Contains(t, err.Error(), "BOGUS")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_BoundsCheckedBeforeFetch(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery(`SELECT DISTINCT contract_state_class_name`).
		WillReturnRows(sqlmock.NewRows([]string{"contract_state_class_name"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	_, err := svc.QueryBy(context.Background(), criteria.VaultCriteria{}, page(1, 2), criteria.NoSort(), schema.AnyState)
	require.Error(t, err)
	assert.True(t, vaulterr.IsKind(err, vaulterr.KindPaginationBounds))
	// No page query was issued.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_InvalidPageRunsNothing(t *testing.T) {
	svc, mock := newMockService(t)

	_, err := svc.QueryBy(context.Background(), criteria.VaultCriteria{}, page(-1, 2), criteria.NoSort(), schema.AnyState)
	require.Error(t, err)
	assert.True(t, vaulterr.IsKind(err, vaulterr.KindPaginationBounds))
	assert.NoError(t, mock.ExpectationsWereMet())
}
