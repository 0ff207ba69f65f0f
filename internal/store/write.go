package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/vaultq/internal/criteria"
)

// ErrNotFound is returned when a state ref does not match an eligible row.
var ErrNotFound = errors.New("state not found")

// ErrLocked is returned when a state is soft-locked under another lock id.
var ErrLocked = errors.New("state is soft-locked by another lock")

// RecordedState is one state written to the vault together with the facts
// the query engine joins on.
type RecordedState struct {
	Ref                    criteria.StateRef
	ContractStateClassName string
	Payload                []byte
	Notary                 criteria.Party
	RecordedAt             time.Time

	Fungible *FungibleFact
	Linear   *LinearFact
	Custom   []CustomFact
}

// FungibleFact describes a fungible asset state.
type FungibleFact struct {
	Owner        criteria.Party
	Quantity     int64
	Issuer       criteria.Party
	IssuerRef    []byte
	Participants []criteria.Party
}

// LinearFact describes a linear state.
type LinearFact struct {
	LinearID      criteria.UniqueIdentifier
	DealReference string
	Participants  []criteria.Party
}

// CustomFact is a row of a custom mapped schema table, keyed by the state
// ref. Values maps physical column names to values.
type CustomFact struct {
	Table  string
	Values map[string]any
}

// customColumns lists the writable columns of each custom table created by
// the migrations.
var customColumns = map[string]map[string]bool{
	"cash_states":       {"owner_key": true, "pennies": true, "ccy_code": true, "issuer_key": true, "issuer_ref": true},
	"cash_states_v2":    {"ccy_code": true, "quantity": true},
	"dummy_deal_states": {"deal_reference": true, "external_id": true, "uuid": true},
}

// RecordState inserts a new unconsumed state and its facts in a single
// transaction.
func (s *Store) RecordState(ctx context.Context, st RecordedState) error {
	if st.Ref.TxHash == "" {
		return fmt.Errorf("record state: empty transaction hash")
	}
	if st.ContractStateClassName == "" {
		return fmt.Errorf("record state %s: empty contract state class name", st.Ref)
	}
	payload := st.Payload
	if payload == nil {
		payload = []byte{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vault_states (
			transaction_id, output_index, contract_state_class_name, contract_state,
			notary_name, notary_key, recorded_timestamp, state_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, st.Ref.TxHash, st.Ref.Index, st.ContractStateClassName, payload,
		nullString(st.Notary.Identity()), nullString(st.Notary.Key),
		st.RecordedAt.UnixNano(), criteria.StatusUnconsumed.String())
	if err != nil {
		return fmt.Errorf("insert state %s: %w", st.Ref, err)
	}

	if st.Fungible != nil {
		if err := insertFungible(ctx, tx, st.Ref, *st.Fungible); err != nil {
			return err
		}
	}
	if st.Linear != nil {
		if err := insertLinear(ctx, tx, st.Ref, *st.Linear); err != nil {
			return err
		}
	}
	for _, fact := range st.Custom {
		if err := insertCustom(ctx, tx, st.Ref, fact); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state %s: %w", st.Ref, err)
	}
	s.log.Debug().Stringer("ref", st.Ref).Str("type", st.ContractStateClassName).Msg("state recorded")
	return nil
}

func insertFungible(ctx context.Context, tx *sql.Tx, ref criteria.StateRef, f FungibleFact) error {
	owner, err := upsertParty(ctx, tx, f.Owner)
	if err != nil {
		return err
	}
	issuer, err := upsertParty(ctx, tx, f.Issuer)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO vault_fungible_states (
			transaction_id, output_index, owner_party_id, quantity, issuer_party_id, issuer_reference
		) VALUES (?, ?, ?, ?, ?, ?)
	`, ref.TxHash, ref.Index, owner, f.Quantity, issuer, f.IssuerRef)
	if err != nil {
		return fmt.Errorf("insert fungible facts %s: %w", ref, err)
	}
	return insertParticipants(ctx, tx, "vault_fungible_participants", ref, f.Participants)
}

func insertLinear(ctx context.Context, tx *sql.Tx, ref criteria.StateRef, l LinearFact) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO vault_linear_states (
			transaction_id, output_index, uuid, external_id, deal_reference
		) VALUES (?, ?, ?, ?, ?)
	`, ref.TxHash, ref.Index, l.LinearID.ID.String(), nullString(l.LinearID.ExternalID), nullString(l.DealReference))
	if err != nil {
		return fmt.Errorf("insert linear facts %s: %w", ref, err)
	}
	return insertParticipants(ctx, tx, "vault_linear_participants", ref, l.Participants)
}

// insertParticipants writes one row per distinct participant. table is one
// of the two participant tables, never caller input.
func insertParticipants(ctx context.Context, tx *sql.Tx, table string, ref criteria.StateRef, parties []criteria.Party) error {
	seen := make(map[int64]bool)
	for _, p := range parties {
		id, err := upsertParty(ctx, tx, p)
		if err != nil {
			return err
		}
		if !id.Valid || seen[id.Int64] {
			continue
		}
		seen[id.Int64] = true
		query := fmt.Sprintf("INSERT INTO %s (transaction_id, output_index, party_id) VALUES (?, ?, ?)", table)
		if _, err := tx.ExecContext(ctx, query, ref.TxHash, ref.Index, id.Int64); err != nil {
			return fmt.Errorf("insert participant %s of %s: %w", p, ref, err)
		}
	}
	return nil
}

// upsertParty returns the id of the party row, creating it if needed.
// A party without identity yields NULL.
func upsertParty(ctx context.Context, tx *sql.Tx, p criteria.Party) (sql.NullInt64, error) {
	name := p.Identity()
	if name == "" {
		return sql.NullInt64{}, nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO vault_parties (name, key) VALUES (?, ?)
		ON CONFLICT (name, key) DO NOTHING
	`, name, p.Key)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("upsert party %s: %w", name, err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT party_id FROM vault_parties WHERE name = ? AND key = ?`, name, p.Key).Scan(&id)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("lookup party %s: %w", name, err)
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}

func insertCustom(ctx context.Context, tx *sql.Tx, ref criteria.StateRef, fact CustomFact) error {
	allowed, ok := customColumns[fact.Table]
	if !ok {
		return fmt.Errorf("insert custom facts %s: unknown table %q", ref, fact.Table)
	}

	cols := make([]string, 0, len(fact.Values))
	for col := range fact.Values {
		if !allowed[col] {
			return fmt.Errorf("insert custom facts %s: table %s has no column %q", ref, fact.Table, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	names := []string{"transaction_id", "output_index"}
	args := []any{ref.TxHash, ref.Index}
	for _, col := range cols {
		names = append(names, col)
		args = append(args, fact.Values[col])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?%s)",
		fact.Table, strings.Join(names, ", "), strings.Repeat(", ?", len(names)-1))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s row for %s: %w", fact.Table, ref, err)
	}
	return nil
}

// Consume marks an unconsumed state consumed at the given time.
func (s *Store) Consume(ctx context.Context, ref criteria.StateRef, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vault_states
		SET state_status = ?, consumed_timestamp = ?
		WHERE transaction_id = ? AND output_index = ? AND state_status = ?
	`, criteria.StatusConsumed.String(), at.UnixNano(), ref.TxHash, ref.Index, criteria.StatusUnconsumed.String())
	if err != nil {
		return fmt.Errorf("consume %s: %w", ref, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume %s: %w", ref, err)
	}
	if n == 0 {
		return fmt.Errorf("consume %s: %w", ref, ErrNotFound)
	}
	s.log.Debug().Stringer("ref", ref).Msg("state consumed")
	return nil
}

// SoftLock reserves unconsumed states under lockID. Either every ref is
// locked or none is. Re-locking under the same id is allowed.
func (s *Store) SoftLock(ctx context.Context, lockID string, refs []criteria.StateRef, at time.Time) error {
	if lockID == "" {
		return fmt.Errorf("soft lock: empty lock id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ref := range refs {
		var status string
		var current sql.NullString
		err := tx.QueryRowContext(ctx, `
			SELECT state_status, lock_id FROM vault_states
			WHERE transaction_id = ? AND output_index = ?
		`, ref.TxHash, ref.Index).Scan(&status, &current)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && status != criteria.StatusUnconsumed.String()) {
			return fmt.Errorf("soft lock %s: %w", ref, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("soft lock %s: %w", ref, err)
		}
		if current.Valid && current.String != lockID {
			return fmt.Errorf("soft lock %s: %w", ref, ErrLocked)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE vault_states SET lock_id = ?, lock_timestamp = ?
			WHERE transaction_id = ? AND output_index = ?
		`, lockID, at.UnixNano(), ref.TxHash, ref.Index)
		if err != nil {
			return fmt.Errorf("soft lock %s: %w", ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit soft lock: %w", err)
	}
	s.log.Debug().Str("lock_id", lockID).Int("states", len(refs)).Msg("states soft-locked")
	return nil
}

// ReleaseLock clears lockID from every state holding it. Returns the number
// of states released.
func (s *Store) ReleaseLock(ctx context.Context, lockID string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vault_states SET lock_id = NULL, lock_timestamp = ?
		WHERE lock_id = ?
	`, at.UnixNano(), lockID)
	if err != nil {
		return 0, fmt.Errorf("release lock %s: %w", lockID, err)
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
