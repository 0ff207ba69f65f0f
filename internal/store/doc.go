// Package store provides the SQLite-backed vault the query engine reads.
//
// Tables:
//   - vault_states: one row per state, keyed by (transaction_id, output_index)
//   - vault_fungible_states, vault_linear_states: facts of fungible and
//     linear states, keyed by the same state ref
//   - vault_fungible_participants, vault_linear_participants: one row per
//     participant of a state
//   - vault_parties: party identities referenced by the fact tables
//   - cash_states, cash_states_v2, dummy_deal_states: custom mapped schemas
//
// Timestamps are stored as unix nanoseconds. Schema changes are goose
// migrations embedded from migrations/.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout: DefaultBusyTimeout unless overridden
//   - foreign_keys=ON
//
// # Usage
//
//	s, err := store.Open("vault.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	err = s.RecordState(ctx, store.RecordedState{...})
package store
