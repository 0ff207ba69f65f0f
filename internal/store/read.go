package store

import (
	"context"
	"fmt"
)

// DistinctContractStateTypes returns the contract state class names present
// in the vault, sorted. Consumed states count.
func (s *Store) DistinctContractStateTypes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT contract_state_class_name
		FROM vault_states
		ORDER BY contract_state_class_name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query contract state types: %w", err)
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan contract state type: %w", err)
		}
		types = append(types, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contract state types: %w", err)
	}
	return types, nil
}

// CountStates returns the number of rows in vault_states.
func (s *Store) CountStates(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vault_states").Scan(&n); err != nil {
		return 0, fmt.Errorf("count states: %w", err)
	}
	return n, nil
}
