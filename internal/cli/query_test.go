package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vaultq/internal/criteria"
)

func TestQuery_Text(t *testing.T) {
	db := seededDatabase(t)

	stdout, _, err := execute(t, "query", "--database", db, "--criteria", "testdata/queries/unconsumed.yaml")
	require.NoError(t, err)

	assert.Contains(t, stdout, "REF")
	assert.Contains(t, stdout, "c1(0)")
	assert.Contains(t, stdout, "d1(0)")
	assert.NotContains(t, stdout, "c1(1)", "soft-locked states are excluded by default")
	assert.NotContains(t, stdout, "c2(0)", "consumed states are excluded by default")
	assert.Contains(t, stdout, "2 of 2 state(s), page 0 (size 200)")
}

func TestQuery_PageSizeFromConfig(t *testing.T) {
	db := seededDatabase(t)
	t.Setenv("VAULTQ_PAGE_SIZE", "1")

	stdout, _, err := execute(t, "query", "--database", db, "--criteria", "testdata/queries/unconsumed.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 of 2 state(s), page 0 (size 1)")
}

func TestQuery_PageFlags(t *testing.T) {
	db := seededDatabase(t)

	stdout, _, err := execute(t, "query", "--database", db, "--criteria", "testdata/queries/unconsumed.yaml",
		"--page", "1", "--size", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "d1(0)")
	assert.NotContains(t, stdout, "c1(0)")
	assert.Contains(t, stdout, "1 of 2 state(s), page 1 (size 1)")
}

func TestQuery_CountOnly(t *testing.T) {
	db := seededDatabase(t)

	stdout, _, err := execute(t, "query", "--database", db, "--criteria", "testdata/queries/unconsumed.yaml", "--size", "0")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "REF")
	assert.Contains(t, stdout, "0 of 2 state(s)")
}

func TestQuery_SortOverride(t *testing.T) {
	db := seededDatabase(t)

	stdout, _, err := execute(t, "query", "--database", db, "--criteria", "testdata/queries/unconsumed.yaml",
		"--sort", "VaultStates.recordedTime:desc")
	require.NoError(t, err)

	linear := strings.Index(stdout, "d1(0)")
	cash := strings.Index(stdout, "c1(0)")
	require.NotEqual(t, -1, linear)
	require.NotEqual(t, -1, cash)
	assert.Less(t, linear, cash, "latest recorded state first")
}

func TestQuery_ContractTypeFlag(t *testing.T) {
	db := seededDatabase(t)

	stdout, _, err := execute(t, "query", "--database", db, "--criteria", "testdata/queries/unconsumed.yaml",
		"--type", "LinearState")
	require.NoError(t, err)
	assert.Contains(t, stdout, "d1(0)")
	assert.NotContains(t, stdout, "c1(0)")
	assert.Contains(t, stdout, "1 of 1 state(s)")
}

func TestQuery_CUEDocument(t *testing.T) {
	db := seededDatabase(t)

	stdout, _, err := execute(t, "query", "--database", db, "--criteria", "testdata/queries/alice_cash.cue")
	require.NoError(t, err)
	assert.Contains(t, stdout, "c1(0)")
	assert.NotContains(t, stdout, "c2(0)")
	assert.Contains(t, stdout, "1 of 1 state(s), page 0 (size 10)")
}

func TestQuery_JSONWithCustomSchema(t *testing.T) {
	db := seededDatabase(t)

	stdout, _, err := execute(t, "query", "--database", db, "--schemas", "cash.v2",
		"--criteria", "testdata/queries/usd.yaml", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			States []struct {
				Ref criteria.StateRef `json:"ref"`
			} `json:"states"`
			StatesMetadata []struct {
				Status string `json:"status"`
			} `json:"states_metadata"`
			TotalStatesAvailable int `json:"total_states_available"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.TotalStatesAvailable)
	require.Len(t, resp.Data.States, 2)
	assert.Equal(t, criteria.StateRef{TxHash: "c1", Index: 0}, resp.Data.States[0].Ref, "larger quantity first")
	assert.Equal(t, criteria.StateRef{TxHash: "c2", Index: 0}, resp.Data.States[1].Ref)
	assert.Equal(t, "CONSUMED", resp.Data.StatesMetadata[1].Status)
}

func TestQuery_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "custom schema not registered",
			args:     []string{"--criteria", "testdata/queries/usd.yaml"},
			wantCode: ErrCodeUnresolvable,
		},
		{
			name:     "between with one value",
			args:     []string{"--criteria", "testdata/queries/bad_between.yaml"},
			wantCode: ErrCodeMalformed,
			wantMsg:  "BETWEEN",
		},
		{
			name:     "page past the end",
			args:     []string{"--criteria", "testdata/queries/unconsumed.yaml", "--page", "5", "--size", "10"},
			wantCode: ErrCodeBounds,
			wantMsg:  "requested more results than available [10 * 5 >= 2]",
		},
		{
			name:     "page size over the maximum",
			args:     []string{"--criteria", "testdata/queries/unconsumed.yaml", "--size", "513"},
			wantCode: ErrCodeBounds,
			wantMsg:  "maximum page size is 512",
		},
		{
			name:     "sort on an entity the criteria never joined",
			args:     []string{"--criteria", "testdata/queries/unconsumed.yaml", "--sort", "VaultFungibleStates.quantity"},
			wantCode: ErrCodeUnsupported,
			wantMsg:  "missing root entity: VaultFungibleStates",
		},
		{
			name:     "bad sort term",
			args:     []string{"--criteria", "testdata/queries/unconsumed.yaml", "--sort", "recordedTime"},
			wantCode: ErrCodeMalformed,
			wantMsg:  "expected Entity.attribute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := seededDatabase(t)
			args := append([]string{"query", "--database", db}, tt.args...)

			stdout, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, stdout, "Error ["+tt.wantCode+"]")
			if tt.wantMsg != "" {
				assert.Contains(t, stdout, tt.wantMsg)
			}
		})
	}
}

func TestQuery_RejectedJSON(t *testing.T) {
	db := seededDatabase(t)

	stdout, _, err := execute(t, "query", "--database", db, "--criteria", "testdata/queries/unconsumed.yaml",
		"--page", "3", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBounds, resp.Error.Code)
	assert.Equal(t, map[string]any{"kind": "PAGINATION_BOUNDS"}, resp.Error.Details)
}

func TestQuery_MissingCriteriaFile(t *testing.T) {
	db := seededDatabase(t)

	_, _, err := execute(t, "query", "--database", db, "--criteria", "testdata/queries/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "criteria file not found")
}

func TestQuery_CriteriaRequired(t *testing.T) {
	_, _, err := execute(t, "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "criteria" not set`)
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		name    string
		terms   []string
		want    []criteria.SortColumn
		wantErr string
	}{
		{
			name:  "default direction",
			terms: []string{"VaultStates.recordedTime"},
			want:  []criteria.SortColumn{{Entity: "VaultStates", Column: "recordedTime"}},
		},
		{
			name:  "dotted entity name",
			terms: []string{"CashSchemaV2.PersistentCashState.quantity:DESC", "VaultStates.txId:asc"},
			want: []criteria.SortColumn{
				{Entity: "CashSchemaV2.PersistentCashState", Column: "quantity", Direction: criteria.Desc},
				{Entity: "VaultStates", Column: "txId", Direction: criteria.Asc},
			},
		},
		{name: "no entity", terms: []string{"quantity"}, wantErr: "expected Entity.attribute"},
		{name: "no attribute", terms: []string{"VaultStates."}, wantErr: "expected Entity.attribute"},
		{name: "bad direction", terms: []string{"VaultStates.txId:up"}, wantErr: `unknown sort direction "up"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSort(tt.terms)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Columns)
		})
	}
}
