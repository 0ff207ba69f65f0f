package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/cash_owners.yaml")
	require.NoError(t, err)

	assert.Equal(t, "cash_owners", s.Name)
	assert.Equal(t, []string{"cash.v2"}, s.Schemas)
	require.NotNil(t, s.Epoch)
	assert.Len(t, s.States, 5)
	assert.True(t, s.States[0].Consumed)
	assert.Equal(t, "lock-1", s.States[3].Lock)
	require.NotNil(t, s.States[1].Fungible)
	assert.Equal(t, []string{"Alice Corp", "Bank"}, s.States[1].Fungible.Participants)

	first := s.Queries[0]
	assert.Equal(t, "unconsumed_default", first.Name)
	require.NotNil(t, first.Query.Criteria)
	require.NotNil(t, first.Query.Criteria.Vault)
	assert.Equal(t, []string{"tx1:0", "tx1:1", "tx3:0"}, first.Expect.Refs)
	require.NotNil(t, first.Expect.Total)
	assert.Equal(t, 3, *first.Expect.Total)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	_, err := LoadScenario("testdata/invalid/unknown_field.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects")
}

func TestLoadScenario_BadRef(t *testing.T) {
	_, err := LoadScenario("testdata/invalid/bad_ref.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
	assert.Contains(t, err.Error(), "tx1")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Validation(t *testing.T) {
	const query = `
    query:
      criteria: { vault: {} }
`
	testCases := []struct {
		name    string
		content string
		want    string
	}{
		{"missing name", "description: d\nqueries:\n  - name: q" + query, "name is required"},
		{"missing description", "name: n\nqueries:\n  - name: q" + query, "description is required"},
		{"no queries", "name: n\ndescription: d\nqueries: []\n", "queries list is required"},
		{"unknown schema", "name: n\ndescription: d\nschemas: [bond.v1]\nqueries:\n  - name: q" + query, "bond.v1"},
		{"unnamed query", "name: n\ndescription: d\nqueries:\n  - name: \"\"" + query, "queries[0]: name is required"},
		{"duplicate query", "name: n\ndescription: d\nqueries:\n  - name: q" + query + "  - name: q" + query, "duplicate name"},
		{"unknown error kind", "name: n\ndescription: d\nqueries:\n  - name: q" + query + "    expect: { error: OOPS }\n", "OOPS"},
		{"refs with error", "name: n\ndescription: d\nqueries:\n  - name: q" + query + "    expect: { error: STORAGE, refs: [] }\n", "failing query"},
		{"contains without error", "name: n\ndescription: d\nqueries:\n  - name: q" + query + "    expect: { error_contains: x }\n", "requires error"},
		{"bad expected ref", "name: n\ndescription: d\nqueries:\n  - name: q" + query + "    expect: { refs: [nope] }\n", "refs[0]"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
