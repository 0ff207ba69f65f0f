package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pagingScenario = `name: paging
description: "Pages walk the default ref order"
states:
  - { ref: "p1:0", type: DummyLinearContract.State, linear: { uuid: 44444444-4444-4444-8444-444444444444 } }
  - { ref: "p1:1", type: DummyLinearContract.State, linear: { uuid: 55555555-5555-4555-8555-555555555555 } }
  - { ref: "p2:0", type: DummyLinearContract.State, linear: { uuid: 66666666-6666-4666-8666-666666666666 } }
queries:
  - name: first_page
    query:
      criteria: { vault: {} }
      page: { number: 0, size: 2 }
    expect:
      refs: ["p1:0", "p1:1"]
      total: 3
  - name: past_end
    query:
      criteria: { vault: {} }
      page: { number: 2, size: 2 }
    expect:
      error: PAGINATION_BOUNDS
`

const wrongTotalScenario = `name: wrong_total
description: "Expects one state too many"
states:
  - { ref: "w1:0", type: DummyContract.State }
queries:
  - name: everything
    query:
      criteria: { vault: {} }
    expect:
      refs: ["w1:0"]
      total: 2
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTestCommand_Pass(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "paging.yaml", pagingScenario)

	stdout, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ paging")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommand_Failure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "paging.yaml", pagingScenario)
	writeScenario(t, dir, "wrong_total.yaml", wrongTotalScenario)

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✓ paging")
	assert.Contains(t, stdout, "✗ wrong_total")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nunknown: true\n")

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommand_Golden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "paging.yaml", pagingScenario)
	goldenPath := filepath.Join(dir, "golden", "paging.golden")

	stdout, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ paging (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario": "paging"`)
	assert.Contains(t, string(golden), "requested more results than available [2 * 2 >= 3]")

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err, "outcomes are deterministic across runs")

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0o644))
	stdout, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "do not match golden file")
}

func TestTestCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "paging.yaml", pagingScenario)
	writeScenario(t, dir, "wrong_total.yaml", wrongTotalScenario)

	stdout, _, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "1 scenario(s) failed", resp.Error.Message)
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "paging.yaml", pagingScenario)
	writeScenario(t, dir, "wrong_total.yaml", wrongTotalScenario)

	stdout, _, err := execute(t, "test", dir, "--filter", "pag*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")

	stdout, _, err = execute(t, "test", dir, "--filter", "nothing-*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", "")
	writeScenario(t, dir, "b.yml", "")
	writeScenario(t, dir, "notes.md", "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeScenario(t, filepath.Join(dir, "nested"), "c.yaml", "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
	assert.Nil(t, files)
}
