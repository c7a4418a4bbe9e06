package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioDir writes a scenario against the tax dictionary into a fresh
// directory and returns the directory.
func scenarioDir(t *testing.T, name, cases string) string {
	t.Helper()
	dict, err := filepath.Abs(taxPath)
	require.NoError(t, err)

	dir := t.TempDir()
	content := fmt.Sprintf("name: %s\ndictionary: %s\ncases:\n%s", name, dict, cases)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644))
	return dir
}

const passingCases = `  - name: high
    inputs: { income: 1000000, age: 40 }
    expect: { ok: true, outputs: { tax: "300000.00" } }
`

func TestTest_Pass(t *testing.T) {
	stdout, _, err := execute(t, NewTestCommand(textOpts()), filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ tax (3 cases)")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTest_SingleFileJSON(t *testing.T) {
	stdout, _, err := execute(t, NewTestCommand(jsonOpts()), filepath.Join("testdata", "scenarios", "tax.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, 3, resp.Data.Scenarios[0].Cases)
}

func TestTest_Failure(t *testing.T) {
	dir := scenarioDir(t, "wrong", `  - name: high
    inputs: { income: 1000000, age: 40 }
    expect: { ok: true, outputs: { tax: "1.00" } }
`)

	stdout, _, err := execute(t, NewTestCommand(textOpts()), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ wrong")
	assert.Contains(t, stdout, `case "high": outputs.tax: expected "1.00", got "300000.00"`)
	assert.Contains(t, stdout, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTest_FailureJSON(t *testing.T) {
	dir := scenarioDir(t, "wrong", `  - name: blank
    inputs: {}
    expect: { ok: true }
`)

	stdout, _, err := execute(t, NewTestCommand(jsonOpts()), dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
}

func TestTest_LoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\n"), 0644))

	stdout, _, err := execute(t, NewTestCommand(textOpts()), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTest_GoldenUpdateAndCompare(t *testing.T) {
	dir := scenarioDir(t, "golden_case", passingCases)

	stdout, _, err := execute(t, NewTestCommand(textOpts()), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "golden updated")

	goldenPath := filepath.Join(dir, "golden", "golden_case.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tax":"300000.00"`)

	// The golden directory itself is not scanned for scenarios.
	_, _, err = execute(t, NewTestCommand(textOpts()), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"cases":[],"scenario":"golden_case"}`), 0644))
	stdout, _, err = execute(t, NewTestCommand(textOpts()), dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "snapshot does not match golden file")
}

func TestTest_Filter(t *testing.T) {
	dir := scenarioDir(t, "alpha", passingCases)

	stdout, _, err := execute(t, NewTestCommand(textOpts()), dir, "--filter", "beta*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")

	stdout, _, err = execute(t, NewTestCommand(textOpts()), dir, "--filter", "al*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ alpha")

	_, _, err = execute(t, NewTestCommand(textOpts()), dir, "--filter", "[")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_MissingPath(t *testing.T) {
	_, _, err := execute(t, NewTestCommand(textOpts()), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}
