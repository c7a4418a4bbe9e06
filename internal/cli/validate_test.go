package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calc/internal/ir"
	"github.com/roach88/calc/internal/testutil"
)

func TestValidate_Valid(t *testing.T) {
	stdout, _, err := execute(t, NewValidateCommand(textOpts()), taxPath)
	require.NoError(t, err)
	assert.Equal(t, "✓ Dictionary valid: income-tax (4 inputs, 3 outputs, 1 validators)\n", stdout)
}

func TestValidate_ValidJSON(t *testing.T) {
	stdout, _, err := execute(t, NewValidateCommand(jsonOpts()), taxPath)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "income-tax", resp.Data.EngineID)
	assert.Equal(t, ir.MustDictionaryHash(testutil.TaxDictionary()), resp.Data.Hash)
}

func TestValidate_NotFound(t *testing.T) {
	stdout, _, err := execute(t, NewValidateCommand(textOpts()), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, stdout, "dictionary not found")
}

func TestValidate_UnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.toml")
	require.NoError(t, os.WriteFile(path, []byte("engineId = 'x'"), 0644))

	_, _, err := execute(t, NewValidateCommand(textOpts()), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeLoadFailed)
}

func TestValidate_Diagnostics(t *testing.T) {
	stdout, stderr, err := execute(t, NewValidateCommand(textOpts()), filepath.Join("testdata", "cycle.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 1 error(s)")
	assert.Contains(t, stdout, "✗ Validation failed")
	assert.Contains(t, stdout, "[E130]")
	assert.Contains(t, stdout, "Circular dependency detected: a -> b -> a")
	assert.Contains(t, stderr, "circular-dependency", "build diagnostics are logged at warn")
}

func TestValidate_DiagnosticsJSON(t *testing.T) {
	stdout, _, err := execute(t, NewValidateCommand(jsonOpts()), filepath.Join("testdata", "cycle.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  CLIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Diagnostics, 1)
	assert.Equal(t, "E130", resp.Error.Code)
	assert.Equal(t, "E130", resp.Data.Diagnostics[0].Code)
}

func TestValidate_CUEPositions(t *testing.T) {
	dir := t.TempDir()
	src := `engineId: "pos"
dataElements: {
	out: {
		type: "OUTPUT"
		dataType: "number"
		calculator: defaultExpression: "1 +"
	}
}
`
	path := filepath.Join(dir, "pos.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	stdout, _, err := execute(t, NewValidateCommand(textOpts()), path)
	require.Error(t, err)
	assert.Contains(t, stdout, "pos.cue:3:")
	assert.Contains(t, stdout, "[E120]")
}
