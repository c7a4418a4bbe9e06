package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calc/internal/engine"
	"github.com/roach88/calc/internal/ir"
	"github.com/roach88/calc/internal/store"
	"github.com/roach88/calc/internal/testutil"
)

func calculateCmd(root *RootOptions, ids ...string) *CalculateOptions {
	if len(ids) == 0 {
		ids = []string{"run-1"}
	}
	return &CalculateOptions{RootOptions: root, RunIDs: engine.NewFixedGenerator(ids...)}
}

func TestCalculate_OK(t *testing.T) {
	stdout, _, err := execute(t, newCalculateCommand(calculateCmd(textOpts())),
		taxPath, "--input", "income=1000000", "-i", "age=40")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "calculate_ok", []byte(stdout))
}

func TestCalculate_Failed(t *testing.T) {
	stdout, _, err := execute(t, newCalculateCommand(calculateCmd(textOpts())), taxPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "calculation failed with 2 error(s)")
	newGoldie(t).Assert(t, "calculate_failed", []byte(stdout))
}

func TestCalculate_JSON(t *testing.T) {
	stdout, _, err := execute(t, newCalculateCommand(calculateCmd(jsonOpts())),
		taxPath, "--input", "income=1000000", "--input", "age=40")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CalculationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllOK)
	assert.Equal(t, "run-1", resp.Data.RunID)
	assert.Equal(t, map[string]string{"bracket": "high", "surcharge": "15000.00", "tax": "300000.00"}, resp.Data.Outputs)
}

func TestCalculate_FailedJSON(t *testing.T) {
	stdout, _, err := execute(t, newCalculateCommand(calculateCmd(jsonOpts())),
		taxPath, "--input", "income=10", "--input", "age=40", "--input", "deductions=20")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string            `json:"status"`
		Data   CalculationResult `json:"data"`
		Error  CLIError          `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.AllOK)
	assert.Empty(t, resp.Data.Outputs)
	assert.Equal(t, ErrCodeCalculation, resp.Error.Code)
	assert.Equal(t, "validation: Deductions cannot exceed income", resp.Error.Message)
}

func TestCalculate_InputsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"income": 1000000, "age": 70, "state": "TN"}`), 0644))

	stdout, _, err := execute(t, newCalculateCommand(calculateCmd(textOpts())),
		taxPath, "--inputs", path, "--input", "age=40")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tax = 300000.00", "flags override the file")
	assert.Contains(t, stdout, "surcharge = 0.00")
}

func TestCalculate_BadInputs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing equals", []string{"--input", "income"}},
		{"empty name", []string{"--input", "=5"}},
		{"missing file", []string{"--inputs", "/nonexistent/inputs.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, newCalculateCommand(calculateCmd(textOpts())), append([]string{taxPath}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, ErrCodeBadInput)
		})
	}
}

func TestCalculate_BadInputsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"income": {"nested": true}}`), 0644))

	_, _, err := execute(t, newCalculateCommand(calculateCmd(textOpts())), taxPath, "--inputs", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid inputs")
}

func TestCalculate_RecordsRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "calc.db")

	_, _, err := execute(t, newCalculateCommand(calculateCmd(textOpts(), "run-1")),
		taxPath, "--input", "income=1000000", "--input", "age=40", "--db", db)
	require.NoError(t, err)
	_, _, err = execute(t, newCalculateCommand(calculateCmd(textOpts(), "run-2")), taxPath, "--db", db)
	require.Error(t, err, "failed runs are recorded too")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	hash := ir.MustDictionaryHash(testutil.TaxDictionary())
	runs, err := st.ListRuns(context.Background(), hash, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.False(t, runs[0].OK)
	assert.Len(t, runs[0].Errors, 2)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, "300000.00", runs[1].Outputs["tax"])
	assert.Equal(t, "1000000", runs[1].Inputs["income"])
}

func TestCalculate_DictionaryErrors(t *testing.T) {
	_, _, err := execute(t, newCalculateCommand(calculateCmd(textOpts())), filepath.Join("testdata", "cycle.yaml"))
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, _, err = execute(t, newCalculateCommand(calculateCmd(textOpts())), "missing.yaml")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
