package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calc/internal/engine"
	"github.com/roach88/calc/internal/function"
	"github.com/roach88/calc/internal/ir"
)

func ptr(b bool) *bool { return &b }

func taxScenario(cases ...Case) *Scenario {
	return &Scenario{
		Name:       "inline",
		Dictionary: filepath.Join("testdata", "tax.yaml"),
		Cases:      cases,
	}
}

func TestRun_Pass(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "tax_brackets.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "%v", result.Failures())
	assert.Equal(t, "tax_brackets", result.Scenario)
	require.Len(t, result.Cases, 5)
	assert.Equal(t, "300000.00", result.Cases[0].Outputs["tax"])
	assert.False(t, result.Cases[3].OK)
	assert.Empty(t, result.Failures())
}

func TestRun_OutputMismatch(t *testing.T) {
	s := taxScenario(Case{
		Name:   "wrong",
		Inputs: map[string]Text{"income": "1000000", "age": "40"},
		Expect: Expectation{OK: ptr(true), Outputs: map[string]Text{
			"tax":     "300000",
			"bracket": "high",
			"missing": "1",
		}},
	})

	result, err := Run(s)
	require.NoError(t, err)
	require.False(t, result.Pass)

	m := result.Failures()
	require.Len(t, m, 2)
	assert.Equal(t, "outputs.missing", m[0].Field)
	assert.Equal(t, "no such output", m[0].Actual)
	assert.Equal(t, "outputs.tax", m[1].Field)
	assert.Equal(t, `"300000"`, m[1].Expected)
	assert.Equal(t, `"300000.00"`, m[1].Actual)
	assert.Equal(t, `case "wrong": outputs.tax: expected "300000", got "300000.00"`, m[1].Error())
}

func TestRun_OutcomeMismatch(t *testing.T) {
	s := taxScenario(Case{
		Name:   "expected success",
		Inputs: map[string]Text{"income": "abc", "age": "40"},
		Expect: Expectation{OK: ptr(true), Outputs: map[string]Text{"tax": "1"}},
	})

	result, err := Run(s)
	require.NoError(t, err)

	m := result.Failures()
	require.Len(t, m, 1, "outputs are not compared once the outcome differs")
	assert.Equal(t, "ok", m[0].Field)
	assert.Equal(t, "true", m[0].Expected)
	assert.Equal(t, "false [income: Income must be an amount between 0 and 10000000]", m[0].Actual)
}

func TestRun_ErrorMismatch(t *testing.T) {
	s := taxScenario(Case{
		Name:   "order matters",
		Inputs: map[string]Text{},
		Expect: Expectation{OK: ptr(false), Errors: []ExpectedError{
			{Name: "income", Message: "Income must be an amount between 0 and 10000000"},
			{Name: "age", Message: "Age must be a whole number between 0 and 150"},
		}},
	})

	result, err := Run(s)
	require.NoError(t, err)

	m := result.Failures()
	require.Len(t, m, 1)
	assert.Equal(t, "errors", m[0].Field)
	assert.True(t, strings.HasPrefix(m[0].Actual, "[age: "))
}

func TestRun_OKOnlyFailure(t *testing.T) {
	s := taxScenario(Case{
		Name:   "any failure",
		Inputs: map[string]Text{"income": "-1", "age": "40"},
		Expect: Expectation{OK: ptr(false)},
	})

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, []engine.CalcError{{Entity: "income", Message: "Income must be an amount between 0 and 10000000"}}, result.Cases[0].Errors)
}

func TestRun_CompileFailure(t *testing.T) {
	s := &Scenario{
		Name:       "broken",
		Dictionary: filepath.Join("..", "compiler", "testdata", "does-not-exist.yaml"),
		Cases:      []Case{{Name: "a", Expect: Expectation{OK: ptr(true)}}},
	}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load dictionary")
}

func TestRun_CustomFunctions(t *testing.T) {
	twice := &function.Function{
		Name:       "twice",
		ReturnType: ir.Number,
		ParamTypes: []ir.ValueType{ir.Number},
		Eval: func(args []ir.Value) (ir.Value, error) {
			return args[0], nil
		},
	}
	s := taxScenario(Case{Name: "a", Expect: Expectation{OK: ptr(false)}})

	_, err := Run(s, WithFunctions(twice))
	require.NoError(t, err)

	_, err = Run(s, WithFunctions(twice, twice))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build function registry")
}
