package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content next to a copy of the tax dictionary and
// returns the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	dict, err := os.ReadFile(filepath.Join("testdata", "tax.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tax.yaml"), dict, 0644))

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario"
dictionary: tax.yaml
cases:
  - name: one
    inputs:
      income: 1000.50
      age: 30
      state:
    expect:
      ok: true
      outputs:
        tax: 200.10
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "tax.yaml"), scenario.Dictionary)
	require.Len(t, scenario.Cases, 1)

	c := scenario.Cases[0]
	assert.Equal(t, map[string]string{"income": "1000.50", "age": "30", "state": ""}, c.inputs())
	assert.Equal(t, Text("200.10"), c.Expect.Outputs["tax"])
	require.NotNil(t, c.Expect.OK)
	assert.True(t, *c.Expect.OK)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty",
			content: ``,
			wantErr: "empty document",
		},
		{
			name:    "unknown field",
			content: "name: x\ndictionary: tax.yaml\ncase: []\n",
			wantErr: "field case not found",
		},
		{
			name:    "missing name",
			content: "dictionary: tax.yaml\ncases: [{name: a, expect: {ok: true}}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing dictionary",
			content: "name: x\ncases: [{name: a, expect: {ok: true}}]\n",
			wantErr: "dictionary is required",
		},
		{
			name:    "dictionary not found",
			content: "name: x\ndictionary: other.yaml\ncases: [{name: a, expect: {ok: true}}]\n",
			wantErr: "dictionary not found",
		},
		{
			name:    "no cases",
			content: "name: x\ndictionary: tax.yaml\ncases: []\n",
			wantErr: "cases list is required",
		},
		{
			name:    "unnamed case",
			content: "name: x\ndictionary: tax.yaml\ncases: [{expect: {ok: true}}]\n",
			wantErr: "cases[0]: name is required",
		},
		{
			name:    "duplicate case",
			content: "name: x\ndictionary: tax.yaml\ncases: [{name: a, expect: {ok: true}}, {name: a, expect: {ok: true}}]\n",
			wantErr: `duplicate case name "a"`,
		},
		{
			name:    "missing ok",
			content: "name: x\ndictionary: tax.yaml\ncases: [{name: a, expect: {}}]\n",
			wantErr: "cases[0].expect: ok is required",
		},
		{
			name:    "errors on success",
			content: "name: x\ndictionary: tax.yaml\ncases: [{name: a, expect: {ok: true, errors: [{name: age, message: m}]}}]\n",
			wantErr: "errors given for a case expected to succeed",
		},
		{
			name:    "outputs on failure",
			content: "name: x\ndictionary: tax.yaml\ncases: [{name: a, expect: {ok: false, outputs: {tax: 1}}}]\n",
			wantErr: "outputs given for a case expected to fail",
		},
		{
			name:    "error without message",
			content: "name: x\ndictionary: tax.yaml\ncases: [{name: a, expect: {ok: false, errors: [{name: age}]}}]\n",
			wantErr: "message is required",
		},
		{
			name:    "nested input",
			content: "name: x\ndictionary: tax.yaml\ncases: [{name: a, inputs: {income: [1, 2]}, expect: {ok: true}}]\n",
			wantErr: "expected a scalar value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeScenario_AbsoluteDictionary(t *testing.T) {
	abs, err := filepath.Abs(filepath.Join("testdata", "tax.yaml"))
	require.NoError(t, err)

	doc := "name: x\ndictionary: " + abs + "\ncases: [{name: a, expect: {ok: false}}]\n"
	s, err := DecodeScenario(strings.NewReader(doc), "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, abs, s.Dictionary)
}
