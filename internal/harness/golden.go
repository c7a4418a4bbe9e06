package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/calc/internal/engine"
	"github.com/roach88/calc/internal/ir"
)

// Snapshot captures what a scenario computed, independent of its
// expectations. It is serialized as canonical JSON for deterministic
// comparison.
type Snapshot struct {
	Scenario string         `json:"scenario"`
	Cases    []CaseSnapshot `json:"cases"`
}

// CaseSnapshot is the engine outcome of one case.
type CaseSnapshot struct {
	Name    string             `json:"name"`
	OK      bool               `json:"ok"`
	Outputs map[string]string  `json:"outputs,omitempty"`
	Errors  []engine.CalcError `json:"errors,omitempty"`
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(r *Result) Snapshot {
	s := Snapshot{Scenario: r.Scenario, Cases: make([]CaseSnapshot, len(r.Cases))}
	for i, c := range r.Cases {
		s.Cases[i] = CaseSnapshot{Name: c.Name, OK: c.OK, Outputs: c.Outputs, Errors: c.Errors}
	}
	return s
}

// MarshalCanonical serializes the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
