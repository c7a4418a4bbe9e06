package harness

import (
	"github.com/roach88/calc/internal/engine"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass is true when every case matched its expect clause.
	Pass bool `json:"pass"`

	// Cases holds one entry per scenario case, in file order.
	Cases []CaseResult `json:"cases"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name string `json:"name"`
	Pass bool   `json:"pass"`

	// OK, Outputs and Errors are what the engine produced.
	OK      bool               `json:"ok"`
	Outputs map[string]string  `json:"outputs,omitempty"`
	Errors  []engine.CalcError `json:"errors,omitempty"`

	// Mismatches lists every difference from the expect clause.
	// Empty if Pass is true.
	Mismatches []*Mismatch `json:"mismatches,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Cases:    []CaseResult{},
	}
}

// AddCase appends a case outcome, failing the scenario if the case failed.
func (r *Result) AddCase(c CaseResult) {
	c.Pass = len(c.Mismatches) == 0
	if !c.Pass {
		r.Pass = false
	}
	r.Cases = append(r.Cases, c)
}

// Failures returns every mismatch across all cases.
func (r *Result) Failures() []*Mismatch {
	var out []*Mismatch
	for _, c := range r.Cases {
		out = append(out, c.Mismatches...)
	}
	return out
}
