package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/calc/internal/engine"
)

// Mismatch is one difference between a case's expect clause and the
// engine's actual outcome.
type Mismatch struct {
	Case     string `json:"case"`
	Field    string `json:"field"` // "ok", "outputs.<name>" or "errors"
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Error implements the error interface.
func (m *Mismatch) Error() string {
	return fmt.Sprintf("case %q: %s: expected %s, got %s", m.Case, m.Field, m.Expected, m.Actual)
}

// checkCase compares a Calculate result against the case's expectation.
func checkCase(c Case, res *engine.Result) []*Mismatch {
	var out []*Mismatch
	add := func(field, expected, actual string) {
		out = append(out, &Mismatch{Case: c.Name, Field: field, Expected: expected, Actual: actual})
	}

	if want := *c.Expect.OK; want != res.OK {
		actual := fmt.Sprint(res.OK)
		if !res.OK {
			actual += " " + formatErrors(res.Errors)
		}
		add("ok", fmt.Sprint(want), actual)
		// Outputs and errors are only compared when the outcome matches.
		return out
	}

	rendered := res.Rendered()
	names := make([]string, 0, len(c.Expect.Outputs))
	for name := range c.Expect.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		want := string(c.Expect.Outputs[name])
		got, ok := rendered[name]
		switch {
		case !ok:
			add("outputs."+name, fmt.Sprintf("%q", want), "no such output")
		case got != want:
			add("outputs."+name, fmt.Sprintf("%q", want), fmt.Sprintf("%q", got))
		}
	}

	if len(c.Expect.Errors) > 0 && !errorsMatch(c.Expect.Errors, res.Errors) {
		want := make([]engine.CalcError, len(c.Expect.Errors))
		for i, e := range c.Expect.Errors {
			want[i] = engine.CalcError{Entity: e.Name, Message: e.Message}
		}
		add("errors", formatErrors(want), formatErrors(res.Errors))
	}
	return out
}

func errorsMatch(want []ExpectedError, got []engine.CalcError) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i].Name != got[i].Entity || want[i].Message != got[i].Message {
			return false
		}
	}
	return true
}

// formatErrors renders errors as "[name: message, ...]".
func formatErrors(errs []engine.CalcError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
