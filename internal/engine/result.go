package engine

import (
	"time"

	"github.com/roach88/calc/internal/ir"
)

// Result is the outcome of one Calculate call.
//
// Exactly one of Outputs and Errors is populated: OK results carry every
// output, failed results carry every logged error and no outputs.
type Result struct {
	RunID          string
	EngineID       string
	DictionaryHash string
	OK             bool
	Inputs         map[string]string
	Outputs        map[string]ir.Value
	Errors         []CalcError
	StartedAt      time.Time
	Duration       time.Duration

	rendered map[string]string
}

// Rendered returns the outputs as text, numbers fixed at their variable's
// precision.
func (r *Result) Rendered() map[string]string {
	out := make(map[string]string, len(r.rendered))
	for k, v := range r.rendered {
		out[k] = v
	}
	return out
}

// Record converts the result into a store audit record.
func (r *Result) Record() ir.RunRecord {
	rec := ir.RunRecord{
		ID:             r.RunID,
		DictionaryHash: r.DictionaryHash,
		EngineID:       r.EngineID,
		OK:             r.OK,
		Inputs:         r.Inputs,
	}
	if r.OK {
		rec.Outputs = r.Rendered()
	}
	for _, e := range r.Errors {
		rec.Errors = append(rec.Errors, ir.RunError{Entity: e.Entity, Message: e.Message})
	}
	return rec
}

// Render formats a value as text. Numbers are fixed to places decimal
// places when places is positive; every other value uses its input form.
func Render(v ir.Value, places int32) string {
	if places > 0 && v.Kind() == ir.KindNumber {
		if d, err := v.Number(); err == nil {
			return d.StringFixed(places)
		}
	}
	return v.String()
}
