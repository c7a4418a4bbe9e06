package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/calc/internal/ir"
)

// visitState is the dry-run state of one variable.
type visitState int

const (
	unvisited visitState = iota
	inProgress
	cleared
	failed
)

// dryRunner proves, without evaluating anything, that every variable an
// output depends on can be resolved and that no variable depends on itself.
//
// The algorithm:
//  1. Required inputs start Cleared; their values always come from input
//  2. Every other name moves Unvisited -> InProgress -> Cleared | Failed,
//     memoized across the whole pass
//  3. Reaching a name that is already InProgress is a cycle: the current
//     path plus that name is reported, every InProgress name is marked
//     Failed and the path is cleared
//
// A dryRunner implements expr.DryRun and is used once, by Build.
type dryRunner struct {
	vars  map[string]Variable
	state map[string]visitState
	path  []string
	diags []Diagnostic
}

func newDryRunner(vars map[string]Variable) *dryRunner {
	d := &dryRunner{
		vars:  vars,
		state: make(map[string]visitState, len(vars)),
	}
	for name, v := range vars {
		if v.Role == ir.RoleRequiredInput {
			d.state[name] = cleared
		}
	}
	return d
}

// IsEvaluatable reports whether name can be evaluated.
func (d *dryRunner) IsEvaluatable(name string) bool {
	switch d.state[name] {
	case cleared:
		return true
	case failed:
		return false
	case inProgress:
		d.reportCycle(name)
		return false
	}

	v, ok := d.vars[name]
	if !ok || v.Rule == nil {
		d.state[name] = failed
		return false
	}

	d.state[name] = inProgress
	d.path = append(d.path, name)
	ok = v.Rule.IsReady(d)
	d.leave(name)

	if ok && d.state[name] == inProgress {
		d.state[name] = cleared
		return true
	}
	d.state[name] = failed
	return false
}

// leave pops name from the path. The path may already have been cleared by
// a cycle further down.
func (d *dryRunner) leave(name string) {
	if n := len(d.path); n > 0 && d.path[n-1] == name {
		d.path = d.path[:n-1]
	}
}

func (d *dryRunner) reportCycle(name string) {
	cycle := append(append([]string(nil), d.path...), name)
	d.diags = append(d.diags, Diagnostic{
		Kind:    KindCircular,
		Code:    ErrCircularDependency,
		Entity:  name,
		Message: fmt.Sprintf("Circular dependency detected: %s", strings.Join(cycle, " -> ")),
	})
	for n, s := range d.state {
		if s == inProgress {
			d.state[n] = failed
		}
	}
	d.path = d.path[:0]
}
