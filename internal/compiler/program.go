package compiler

import (
	"sort"

	"github.com/roach88/calc/internal/expr"
)

// Program is a compiled dictionary: frozen variables, inter-field
// validators and message texts. A Program is immutable and may be shared by
// any number of engines and goroutines.
type Program struct {
	engineID   string
	hash       string
	vars       map[string]Variable
	inputs     []string
	outputs    []string
	validators []Check
	messages   map[string]string
}

// Check is a compiled inter-field validator.
type Check struct {
	Rule      expr.Node // boolean
	MessageID string
}

// EngineID returns the dictionary's engine identifier.
func (p *Program) EngineID() string { return p.engineID }

// Hash returns the content hash of the dictionary the program was built
// from.
func (p *Program) Hash() string { return p.hash }

// Variable returns the definition of name.
func (p *Program) Variable(name string) (Variable, bool) {
	v, ok := p.vars[name]
	return v, ok
}

// Variables returns every definition sorted by name.
func (p *Program) Variables() []Variable {
	names := make([]string, 0, len(p.vars))
	for name := range p.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Variable, len(names))
	for i, name := range names {
		out[i] = p.vars[name]
	}
	return out
}

// Inputs returns the names of required and optional inputs, sorted.
func (p *Program) Inputs() []string { return append([]string(nil), p.inputs...) }

// Outputs returns the names of output variables, sorted.
func (p *Program) Outputs() []string { return append([]string(nil), p.outputs...) }

// Checks returns the inter-field validators in declaration order.
func (p *Program) Checks() []Check { return append([]Check(nil), p.validators...) }

// Message translates a message ID. Unknown IDs are returned unchanged.
func (p *Program) Message(id string) string {
	if text, ok := p.messages[id]; ok {
		return text
	}
	return id
}
