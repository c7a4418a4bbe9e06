package compiler

import (
	"fmt"
	"sort"

	"github.com/roach88/calc/internal/expr"
	"github.com/roach88/calc/internal/ir"
	"github.com/roach88/calc/internal/schema"
)

// Variable is the frozen definition of one named calculation unit.
//
// INVARIANTS:
//   - Parser is set iff Role is an input role
//   - Rule is nil iff Role is RoleRequiredInput
//   - Rule.Type() equals Type when Rule is set
type Variable struct {
	Name      string
	Role      ir.ElementRole
	Type      ir.ValueType
	Parser    schema.Parser
	Rule      expr.Node
	Precision int32  // places computed numbers are rounded to; 0 keeps full precision
	ErrorID   string // message reported when input text is rejected
}

// Declarations is the first build stage: every variable's name, role and
// type, without rules. Rules may reference any declared name, so they are
// resolved only after every declaration is known.
type Declarations struct {
	vars map[string]*Variable
}

// NewDeclarations returns an empty first stage.
func NewDeclarations() *Declarations {
	return &Declarations{vars: make(map[string]*Variable)}
}

// Declare adds a variable without a rule.
func (d *Declarations) Declare(v Variable) error {
	if _, dup := d.vars[v.Name]; dup {
		return fmt.Errorf("variable %q declared twice", v.Name)
	}
	if v.Role.IsInput() != (v.Parser != nil) {
		return fmt.Errorf("variable %q: an input needs a parser and only an input may have one", v.Name)
	}
	v.Rule = nil
	d.vars[v.Name] = &v
	return nil
}

// VariableType returns the declared type of name.
func (d *Declarations) VariableType(name string) (ir.ValueType, bool) {
	v, ok := d.vars[name]
	if !ok {
		return ir.ValueType{}, false
	}
	return v.Type, true
}

// Role returns the declared role of name.
func (d *Declarations) Role(name string) (ir.ElementRole, bool) {
	v, ok := d.vars[name]
	if !ok {
		return "", false
	}
	return v.Role, true
}

// Rules starts the second build stage.
func (d *Declarations) Rules() *Rules {
	return &Rules{decls: d, rules: make(map[string]expr.Node)}
}

// Rules is the second build stage: a rule attached to each declared
// variable that needs one.
type Rules struct {
	decls *Declarations
	rules map[string]expr.Node
}

// Attach sets the rule of a declared variable.
//
// Attaching twice, attaching to an undeclared name, and attaching to a
// required input are all build defects, reported as *AttachError.
func (r *Rules) Attach(name string, rule expr.Node) error {
	v, ok := r.decls.vars[name]
	switch {
	case !ok:
		return &AttachError{Name: name, Message: "variable is not declared"}
	case v.Role == ir.RoleRequiredInput:
		return &AttachError{Name: name, Message: "a required input takes its value from input only"}
	case rule == nil:
		return &AttachError{Name: name, Message: "rule is nil"}
	case rule.Type() != v.Type:
		return &AttachError{Name: name, Message: fmt.Sprintf("rule type %s differs from declared type %s", rule.Type(), v.Type)}
	}
	if _, dup := r.rules[name]; dup {
		return &AttachError{Name: name, Message: "rule already attached"}
	}
	r.rules[name] = rule
	return nil
}

// Freeze combines both stages into immutable variables, keyed by name.
// Variables that need a rule but never received one are left without;
// the dry run reports them as not evaluatable.
func (r *Rules) Freeze() map[string]Variable {
	out := make(map[string]Variable, len(r.decls.vars))
	for name, v := range r.decls.vars {
		frozen := *v
		frozen.Rule = r.rules[name]
		out[name] = frozen
	}
	return out
}

// AttachError reports a broken two-stage build invariant.
type AttachError struct {
	Name    string
	Message string
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach rule to %q: %s", e.Name, e.Message)
}

func namesWithRole(vars map[string]Variable, roles ...ir.ElementRole) []string {
	var names []string
	for name, v := range vars {
		for _, r := range roles {
			if v.Role == r {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}
