package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/calc/internal/function"
	"github.com/roach88/calc/internal/ir"
)

// ErrNoValue is returned by Evaluate when a referenced variable could not be
// determined. The reason has already been recorded by the Context, so callers
// must not report it a second time.
var ErrNoValue = errors.New("no value")

// Context resolves variable references during evaluation.
type Context interface {
	// DetermineValue returns the value of a variable, computing it if
	// needed. A failure is recorded by the context and reported as
	// ErrNoValue.
	DetermineValue(name string) (ir.Value, error)
}

// DryRun answers whether a variable can be evaluated, without evaluating it.
type DryRun interface {
	IsEvaluatable(name string) bool
}

// Node is an evaluatable, statically typed expression.
//
// The set of implementations is closed: Literal, VariableRef, Call and
// Conditional. Every node knows its type without being evaluated.
type Node interface {
	// Type returns the static type of the node's value.
	Type() ir.ValueType

	// Evaluate computes the node's value. Evaluation is fail-fast: the
	// first failing sub-expression aborts the whole node.
	Evaluate(ctx Context) (ir.Value, error)

	// IsReady reports whether every variable the node depends on can be
	// evaluated. All children are visited even after one fails, so that
	// every problem is reported in one pass.
	IsReady(dry DryRun) bool

	// String renders the node for diagnostics.
	String() string

	node()
}

// Literal is a constant value.
type Literal struct {
	value ir.Value
}

// NewLiteral creates a literal node.
func NewLiteral(v ir.Value) *Literal {
	return &Literal{value: v}
}

func (*Literal) node() {}

// Value returns the constant.
func (l *Literal) Value() ir.Value { return l.value }

func (l *Literal) Type() ir.ValueType { return l.value.Type() }

func (l *Literal) Evaluate(Context) (ir.Value, error) { return l.value, nil }

func (l *Literal) IsReady(DryRun) bool { return true }

func (l *Literal) String() string {
	if l.value.Kind() == ir.KindString {
		return strconv.Quote(l.value.String())
	}
	return l.value.String()
}

// VariableRef refers to another variable by name.
type VariableRef struct {
	name string
	typ  ir.ValueType
}

// NewVariableRef creates a reference to a variable of the given declared type.
func NewVariableRef(name string, typ ir.ValueType) *VariableRef {
	return &VariableRef{name: name, typ: typ}
}

func (*VariableRef) node() {}

// Name returns the referenced variable.
func (v *VariableRef) Name() string { return v.name }

func (v *VariableRef) Type() ir.ValueType { return v.typ }

func (v *VariableRef) Evaluate(ctx Context) (ir.Value, error) {
	return ctx.DetermineValue(v.name)
}

func (v *VariableRef) IsReady(dry DryRun) bool { return dry.IsEvaluatable(v.name) }

func (v *VariableRef) String() string { return v.name }

// Call applies a function to argument nodes.
type Call struct {
	fn   *function.Function
	args []Node
}

// NewCall creates a call node. The argument types are checked against the
// function signature here, so a Call that exists is always well typed.
func NewCall(fn *function.Function, args ...Node) (*Call, error) {
	types := make([]ir.ValueType, len(args))
	for i, a := range args {
		types[i] = a.Type()
	}
	if err := fn.Check(types); err != nil {
		return nil, err
	}
	return &Call{fn: fn, args: append([]Node(nil), args...)}, nil
}

func (*Call) node() {}

// Function returns the called function.
func (c *Call) Function() *function.Function { return c.fn }

// Args returns the argument nodes.
func (c *Call) Args() []Node { return c.args }

func (c *Call) Type() ir.ValueType { return c.fn.ReturnType }

func (c *Call) Evaluate(ctx Context) (ir.Value, error) {
	vals := make([]ir.Value, len(c.args))
	for i, a := range c.args {
		v, err := a.Evaluate(ctx)
		if err != nil {
			return ir.Value{}, err
		}
		vals[i] = v
	}
	v, err := c.fn.Call(vals)
	if err != nil {
		return ir.Value{}, fmt.Errorf("%s: %w", c.fn.Name, err)
	}
	return v, nil
}

func (c *Call) IsReady(dry DryRun) bool {
	ok := true
	for _, a := range c.args {
		// No short-circuit: every argument is checked.
		if !a.IsReady(dry) {
			ok = false
		}
	}
	return ok
}

func (c *Call) String() string {
	switch {
	case c.fn.Name == function.OpNegate && len(c.args) == 1:
		return "-" + c.args[0].String()
	case c.fn.Name == function.OpNot && len(c.args) == 1:
		return "!" + c.args[0].String()
	case isInfix(c.fn.Name) && len(c.args) == 2:
		return "(" + c.args[0].String() + " " + c.fn.Name + " " + c.args[1].String() + ")"
	}
	parts := make([]string, len(c.args))
	for i, a := range c.args {
		parts[i] = a.String()
	}
	return c.fn.Name + "(" + strings.Join(parts, ", ") + ")"
}

func isInfix(name string) bool {
	switch name {
	case function.OpAdd, function.OpSub, function.OpMul, function.OpDiv, function.OpMod,
		function.OpEq, function.OpNe, function.OpGt, function.OpLt, function.OpGe, function.OpLe,
		function.OpAnd, function.OpOr:
		return true
	}
	return false
}
