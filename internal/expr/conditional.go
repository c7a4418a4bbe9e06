package expr

import (
	"fmt"
	"strings"

	"github.com/roach88/calc/internal/ir"
)

// Branch is one guarded alternative of a Conditional.
type Branch struct {
	When Node // boolean
	Then Node
}

// Conditional is a variable's rule: ordered guarded branches with a
// mandatory default.
//
// INVARIANTS:
//   - Every When node is boolean
//   - Every Then node has the same type as the default
//   - Immutable after construction
type Conditional struct {
	branches []Branch
	def      Node
}

// NewConditional creates a rule node. A rule with no branches always
// evaluates its default.
func NewConditional(def Node, branches ...Branch) (*Conditional, error) {
	if def == nil {
		return nil, fmt.Errorf("conditional: default expression is required")
	}
	for i, b := range branches {
		if b.When == nil || b.Then == nil {
			return nil, fmt.Errorf("conditional: branch %d is incomplete", i+1)
		}
		if b.When.Type() != ir.Boolean {
			return nil, &TypeError{What: fmt.Sprintf("condition %d", i+1), Want: ir.Boolean, Got: b.When.Type()}
		}
		if !def.Type().Accepts(b.Then.Type()) {
			return nil, &TypeError{What: fmt.Sprintf("branch %d", i+1), Want: def.Type(), Got: b.Then.Type()}
		}
	}
	return &Conditional{branches: append([]Branch(nil), branches...), def: def}, nil
}

func (*Conditional) node() {}

// Branches returns the guarded branches in declaration order.
func (c *Conditional) Branches() []Branch { return c.branches }

// Default returns the fallback expression.
func (c *Conditional) Default() Node { return c.def }

func (c *Conditional) Type() ir.ValueType { return c.def.Type() }

// Evaluate returns the Then value of the first branch whose condition is
// true, or the default. A condition that fails to evaluate aborts the rule;
// later branches are not tried.
func (c *Conditional) Evaluate(ctx Context) (ir.Value, error) {
	for _, b := range c.branches {
		cond, err := b.When.Evaluate(ctx)
		if err != nil {
			return ir.Value{}, err
		}
		ok, err := cond.Bool()
		if err != nil {
			return ir.Value{}, err
		}
		if ok {
			return b.Then.Evaluate(ctx)
		}
	}
	return c.def.Evaluate(ctx)
}

// IsReady checks the default first and then every branch, without
// stopping at the first one that is not ready.
func (c *Conditional) IsReady(dry DryRun) bool {
	ok := c.def.IsReady(dry)
	for _, b := range c.branches {
		if !b.When.IsReady(dry) {
			ok = false
		}
		if !b.Then.IsReady(dry) {
			ok = false
		}
	}
	return ok
}

func (c *Conditional) String() string {
	if len(c.branches) == 0 {
		return c.def.String()
	}
	var sb strings.Builder
	for _, b := range c.branches {
		fmt.Fprintf(&sb, "when %s then %s; ", b.When, b.Then)
	}
	sb.WriteString("else ")
	sb.WriteString(c.def.String())
	return sb.String()
}

// TypeError reports a node whose static type does not fit where it is used.
type TypeError struct {
	What string
	Want ir.ValueType
	Got  ir.ValueType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s must be %s, got %s", e.What, e.Want, e.Got)
}
