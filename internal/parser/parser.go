// Package parser turns rule text into typed expression trees.
//
// The surface syntax is that of github.com/expr-lang/expr: the expr-lang
// parser produces its own AST, which is lowered here onto the closed node
// set of package expr. Operators are mapped onto the canonical built-in
// symbols and every call is resolved through a function.Registry by
// argument types, so a tree returned by Parse is always well typed.
//
// Supported syntax:
//
//	literals      1, 2.5, "text", true, false
//	variables     grossIncome
//	arithmetic    + - * / %   and unary -
//	comparison    == != > < >= <=
//	logic         && and || or ! not
//	calls         max(a, b), date("2024-01-31")
//	conditional   cond ? a : b
//
// Member access, indexing, arrays, maps, pipes, closures and nil are
// rejected.
package parser

import (
	"fmt"

	"github.com/expr-lang/expr/ast"
	exprparser "github.com/expr-lang/expr/parser"
	"github.com/shopspring/decimal"

	"github.com/roach88/calc/internal/expr"
	"github.com/roach88/calc/internal/function"
	"github.com/roach88/calc/internal/ir"
)

// Variables resolves the declared type of a variable name.
type Variables interface {
	VariableType(name string) (ir.ValueType, bool)
}

// Parser lowers rule text against a fixed set of variables, functions and
// enumerations. It holds no mutable state.
type Parser struct {
	reg   *function.Registry
	vars  Variables
	enums map[string]map[string]string
}

// New creates a parser. enums may be nil when the dictionary declares no
// enumerations.
func New(reg *function.Registry, vars Variables, enums map[string]map[string]string) *Parser {
	return &Parser{reg: reg, vars: vars, enums: enums}
}

// Parse lowers text into an expression node.
//
// When want is not ir.Any the result must have that type. A bare string
// literal is accepted where an enumeration is wanted if it names a member
// of that enumeration.
func (p *Parser) Parse(text string, want ir.ValueType) (expr.Node, error) {
	source, nums := scanNumbers(text)
	tree, err := exprparser.Parse(source)
	if err != nil {
		return nil, &SyntaxError{Text: text, Message: err.Error()}
	}
	l := &lowering{Parser: p, nums: nums}
	n, err := l.lower(tree.Node)
	if err != nil {
		return nil, &SyntaxError{Text: text, Message: err.Error()}
	}
	if want.IsAny() {
		return n, nil
	}
	n, err = p.coerce(n, want)
	if err != nil {
		return nil, &SyntaxError{Text: text, Message: err.Error()}
	}
	if n.Type() != want {
		return nil, &TypeError{Text: text, Want: want, Got: n.Type()}
	}
	return n, nil
}

// lowering is the state of one Parse call.
type lowering struct {
	*Parser
	nums numbers
}

func (p *lowering) lower(node ast.Node) (expr.Node, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		if d, ok := p.nums.exact(n.Location()); ok {
			return expr.NewLiteral(ir.NewNumber(d)), nil
		}
		return expr.NewLiteral(ir.NewInt(int64(n.Value))), nil
	case *ast.FloatNode:
		if d, ok := p.nums.exact(n.Location()); ok {
			return expr.NewLiteral(ir.NewNumber(d)), nil
		}
		return expr.NewLiteral(ir.NewNumber(decimal.NewFromFloat(n.Value))), nil
	case *ast.StringNode:
		return expr.NewLiteral(ir.NewString(n.Value)), nil
	case *ast.BoolNode:
		return expr.NewLiteral(ir.NewBool(n.Value)), nil
	case *ast.IdentifierNode:
		return p.variable(n.Value)
	case *ast.UnaryNode:
		return p.unary(n)
	case *ast.BinaryNode:
		return p.binary(n)
	case *ast.CallNode:
		id, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, fmt.Errorf("unsupported call target %s", n.Callee)
		}
		return p.call(id.Value, n.Arguments)
	case *ast.BuiltinNode:
		return p.call(n.Name, n.Arguments)
	case *ast.ConditionalNode:
		return p.conditional(n)
	case *ast.NilNode:
		return nil, fmt.Errorf("nil is not a value")
	}
	return nil, fmt.Errorf("unsupported syntax %q", node.String())
}

func (p *Parser) variable(name string) (expr.Node, error) {
	t, ok := p.vars.VariableType(name)
	if !ok {
		return nil, fmt.Errorf("unknown variable %q", name)
	}
	return expr.NewVariableRef(name, t), nil
}

func (p *lowering) unary(n *ast.UnaryNode) (expr.Node, error) {
	operand, err := p.lower(n.Node)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "-":
		if lit, ok := operand.(*expr.Literal); ok && lit.Type() == ir.Number {
			d, _ := lit.Value().Number()
			return expr.NewLiteral(ir.NewNumber(d.Neg())), nil
		}
		return p.apply(function.OpNegate, operand)
	case "+":
		if operand.Type() != ir.Number {
			return nil, fmt.Errorf("unary + needs a number, got %s", operand.Type())
		}
		return operand, nil
	case "!", "not":
		return p.apply(function.OpNot, operand)
	}
	return nil, fmt.Errorf("unsupported operator %q", n.Operator)
}

var binaryOps = map[string]string{
	"+":   function.OpAdd,
	"-":   function.OpSub,
	"*":   function.OpMul,
	"/":   function.OpDiv,
	"%":   function.OpMod,
	"==":  function.OpEq,
	"!=":  function.OpNe,
	">":   function.OpGt,
	"<":   function.OpLt,
	">=":  function.OpGe,
	"<=":  function.OpLe,
	"&&":  function.OpAnd,
	"and": function.OpAnd,
	"||":  function.OpOr,
	"or":  function.OpOr,
}

func (p *lowering) binary(n *ast.BinaryNode) (expr.Node, error) {
	op, ok := binaryOps[n.Operator]
	if !ok {
		return nil, fmt.Errorf("unsupported operator %q", n.Operator)
	}
	left, err := p.lower(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := p.lower(n.Right)
	if err != nil {
		return nil, err
	}
	if op == function.OpEq || op == function.OpNe {
		if left, err = p.coerce(left, right.Type()); err != nil {
			return nil, err
		}
		if right, err = p.coerce(right, left.Type()); err != nil {
			return nil, err
		}
	}
	return p.apply(op, left, right)
}

func (p *lowering) call(name string, args []ast.Node) (expr.Node, error) {
	lowered := make([]expr.Node, len(args))
	for i, a := range args {
		n, err := p.lower(a)
		if err != nil {
			return nil, err
		}
		lowered[i] = n
	}
	n, err := p.apply(name, lowered...)
	if err != nil {
		return nil, err
	}
	if c, ok := n.(*expr.Call); ok && c.Function().Name == "date" {
		return foldConstant(c)
	}
	return n, nil
}

func (p *lowering) conditional(n *ast.ConditionalNode) (expr.Node, error) {
	cond, err := p.lower(n.Cond)
	if err != nil {
		return nil, err
	}
	then, err := p.lower(n.Exp1)
	if err != nil {
		return nil, err
	}
	otherwise, err := p.lower(n.Exp2)
	if err != nil {
		return nil, err
	}
	if then, err = p.coerce(then, otherwise.Type()); err != nil {
		return nil, err
	}
	if otherwise, err = p.coerce(otherwise, then.Type()); err != nil {
		return nil, err
	}
	return expr.NewConditional(otherwise, expr.Branch{When: cond, Then: then})
}

// apply resolves the function overload for the argument types and builds
// the call.
func (p *Parser) apply(name string, args ...expr.Node) (expr.Node, error) {
	types := make([]ir.ValueType, len(args))
	for i, a := range args {
		types[i] = a.Type()
	}
	fn, err := p.reg.Lookup(name, types)
	if err != nil {
		return nil, err
	}
	return expr.NewCall(fn, args...)
}

// coerce turns a string literal into an enumerated literal when an
// enumeration is expected. Any other node is returned unchanged.
func (p *Parser) coerce(n expr.Node, want ir.ValueType) (expr.Node, error) {
	lit, ok := n.(*expr.Literal)
	if !ok || want.Kind() != ir.KindEnum || lit.Type() != ir.String {
		return n, nil
	}
	member := lit.Value().String()
	if _, ok := p.enums[want.Name()][member]; !ok {
		return nil, fmt.Errorf("%q is not a member of enumeration %q", member, want.Name())
	}
	return expr.NewLiteral(ir.NewEnum(want.Name(), member)), nil
}

// foldConstant evaluates a call whose arguments are all literals.
func foldConstant(c *expr.Call) (expr.Node, error) {
	for _, a := range c.Args() {
		if _, ok := a.(*expr.Literal); !ok {
			return c, nil
		}
	}
	v, err := c.Evaluate(nil)
	if err != nil {
		return nil, err
	}
	return expr.NewLiteral(v), nil
}

// SyntaxError reports rule text that cannot be lowered to a typed tree.
type SyntaxError struct {
	Text    string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid expression %q: %s", e.Text, e.Message)
}

// TypeError reports an expression whose type differs from the expected one.
type TypeError struct {
	Text string
	Want ir.ValueType
	Got  ir.ValueType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expression %q is %s, expected %s", e.Text, e.Got, e.Want)
}
