package engine

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calc/internal/compiler"
	"github.com/roach88/calc/internal/expr"
	"github.com/roach88/calc/internal/ir"
)

// defs is a map of hand-built definitions, allowing states a successful
// build never produces.
type defs map[string]compiler.Variable

func (d defs) Variable(name string) (compiler.Variable, bool) {
	v, ok := d[name]
	return v, ok
}

func testNumber(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func computedVar(name string, rule expr.Node, precision int32) compiler.Variable {
	return compiler.Variable{Name: name, Role: ir.RoleIntermediate, Type: ir.Number, Rule: rule, Precision: precision}
}

func TestEvaluationContext_CacheAndDetermine(t *testing.T) {
	ctx := NewEvaluationContext(defs{
		"y": computedVar("y", expr.NewVariableRef("x", ir.Number), 2),
	}, zerolog.Nop())

	assert.False(t, ctx.HasValue("x"))
	ctx.CacheValue("x", ir.NewNumber(testNumber("1.005")))
	assert.True(t, ctx.HasValue("x"))

	v, err := ctx.DetermineValue("y")
	require.NoError(t, err)
	d, err := v.Number()
	require.NoError(t, err)
	assert.Equal(t, "1", d.String(), "rounded half to even at 2 places")
	assert.True(t, ctx.HasValue("y"))
	assert.False(t, ctx.HasErrors())
}

// TestEvaluationContext_CircularGuard tests the run-time guard against a
// cycle that escaped the build-time dry run.
func TestEvaluationContext_CircularGuard(t *testing.T) {
	ctx := NewEvaluationContext(defs{
		"a": computedVar("a", expr.NewVariableRef("b", ir.Number), 0),
		"b": computedVar("b", expr.NewVariableRef("a", ir.Number), 0),
	}, zerolog.Nop())

	_, err := ctx.DetermineValue("a")
	assert.ErrorIs(t, err, expr.ErrNoValue)

	errs := ctx.Errors()
	require.Len(t, errs, 1, "the failure is logged once, where it happened")
	assert.Equal(t, "a", errs[0].Entity)
	assert.Contains(t, errs[0].Message, string(ErrCodeCircular))
	assert.Empty(t, ctx.inProgress, "in-progress marks are always removed")
	assert.False(t, ctx.HasValue("a"))
	assert.False(t, ctx.HasValue("b"))
}

func TestEvaluationContext_UndefinedGuard(t *testing.T) {
	ctx := NewEvaluationContext(defs{
		"a":      computedVar("a", expr.NewVariableRef("ghost", ir.Number), 0),
		"norule": {Name: "norule", Role: ir.RoleOptionalInput, Type: ir.Number},
	}, zerolog.Nop())

	_, err := ctx.DetermineValue("a")
	assert.ErrorIs(t, err, expr.ErrNoValue)
	_, err = ctx.DetermineValue("norule")
	assert.ErrorIs(t, err, expr.ErrNoValue)

	errs := ctx.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, "ghost", errs[0].Entity)
	assert.Contains(t, errs[0].Message, string(ErrCodeUndefined))
	assert.Equal(t, "norule", errs[1].Entity)
	assert.Contains(t, errs[1].Message, string(ErrCodeMissingRule))
}

func TestEvaluationContext_LogError(t *testing.T) {
	ctx := NewEvaluationContext(defs{}, zerolog.Nop())
	ctx.LogError("", "first")
	ctx.LogError("x", "second")

	assert.True(t, ctx.HasErrors())
	errs := ctx.Errors()
	assert.Equal(t, []CalcError{{Message: "first"}, {Entity: "x", Message: "second"}}, errs)

	errs[0].Message = "changed"
	assert.Equal(t, "first", ctx.Errors()[0].Message, "Errors returns a copy")
	assert.Equal(t, "first", ctx.Errors()[0].Error())
	assert.Equal(t, "x: second", errs[1].Error())
}

func TestInternalError(t *testing.T) {
	err := NewCircularError("a")
	assert.True(t, IsInternalError(err))
	assert.True(t, IsCircularError(err))
	assert.Equal(t, "CIRCULAR_DEPENDENCY: variable requested while its own value is being determined (variable=a)", err.Error())

	undefined := NewUndefinedError("b")
	assert.True(t, IsInternalError(undefined))
	assert.False(t, IsCircularError(undefined))
	assert.False(t, IsInternalError(CalcError{Message: "x"}))
}
