package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calc/internal/function"
	"github.com/roach88/calc/internal/ir"
)

// tier builds: when x > 100 then "gold"; when x > 10 then "silver"; else "bronze".
func tier(t *testing.T) *Conditional {
	t.Helper()
	reg := function.MustNewRegistry()
	x := NewVariableRef("x", ir.Number)
	rule, err := NewConditional(
		NewLiteral(ir.NewString("bronze")),
		Branch{When: mustCall(t, reg, function.OpGt, x, num("100")), Then: NewLiteral(ir.NewString("gold"))},
		Branch{When: mustCall(t, reg, function.OpGt, x, num("10")), Then: NewLiteral(ir.NewString("silver"))},
	)
	require.NoError(t, err)
	return rule
}

// TestConditional_DefaultOnly tests that a rule with no branches always
// evaluates its default.
func TestConditional_DefaultOnly(t *testing.T) {
	rule, err := NewConditional(num("42"))
	require.NoError(t, err)

	v, err := rule.Evaluate(&mapContext{})
	require.NoError(t, err)
	assert.Equal(t, "42", v.String())
	assert.Equal(t, ir.Number, rule.Type())
}

// TestConditional_FirstMatchWins tests that the first true branch is
// returned, never an earlier or later one.
func TestConditional_FirstMatchWins(t *testing.T) {
	rule := tier(t)

	tests := []struct {
		x    int64
		want string
	}{
		{x: 500, want: "gold"},
		{x: 50, want: "silver"},
		{x: 5, want: "bronze"},
	}
	for _, tt := range tests {
		v, err := rule.Evaluate(&mapContext{values: map[string]ir.Value{"x": ir.NewInt(tt.x)}})
		require.NoError(t, err)
		assert.Equal(t, tt.want, v.String(), "x=%d", tt.x)
	}
}

// TestConditional_FailingConditionAborts tests that a condition that cannot
// be evaluated aborts the rule without trying later branches.
func TestConditional_FailingConditionAborts(t *testing.T) {
	reg := function.MustNewRegistry()
	rule, err := NewConditional(
		num("0"),
		Branch{When: mustCall(t, reg, function.OpGt, NewVariableRef("missing", ir.Number), num("1")), Then: num("1")},
		Branch{When: NewVariableRef("flag", ir.Boolean), Then: num("2")},
	)
	require.NoError(t, err)

	ctx := &mapContext{values: map[string]ir.Value{"flag": ir.NewBool(true)}}
	_, err = rule.Evaluate(ctx)
	assert.ErrorIs(t, err, ErrNoValue)
	assert.Equal(t, []string{"missing"}, ctx.calls)
}

// TestConditional_IsReadyChecksEverything tests that readiness visits the
// default and every branch even when an earlier one is not ready.
func TestConditional_IsReadyChecksEverything(t *testing.T) {
	rule, err := NewConditional(
		NewVariableRef("d", ir.Number),
		Branch{When: NewVariableRef("w1", ir.Boolean), Then: NewVariableRef("t1", ir.Number)},
		Branch{When: NewVariableRef("w2", ir.Boolean), Then: NewVariableRef("t2", ir.Number)},
	)
	require.NoError(t, err)

	dry := &setDryRun{ready: map[string]bool{"w1": true, "t1": true, "w2": true, "t2": true}}
	assert.False(t, rule.IsReady(dry))
	assert.Equal(t, []string{"d", "w1", "t1", "w2", "t2"}, dry.queried)
}

// TestNewConditional_TypeChecks tests that conditions must be boolean and
// branch values must match the default type.
func TestNewConditional_TypeChecks(t *testing.T) {
	var typeErr *TypeError

	_, err := NewConditional(num("1"), Branch{When: num("1"), Then: num("2")})
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, ir.Boolean, typeErr.Want)

	_, err = NewConditional(num("1"), Branch{When: NewLiteral(ir.NewBool(true)), Then: NewLiteral(ir.NewString("x"))})
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "branch 1 must be number, got string", typeErr.Error())

	_, err = NewConditional(nil)
	assert.Error(t, err)
}
