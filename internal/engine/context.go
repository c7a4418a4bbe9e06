package engine

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/roach88/calc/internal/compiler"
	"github.com/roach88/calc/internal/expr"
	"github.com/roach88/calc/internal/ir"
)

// Definitions resolves variable definitions. *compiler.Program implements
// it.
type Definitions interface {
	Variable(name string) (compiler.Variable, bool)
}

// EvaluationContext is the per-run memoizing resolver.
//
// It holds the value cache, the in-progress recursion guard and the ordered
// error list of one Calculate call. A context is created fresh for every
// run and is never shared between goroutines.
type EvaluationContext struct {
	defs       Definitions
	values     map[string]ir.Value
	inProgress map[string]bool
	errors     []CalcError
	logger     zerolog.Logger
}

// NewEvaluationContext creates an empty context over defs.
func NewEvaluationContext(defs Definitions, logger zerolog.Logger) *EvaluationContext {
	return &EvaluationContext{
		defs:       defs,
		values:     make(map[string]ir.Value),
		inProgress: make(map[string]bool),
		logger:     logger,
	}
}

// DetermineValue returns the value of name, applying its rule on first use.
//
// The algorithm:
//  1. A cached value is returned as is
//  2. A name already in progress is a run-time cycle (internal error)
//  3. A name without a definition or rule is an internal error
//  4. Otherwise the rule is applied with name marked in progress; the mark
//     is always removed afterwards
//  5. Only successful values are cached; computed numbers are rounded to
//     the variable's precision first
//
// Every failure is recorded in the context before expr.ErrNoValue is
// returned.
func (c *EvaluationContext) DetermineValue(name string) (ir.Value, error) {
	if v, ok := c.values[name]; ok {
		return v, nil
	}
	if c.inProgress[name] {
		c.logInternal(NewCircularError(name))
		return ir.Value{}, expr.ErrNoValue
	}
	def, ok := c.defs.Variable(name)
	if !ok {
		c.logInternal(NewUndefinedError(name))
		return ir.Value{}, expr.ErrNoValue
	}
	if def.Rule == nil {
		c.logInternal(&InternalError{Code: ErrCodeMissingRule, Variable: name, Message: "variable has neither a value nor a rule"})
		return ir.Value{}, expr.ErrNoValue
	}

	c.inProgress[name] = true
	v, err := def.Rule.Evaluate(c)
	delete(c.inProgress, name)

	if err != nil {
		if !errors.Is(err, expr.ErrNoValue) {
			c.LogError(name, err.Error())
		}
		return ir.Value{}, expr.ErrNoValue
	}
	v = roundTo(v, def.Precision)
	c.values[name] = v
	return v, nil
}

// CacheValue stores an already validated value, typically a parsed input.
func (c *EvaluationContext) CacheValue(name string, v ir.Value) {
	c.values[name] = v
}

// HasValue reports whether name has a cached value.
func (c *EvaluationContext) HasValue(name string) bool {
	_, ok := c.values[name]
	return ok
}

// HasErrors reports whether any error has been logged.
func (c *EvaluationContext) HasErrors() bool {
	return len(c.errors) > 0
}

// LogError records a problem against entity.
func (c *EvaluationContext) LogError(entity, message string) {
	c.errors = append(c.errors, CalcError{Entity: entity, Message: message})
}

// Errors returns the logged errors in the order they were logged.
func (c *EvaluationContext) Errors() []CalcError {
	return append([]CalcError(nil), c.errors...)
}

func (c *EvaluationContext) logInternal(err *InternalError) {
	c.logger.Error().
		Str("code", string(err.Code)).
		Str("variable", err.Variable).
		Msg(err.Message)
	c.LogError(err.Variable, err.Error())
}

func roundTo(v ir.Value, places int32) ir.Value {
	if places <= 0 || v.Kind() != ir.KindNumber {
		return v
	}
	d, err := v.Number()
	if err != nil {
		return v
	}
	return ir.NewNumber(d.RoundBank(places))
}
