package engine

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/calc/internal/compiler"
	"github.com/roach88/calc/internal/expr"
	"github.com/roach88/calc/internal/ir"
	"github.com/roach88/calc/internal/telemetry"
)

// Engine runs calculations against a compiled program.
//
// Thread-safety model:
//   - The Engine holds no per-run state; every Calculate call gets its own
//     EvaluationContext
//   - Calculate may be called from any number of goroutines at once
//   - Collector and RunIDGenerator implementations must be safe for
//     concurrent use
//
// INVARIANTS:
//   - The program never changes after New
//   - Results are all-or-nothing: a failed run carries no outputs
type Engine struct {
	prog      *compiler.Program
	logger    zerolog.Logger
	collector telemetry.Collector
	runIDs    RunIDGenerator
	clock     ir.Clock
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithLogger sets the logger runs are reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCollector sets the telemetry collector. Default: telemetry.Noop().
func WithCollector(c telemetry.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) { e.runIDs = g }
}

// WithClock sets the clock run start times are read from.
func WithClock(c ir.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine for a compiled program.
func New(prog *compiler.Program, opts ...Option) (*Engine, error) {
	if prog == nil {
		return nil, errors.New("engine: program is nil")
	}
	e := &Engine{
		prog:      prog,
		logger:    zerolog.Nop(),
		collector: telemetry.Noop(),
		runIDs:    UUIDv7Generator{},
		clock:     ir.SystemClock,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Program returns the compiled program the engine runs.
func (e *Engine) Program() *compiler.Program {
	return e.prog
}

// Calculate runs one calculation over raw text inputs.
//
// The run:
//  1. Parses every declared input, even after earlier ones fail
//  2. Stops with the input errors if any input was rejected
//  3. Evaluates every inter-field validator
//  4. Stops with the validation errors if any validator failed
//  5. Determines every output
//  6. Succeeds with all outputs, or fails with every logged error and no
//     outputs at all
//
// Input keys that are not declared inputs are ignored. A panic anywhere in
// the run is recovered and reported as a single generic error.
func (e *Engine) Calculate(inputs map[string]string) (res *Result) {
	began := time.Now()
	res = &Result{
		EngineID:       e.prog.EngineID(),
		DictionaryHash: e.prog.Hash(),
		Inputs:         copyInputs(inputs),
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("run", res.RunID).
				Str("engine", res.EngineID).
				Str("code", string(ErrCodePanic)).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("calculation panicked")
			res.OK = false
			res.Outputs = nil
			res.rendered = nil
			res.Errors = []CalcError{{Message: GenericInternalMessage}}
		}
		res.Duration = time.Since(began)
		e.collector.RunCompleted(res.EngineID, res.OK, res.Duration)
		e.logger.Debug().
			Str("run", res.RunID).
			Str("engine", res.EngineID).
			Bool("ok", res.OK).
			Int("outputs", len(res.Outputs)).
			Int("errors", len(res.Errors)).
			Dur("duration", res.Duration).
			Msg("calculation completed")
	}()

	res.RunID = e.runIDs.Generate()
	res.StartedAt = e.clock.Now().UTC()
	ctx := NewEvaluationContext(e.prog, e.logger.With().Str("run", res.RunID).Logger())

	e.parseInputs(ctx, res.Inputs)
	if ctx.HasErrors() {
		res.Errors = ctx.Errors()
		return res
	}

	e.runChecks(ctx)
	if ctx.HasErrors() {
		res.Errors = ctx.Errors()
		return res
	}

	outputs := make(map[string]ir.Value)
	for _, name := range e.prog.Outputs() {
		if v, err := ctx.DetermineValue(name); err == nil {
			outputs[name] = v
		}
	}
	if ctx.HasErrors() {
		res.Errors = ctx.Errors()
		return res
	}

	res.OK = true
	res.Outputs = outputs
	res.rendered = e.render(outputs)
	return res
}

// Shutdown releases engine resources. The engine holds none after build;
// Shutdown exists so callers can treat every engine the same way.
func (e *Engine) Shutdown() {
	e.logger.Debug().Str("engine", e.prog.EngineID()).Msg("engine shut down")
}

func (e *Engine) parseInputs(ctx *EvaluationContext, inputs map[string]string) {
	for _, name := range e.prog.Inputs() {
		def, _ := e.prog.Variable(name)
		text := strings.TrimSpace(inputs[name])
		if text == "" {
			// A blank optional input falls back to its rule.
			if def.Role == ir.RoleRequiredInput {
				e.reject(ctx, def, "value is required")
			}
			continue
		}
		v, err := def.Parser.Parse(text)
		if err != nil {
			e.reject(ctx, def, err.Error())
			continue
		}
		ctx.CacheValue(name, v)
	}
}

func (e *Engine) reject(ctx *EvaluationContext, def compiler.Variable, reason string) {
	ctx.LogError(def.Name, e.prog.Message(def.ErrorID))
	e.collector.InputRejected(e.prog.EngineID(), def.Name)
	ctx.logger.Debug().Str("input", def.Name).Str("reason", reason).Msg("input rejected")
}

func (e *Engine) runChecks(ctx *EvaluationContext) {
	for _, c := range e.prog.Checks() {
		v, err := c.Rule.Evaluate(ctx)
		if err != nil {
			if !errors.Is(err, expr.ErrNoValue) {
				ctx.LogError(EntityValidation, err.Error())
			}
			continue
		}
		ok, err := v.Bool()
		if err != nil {
			ctx.LogError(EntityValidation, err.Error())
			continue
		}
		if !ok {
			ctx.LogError(EntityValidation, e.prog.Message(c.MessageID))
		}
	}
}

func (e *Engine) render(outputs map[string]ir.Value) map[string]string {
	out := make(map[string]string, len(outputs))
	for name, v := range outputs {
		def, _ := e.prog.Variable(name)
		out[name] = Render(v, def.Precision)
	}
	return out
}

func copyInputs(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
