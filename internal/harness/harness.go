package harness

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/calc/internal/compiler"
	"github.com/roach88/calc/internal/engine"
	"github.com/roach88/calc/internal/function"
	"github.com/roach88/calc/internal/testutil"
)

// Option configures a scenario run.
type Option func(*config)

type config struct {
	logger    zerolog.Logger
	functions []*function.Function
}

// WithLogger sets the logger the compiler and engine report to.
// Scenarios run silently by default.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithFunctions registers custom functions next to function.Standard.
func WithFunctions(fns ...*function.Function) Option {
	return func(c *config) { c.functions = append(c.functions, fns...) }
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and compile the scenario's dictionary
//  2. Create an engine with a fixed clock and run ID
//  3. Calculate every case in order and compare it with its expect clause
//
// A returned error means the scenario could not be executed at all (the
// dictionary failed to load or compile). Case failures are reported in the
// Result, not as an error.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	cfg := &config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	src, err := compiler.LoadDictionary(s.Dictionary)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}

	reg, err := function.NewRegistry(append(function.Standard(), cfg.functions...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to build function registry: %w", err)
	}

	clock := testutil.NewFixedClock(testutil.DefaultTime)
	prog, err := compiler.Build(src.Dictionary, reg,
		compiler.WithClock(clock),
		compiler.WithPositions(src.Positions),
		compiler.WithLogger(cfg.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile dictionary: %w", err)
	}

	eng, err := engine.New(prog,
		engine.WithLogger(cfg.logger),
		engine.WithClock(clock),
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(s.Name)),
	)
	if err != nil {
		return nil, err
	}

	result := NewResult(s.Name)
	for _, c := range s.Cases {
		res := eng.Calculate(c.inputs())
		cr := CaseResult{
			Name:       c.Name,
			OK:         res.OK,
			Outputs:    res.Rendered(),
			Errors:     res.Errors,
			Mismatches: checkCase(c, res),
		}
		result.AddCase(cr)

		cfg.logger.Debug().
			Str("scenario", s.Name).
			Str("case", c.Name).
			Bool("ok", res.OK).
			Int("mismatches", len(cr.Mismatches)).
			Msg("case completed")
	}
	return result, nil
}
