package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/calc/internal/engine"
	"github.com/roach88/calc/internal/server"
	"github.com/roach88/calc/internal/store"
)

// CalculateOptions holds flags for the calculate command.
type CalculateOptions struct {
	*RootOptions
	Inputs     []string // repeated --input name=value
	InputsFile string
	Database   string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// CalculationResult is the outcome of one calculate invocation.
type CalculationResult struct {
	RunID   string             `json:"runId"`
	AllOK   bool               `json:"allOk"`
	Outputs map[string]string  `json:"outputs,omitempty"`
	Errors  []engine.CalcError `json:"errors,omitempty"`
}

// NewCalculateCommand creates the calculate command.
func NewCalculateCommand(rootOpts *RootOptions) *cobra.Command {
	return newCalculateCommand(&CalculateOptions{RootOptions: rootOpts})
}

func newCalculateCommand(opts *CalculateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate <dictionary>",
		Short: "Run one calculation",
		Long: `Compile a dictionary and run one calculation against raw inputs.

Inputs come from a JSON object file (--inputs) and/or repeated
--input name=value flags; flags override the file. With --db the run is
recorded together with the dictionary it ran against.

Exit codes:
  0 - Calculation succeeded
  1 - Calculation logged errors, or the dictionary has diagnostics
  2 - Command error (bad input flags, unreadable files, database errors)

Examples:
  calc calculate ./tax.yaml --input income=1000000 --input age=40
  calc calculate ./tax.yaml --inputs request.json --db ./calc.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalculate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Inputs, "input", "i", nil, "input as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.InputsFile, "inputs", "", "JSON object file of inputs")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runCalculate(opts *CalculateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	logger, err := opts.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	inputs, err := collectInputs(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadInput, "invalid inputs", err)
	}

	l, err := loadProgram(path, logger)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	eng, err := engine.New(l.Program, engine.WithLogger(logger), engine.WithRunIDGenerator(runIDs))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to create engine", err)
	}
	res := eng.Calculate(inputs)

	if opts.Database != "" {
		if err := recordRun(cmd, opts.Database, l, res); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		formatter.VerboseLog("recorded run %s in %s", res.RunID, opts.Database)
	}

	result := CalculationResult{RunID: res.RunID, AllOK: res.OK, Errors: res.Errors}
	if res.OK {
		result.Outputs = res.Rendered()
	}
	return outputCalculation(formatter, l.Program.EngineID(), result)
}

// collectInputs merges the --inputs file with --input flags.
func collectInputs(opts *CalculateOptions) (map[string]string, error) {
	inputs := make(map[string]string)
	if opts.InputsFile != "" {
		f, err := os.Open(opts.InputsFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		fromFile, err := server.DecodeInputs(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.InputsFile, err)
		}
		for k, v := range fromFile {
			inputs[k] = v
		}
	}
	for _, kv := range opts.Inputs {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("--input %q: expected name=value", kv)
		}
		inputs[strings.TrimSpace(name)] = value
	}
	return inputs, nil
}

func recordRun(cmd *cobra.Command, path string, l *loaded, res *engine.Result) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if _, err := st.SaveDictionary(ctx, l.Source.Dictionary); err != nil {
		return err
	}
	return st.WriteRun(ctx, res.Record())
}

func outputCalculation(f *OutputFormatter, engineID string, result CalculationResult) error {
	if !result.AllOK {
		exitErr := NewExitError(ExitFailure, fmt.Sprintf("calculation failed with %d error(s)", len(result.Errors)))
		if f.JSON() {
			msg := "calculation failed"
			if len(result.Errors) > 0 {
				msg = result.Errors[0].Error()
			}
			if err := f.Failure(ErrCodeCalculation, msg, result); err != nil {
				return err
			}
			return exitErr
		}

		fmt.Fprintf(f.Writer, "✗ %s: calculation failed (run %s)\n", engineID, result.RunID)
		for _, e := range result.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e.Error())
		}
		return exitErr
	}

	if f.JSON() {
		return f.Success(result)
	}

	fmt.Fprintf(f.Writer, "✓ %s (run %s)\n", engineID, result.RunID)
	names := make([]string, 0, len(result.Outputs))
	for name := range result.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(f.Writer, "  %s = %s\n", name, result.Outputs[name])
	}
	return nil
}
