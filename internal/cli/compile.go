package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/calc/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult describes a compiled dictionary.
type CompilationResult struct {
	EngineID   string          `json:"engineId"`
	Hash       string          `json:"hash"`
	Output     string          `json:"output,omitempty"`
	Dictionary json.RawMessage `json:"dictionary,omitempty"` // only when not written to a file
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <dictionary>",
		Short: "Compile a dictionary to canonical JSON",
		Long: `Compile a dictionary and emit its canonical JSON form and content hash.

The canonical form is byte-identical for equivalent dictionaries whatever
their source format, so the hash identifies a rule set across YAML, JSON
and CUE sources. Without --output the canonical JSON is printed to stdout
and the hash to stderr.

Example:
  calc compile ./tax.cue -o tax.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	logger, err := opts.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	l, err := loadProgram(path, logger)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	canonical, err := ir.MarshalCanonical(l.Source.Dictionary)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "marshal canonical dictionary", err)
	}

	result := CompilationResult{
		EngineID: l.Program.EngineID(),
		Hash:     l.Program.Hash(),
		Output:   opts.Output,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, canonical, 0644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
		formatter.VerboseLog("wrote %d bytes to %s", len(canonical), opts.Output)

		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ Compiled %s\n", result.EngineID)
		fmt.Fprintf(formatter.Writer, "  hash:   %s\n", result.Hash)
		fmt.Fprintf(formatter.Writer, "  output: %s\n", result.Output)
		return nil
	}

	if formatter.JSON() {
		result.Dictionary = canonical
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, string(canonical))
	fmt.Fprintf(formatter.GetErrWriter(), "hash: %s\n", result.Hash)
	return nil
}
