package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <dictionary>",
		Short: "Check a dictionary without running it",
		Long: `Load and compile a dictionary and report every diagnostic.

The dictionary may be a .yaml, .yml, .json or .cue file, or a directory
holding a CUE package. Compilation checks structure, expression syntax
and types, and rejects circular dependencies.

Exit codes:
  0 - Dictionary is valid
  1 - Dictionary has diagnostics
  2 - Dictionary could not be read`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	logger, err := opts.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	l, err := loadProgram(path, logger)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	prog := l.Program
	result := ValidationResult{
		Valid:      true,
		EngineID:   prog.EngineID(),
		Hash:       prog.Hash(),
		Inputs:     len(prog.Inputs()),
		Outputs:    len(prog.Outputs()),
		Validators: len(prog.Checks()),
	}
	formatter.VerboseLog("dictionary hash: %s", result.Hash)

	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Dictionary valid: %s (%d inputs, %d outputs, %d validators)\n",
		result.EngineID, result.Inputs, result.Outputs, result.Validators)
	return nil
}
