package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roach88/calc/internal/compiler"
	"github.com/roach88/calc/internal/function"
)

// loaded is a dictionary source and, when it compiled, its program.
type loaded struct {
	Source  *compiler.Source
	Program *compiler.Program
}

// loadProgram loads and compiles the dictionary at path with the standard
// function library. The error is a *compiler.LoadError when the source
// could not be read and a *compiler.BuildError when it did not compile.
func loadProgram(path string, logger zerolog.Logger) (*loaded, error) {
	src, err := compiler.LoadDictionary(path)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("path", path).Str("engine", src.Dictionary.EngineID).Msg("dictionary loaded")

	prog, err := compiler.Build(src.Dictionary, function.MustNewRegistry(function.Standard()...),
		compiler.WithPositions(src.Positions),
		compiler.WithLogger(logger),
	)
	if err != nil {
		return &loaded{Source: src}, err
	}
	return &loaded{Source: src, Program: prog}, nil
}

// reportLoadError outputs a load or build failure and returns the
// ExitError the command should return.
//
// Unreadable sources are command errors (exit 2); dictionaries that were
// read but did not compile are validation failures (exit 1).
func reportLoadError(f *OutputFormatter, err error) error {
	var buildErr *compiler.BuildError
	if errors.As(err, &buildErr) {
		return outputDiagnostics(f, buildErr.Diagnostics)
	}

	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		code := ErrCodeLoadFailed
		if strings.HasSuffix(loadErr.Message, "not found") {
			code = ErrCodeNotFound
		}
		_ = f.Error(code, loadErr.Error(), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, loadErr.Error()))
	}

	return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to load dictionary", err)
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                  `json:"valid"`
	EngineID    string                `json:"engineId,omitempty"`
	Hash        string                `json:"hash,omitempty"`
	Inputs      int                   `json:"inputs,omitempty"`
	Outputs     int                   `json:"outputs,omitempty"`
	Validators  int                   `json:"validators,omitempty"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics,omitempty"`
}

// outputDiagnostics outputs build diagnostics.
func outputDiagnostics(f *OutputFormatter, diags []compiler.Diagnostic) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(diags)))

	if f.JSON() {
		result := ValidationResult{Valid: false, Diagnostics: diags}
		if err := f.Failure(diags[0].Code, diags[0].Message, result); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, d := range diags {
		fmt.Fprintf(f.Writer, "  %s\n", d.Error())
	}
	return exitErr
}
