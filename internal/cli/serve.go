package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/roach88/calc/internal/engine"
	"github.com/roach88/calc/internal/server"
	"github.com/roach88/calc/internal/store"
	"github.com/roach88/calc/internal/telemetry"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr     string
	Database string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <dictionary>",
		Short: "Serve calculations over HTTP",
		Long: `Compile a dictionary and serve it over HTTP until interrupted.

Routes:
  POST /calculate  run one calculation from a JSON object of inputs
  GET  /healthz    liveness and the dictionary hash
  GET  /metrics    Prometheus metrics

With --db every run is recorded together with the dictionary.

Example:
  calc serve ./tax.yaml --addr :8080 --db ./calc.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")

	return cmd
}

func runServe(opts *ServeOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	logger, err := opts.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	l, err := loadProgram(path, logger)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := telemetry.NewPrometheusCollector(reg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to register metrics", err)
	}

	eng, err := engine.New(l.Program, engine.WithLogger(logger), engine.WithCollector(collector))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to create engine", err)
	}
	defer eng.Shutdown()

	srvOpts := []server.Option{server.WithLogger(logger), server.WithGatherer(reg)}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("error closing database")
			}
		}()
		if _, err := st.SaveDictionary(cmd.Context(), l.Source.Dictionary); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to save dictionary", err)
		}
		srvOpts = append(srvOpts, server.WithRecorder(st))
	}
	srv := server.New(eng, srvOpts...)

	// Stop on SIGINT/SIGTERM or when the command's context is cancelled.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(formatter.GetErrWriter(), "Serving %s (%s) on %s\n", l.Program.EngineID(), l.Program.Hash(), opts.Addr)
	if err := srv.ListenAndServe(ctx, opts.Addr); err != nil && err != context.Canceled {
		return WrapExitError(ExitFailure, "server error", err)
	}
	logger.Info().Msg("server stopped gracefully")
	return nil
}
