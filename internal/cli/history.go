package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/calc/internal/ir"
	"github.com/roach88/calc/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database     string
	Dictionary   string // optional - filter runs to one dictionary hash
	Run          string // optional - show a single run
	Limit        int
	Dictionaries bool // list stored dictionaries instead of runs
}

// HistoryResult holds recorded runs.
type HistoryResult struct {
	Runs  []ir.RunRecord `json:"runs"`
	Count int            `json:"count"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List calculation runs recorded by calculate --db or serve --db.

Runs are listed newest first. Use --run to show one run in full and
--dictionaries to list the dictionaries runs were recorded against.

Examples:
  calc history --db ./calc.db
  calc history --db ./calc.db --dictionary <hash> --limit 20
  calc history --db ./calc.db --run <run-id> --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Dictionary, "dictionary", "", "only runs of this dictionary hash")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show a single run by ID")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum number of runs (0 for all)")
	cmd.Flags().BoolVar(&opts.Dictionaries, "dictionaries", false, "list stored dictionaries")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	ctx := cmd.Context()

	// Never create a database just to report that it is empty.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "database not found: "+opts.Database, nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.Dictionaries:
		dicts, err := st.ListDictionaries(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list dictionaries", err)
		}
		return outputDictionaries(formatter, dicts)

	case opts.Run != "":
		rec, err := st.ReadRun(ctx, opts.Run)
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, "run not found: "+opts.Run, nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
		}
		if formatter.JSON() {
			return formatter.Success(rec)
		}
		printRunDetail(formatter, rec)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Dictionary, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}
	if formatter.JSON() {
		return formatter.Success(HistoryResult{Runs: runs, Count: len(runs)})
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tENGINE\tRESULT\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.EngineID, resultLabel(r.OK), r.CreatedAt)
	}
	return tw.Flush()
}

func outputDictionaries(f *OutputFormatter, dicts []ir.DictionaryRecord) error {
	if f.JSON() {
		return f.Success(dicts)
	}
	if len(dicts) == 0 {
		fmt.Fprintln(f.Writer, "No dictionaries stored.")
		return nil
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HASH\tENGINE\tCREATED")
	for _, d := range dicts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Hash, d.EngineID, d.CreatedAt)
	}
	return tw.Flush()
}

func printRunDetail(f *OutputFormatter, r ir.RunRecord) {
	w := f.Writer
	fmt.Fprintf(w, "Run:        %s\n", r.ID)
	fmt.Fprintf(w, "Engine:     %s\n", r.EngineID)
	fmt.Fprintf(w, "Dictionary: %s\n", r.DictionaryHash)
	fmt.Fprintf(w, "Result:     %s\n", resultLabel(r.OK))
	fmt.Fprintf(w, "Created:    %s\n", r.CreatedAt)

	printSection := func(title string, m map[string]string) {
		if len(m) == 0 {
			return
		}
		fmt.Fprintf(w, "%s:\n", title)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s = %s\n", k, m[k])
		}
	}
	printSection("Inputs", r.Inputs)
	printSection("Outputs", r.Outputs)

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, e := range r.Errors {
			if e.Entity == "" {
				fmt.Fprintf(w, "  %s\n", e.Message)
				continue
			}
			fmt.Fprintf(w, "  %s: %s\n", e.Entity, e.Message)
		}
	}
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
