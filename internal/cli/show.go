package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/athanius07/EMESRT11/internal/changelog"
	"github.com/athanius07/EMESRT11/internal/dataset"
	"github.com/athanius07/EMESRT11/internal/logging"
	"github.com/athanius07/EMESRT11/internal/refresh"
	"github.com/athanius07/EMESRT11/internal/view"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Cached           bool
	IncludeChangelog bool
	Limit            int
	CSV              bool
	NoMandates       bool
	NoSubnational    bool
	NoFrameworks     bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the dataset",
		Long: `Print the dataset, refreshing it first unless --cached is given.

--csv writes the same CSV the HTTP endpoint serves and ignores --format.
--format json prints the HTTP read body inside the standard envelope.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Cached, "cached", false, "serve the stored snapshot without refreshing")
	cmd.Flags().BoolVar(&opts.IncludeChangelog, "include-changelog", false, "include the changelog")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many changelog entries (0 = all)")
	cmd.Flags().BoolVar(&opts.CSV, "csv", false, "write CSV")
	cmd.Flags().BoolVar(&opts.NoMandates, "no-mandates", false, "hide government mandates")
	cmd.Flags().BoolVar(&opts.NoSubnational, "no-subnational", false, "hide sub-national guidance")
	cmd.Flags().BoolVar(&opts.NoFrameworks, "no-frameworks", false, "hide industry frameworks")

	return cmd
}

func (o *ShowOptions) toggles() view.Toggles {
	return view.Toggles{
		Mandates:    !o.NoMandates,
		Subnational: !o.NoSubnational,
		Frameworks:  !o.NoFrameworks,
	}
}

func runShow(ctx context.Context, cmd *cobra.Command, opts *ShowOptions) error {
	formatter := formatterFor(cmd, opts.RootOptions)

	rt, err := loadRuntime(opts.RootOptions, logging.Stderr)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	defer rt.close()

	st := rt.storeFor(ctx)
	defer st.Close()

	orch := rt.orchestrator(st)
	var res refresh.Result
	if opts.Cached {
		res, err = orch.Cached(ctx)
	} else {
		res, err = orch.Refresh(ctx)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeRefreshFailed, "read failed", err)
	}

	rows := view.Filter(res.Snapshot, opts.toggles())
	history := res.Changelog.Latest(opts.Limit)

	if opts.CSV {
		if err := view.WriteCSV(formatter.Writer, rows); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write csv", err)
		}
		return nil
	}

	if opts.Format == "json" {
		return formatter.Success(view.NewResponse(res.GeneratedAt, rows, history, opts.IncludeChangelog))
	}

	printRows(formatter, res.GeneratedAt, rows)
	if opts.IncludeChangelog {
		printChangelog(formatter, history)
	}
	return nil
}

func printRows(f *OutputFormatter, generatedAt string, rows dataset.Snapshot) {
	fmt.Fprintf(f.Writer, "%d records (generated %s)\n", len(rows), generatedAt)
	for _, r := range rows {
		fmt.Fprintf(f.Writer, "  %-10s  %-27s  %-14s  %s\n",
			r.Get(dataset.FieldPublicationDate),
			r.Get(dataset.FieldType),
			r.Get(dataset.FieldCountry),
			r.Get(dataset.FieldTitle))
		f.VerboseLog("    key: %s", r.NaturalKey())
	}
}

func printChangelog(f *OutputFormatter, history changelog.Changelog) {
	fmt.Fprintf(f.Writer, "\nChangelog (%d entries):\n", len(history))
	for _, e := range history {
		c := e.Delta.Counts()
		fmt.Fprintf(f.Writer, "  %s  %4d records  +%d -%d ~%d  %s\n",
			e.Timestamp, e.RecordCount, c.Added, c.Removed, c.Changed, shortHash(e.Fingerprint))
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
