package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/athanius07/EMESRT11/internal/logging"
	"github.com/athanius07/EMESRT11/internal/store"
)

// RefreshResult is the JSON payload of the refresh command. It matches
// the body of the HTTP refresh route.
type RefreshResult struct {
	OK      bool   `json:"ok"`
	Count   int    `json:"count"`
	TS      string `json:"ts"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Changed int    `json:"changed"`
	Store   string `json:"store"`
}

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the snapshot and append a changelog entry",
		Long: `Rebuild the snapshot from the configured provider, diff it against the
stored one, append a changelog entry and persist both.

An unreachable store is replaced by an ephemeral one, in which case
nothing outlives the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd.Context(), cmd, rootOpts)
		},
	}
}

func runRefresh(ctx context.Context, cmd *cobra.Command, opts *RootOptions) error {
	formatter := formatterFor(cmd, opts)

	rt, err := loadRuntime(opts, logging.Stderr)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	defer rt.close()

	st := rt.storeFor(ctx)
	defer st.Close()
	formatter.VerboseLog("Store: %s (%s)", rt.cfg.Store.Backend, st.Kind())

	res, err := rt.orchestrator(st).Refresh(ctx)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeRefreshFailed, "refresh failed", err)
	}

	out := RefreshResult{
		OK:    true,
		Count: len(res.Snapshot),
		TS:    res.GeneratedAt,
		Store: st.Kind().String(),
	}
	if head, ok := res.Changelog.Head(); ok {
		counts := head.Delta.Counts()
		out.Added, out.Removed, out.Changed = counts.Added, counts.Removed, counts.Changed
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "Refreshed %d records at %s\n", out.Count, out.TS)
	fmt.Fprintf(formatter.Writer, "  added: %d  removed: %d  changed: %d\n", out.Added, out.Removed, out.Changed)
	if st.Kind() != store.Durable {
		fmt.Fprintf(formatter.Writer, "  warning: %s store, changes were not persisted\n", st.Kind())
	}
	return nil
}
