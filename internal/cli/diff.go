package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/athanius07/EMESRT11/internal/dataset"
	"github.com/athanius07/EMESRT11/internal/delta"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	ExitCode bool
}

// DiffResult is the JSON payload of the diff command.
type DiffResult struct {
	Delta      delta.Delta `json:"delta"`
	OldCount   int         `json:"old_count"`
	NewCount   int         `json:"new_count"`
	OldHash    string      `json:"old_hash"`
	NewHash    string      `json:"new_hash"`
	Identical  bool        `json:"identical"`
	Duplicates []string    `json:"duplicates,omitempty"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <old.json> <new.json>",
		Short: "Compare two dataset files",
		Long: `Compare two JSON arrays of records by natural key and report which
keys were added, removed or changed. Neither file is modified and no
store is touched.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.ExitCode, "exit-code", false, "exit 1 when the files differ")

	return cmd
}

func runDiff(cmd *cobra.Command, opts *DiffOptions, oldPath, newPath string) error {
	formatter := formatterFor(cmd, opts.RootOptions)

	prev, err := dataset.LoadFile(oldPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, "failed to load old dataset", err)
	}
	next, err := dataset.LoadFile(newPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, "failed to load new dataset", err)
	}
	formatter.VerboseLog("Loaded %d and %d records", len(prev), len(next))

	d := delta.Diff(prev, next)
	out := DiffResult{
		Delta:      d,
		OldCount:   len(prev),
		NewCount:   len(next),
		OldHash:    prev.Fingerprint(),
		NewHash:    next.Fingerprint(),
		Identical:  d.Empty(),
		Duplicates: append(prev.Duplicates(), next.Duplicates()...),
	}

	if opts.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		printDelta(formatter, out)
	}

	if opts.ExitCode && !out.Identical {
		return NewExitError(ExitFailure, "datasets differ")
	}
	return nil
}

func printDelta(f *OutputFormatter, out DiffResult) {
	if out.Identical {
		fmt.Fprintln(f.Writer, "No changes")
	}
	for _, k := range out.Delta.Added {
		fmt.Fprintf(f.Writer, "+ %s\n", k)
	}
	for _, k := range out.Delta.Removed {
		fmt.Fprintf(f.Writer, "- %s\n", k)
	}
	for _, k := range out.Delta.Changed {
		fmt.Fprintf(f.Writer, "~ %s\n", k)
	}
	c := out.Delta.Counts()
	fmt.Fprintf(f.Writer, "%d added, %d removed, %d changed (%d -> %d records)\n",
		c.Added, c.Removed, c.Changed, out.OldCount, out.NewCount)
	for _, k := range out.Duplicates {
		fmt.Fprintf(f.Writer, "warning: duplicate key %s, last record wins\n", k)
	}
	f.VerboseLog("old hash: %s", out.OldHash)
	f.VerboseLog("new hash: %s", out.NewHash)
}
