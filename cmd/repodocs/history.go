package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fwojciec/repodocs"
	"github.com/fwojciec/repodocs/reposync"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if c.ID != "" {
		run, err := deps.Runs.FindRunByID(deps.Ctx, c.ID)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", repodocs.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Run %s started %s, took %s\n\n", run.RunID,
			run.StartedAt.Format(time.RFC3339), run.FinishedAt.Sub(run.StartedAt))
		fmt.Fprint(deps.Stdout, reposync.FormatReport(run))
		return nil
	}

	runs, err := deps.Runs.FindRuns(deps.Ctx, repodocs.RunFilter{Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", repodocs.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No sync runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	for _, run := range runs {
		succeeded, failed := run.Counts()
		fmt.Fprintf(tw, "%s\t%s\t%d ok\t%d failed\t%d pruned\t%s\n", run.RunID,
			run.StartedAt.Format("2006-01-02 15:04"), succeeded, failed, len(run.Pruned),
			run.FinishedAt.Sub(run.StartedAt))
	}
	return tw.Flush()
}
