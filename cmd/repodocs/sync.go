package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/repodocs"
	"github.com/fwojciec/repodocs/reposync"
)

// Run executes the sync command. It fails when any repository failed.
func (c *SyncCmd) Run(deps *Dependencies) error {
	ctx := deps.Ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, c.Timeout, fmt.Errorf("sync timed out after %s", c.Timeout))
		defer cancel()
	}

	report, err := deps.Syncer.Run(ctx, deps.Config.Repositories)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", repodocs.ErrorMessage(err))
		return err
	}

	fmt.Fprint(deps.Stdout, reposync.FormatReport(report))

	if _, failed := report.Counts(); failed > 0 {
		return fmt.Errorf("%d of %d repositories failed", failed, len(report.Repos))
	}
	return nil
}
