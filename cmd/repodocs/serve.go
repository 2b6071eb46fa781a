package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	rdhttp "github.com/fwojciec/repodocs/http"
)

// Run executes the serve command until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	addr := c.Addr
	if addr == "" && deps.Config != nil {
		addr = deps.Config.Server.Addr
	}
	if addr == "" {
		addr = ":8080"
	}

	srv := rdhttp.NewServer(deps.Store, deps.Runs)
	srv.Logger = deps.Logger
	if deps.Metrics != nil {
		srv.Metrics = deps.Metrics.Handler()
	}

	ctx, cancel := context.WithCancel(deps.Ctx)
	defer cancel()

	// The sync loop must stop before the database is closed.
	var wg sync.WaitGroup
	if c.SyncInterval > 0 && deps.Syncer != nil {
		wg.Go(func() { c.syncLoop(ctx, deps) })
	}

	fmt.Fprintf(deps.Stdout, "Listening on %s\n", addr)
	err := srv.ListenAndServe(ctx, addr)
	cancel()
	wg.Wait()
	return err
}

// syncLoop runs a sync immediately and then every SyncInterval.
func (c *ServeCmd) syncLoop(ctx context.Context, deps *Dependencies) {
	ticker := time.NewTicker(c.SyncInterval)
	defer ticker.Stop()

	for {
		c.syncOnce(ctx, deps)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *ServeCmd) syncOnce(ctx context.Context, deps *Dependencies) {
	report, err := deps.Syncer.Run(ctx, deps.Config.Repositories)
	if err != nil {
		deps.Logger.Error("scheduled sync failed", "err", err)
		return
	}
	if deps.Metrics != nil {
		deps.Metrics.ObserveReport(report)
	}
	succeeded, failed := report.Counts()
	deps.Logger.Info("scheduled sync finished", "run_id", report.RunID, "succeeded", succeeded, "failed", failed)
}
