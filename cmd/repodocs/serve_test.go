package main_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fwojciec/repodocs"
	main "github.com/fwojciec/repodocs/cmd/repodocs"
	"github.com/fwojciec/repodocs/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("stops when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    ctx,
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Logger: slog.New(slog.DiscardHandler),
			Store:  docsStore(),
		}

		require.NoError(t, (&main.ServeCmd{Addr: "127.0.0.1:0"}).Run(deps))
		assert.Contains(t, stdout.String(), "Listening on 127.0.0.1:0")
	})

	t.Run("runs scheduled syncs and records their outcome", func(t *testing.T) {
		t.Parallel()

		metrics, err := prometheus.NewMetrics()
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		syncer := syncerFunc(func(context.Context, []repodocs.RepositoryConfig) (*repodocs.SyncReport, error) {
			cancel()
			return &repodocs.SyncReport{
				RunID: "run-1",
				Repos: map[string]*repodocs.RepoResult{
					"alpha": {Status: repodocs.StatusSuccess, DocumentCount: 3},
					"beta":  {Status: repodocs.StatusFailed, Error: "clone error: timeout"},
				},
			}, nil
		})

		deps := &main.Dependencies{
			Ctx:     ctx,
			Stdout:  &bytes.Buffer{},
			Stderr:  &bytes.Buffer{},
			Logger:  slog.New(slog.DiscardHandler),
			Config:  testConfig("alpha", "beta"),
			Store:   docsStore(),
			Syncer:  syncer,
			Metrics: metrics,
		}

		require.NoError(t, (&main.ServeCmd{Addr: "127.0.0.1:0", SyncInterval: time.Hour}).Run(deps))

		assert.InDelta(t, 1, testutil.ToFloat64(metrics.SyncReposTotal.WithLabelValues("success")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.SyncReposTotal.WithLabelValues("failed")), 0)
		assert.InDelta(t, 3, testutil.ToFloat64(metrics.DocumentsStored.WithLabelValues("alpha")), 0)
	})

	t.Run("keeps serving when a scheduled sync cannot start", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		calls := 0
		syncer := syncerFunc(func(context.Context, []repodocs.RepositoryConfig) (*repodocs.SyncReport, error) {
			calls++
			cancel()
			return nil, repodocs.Errorf(repodocs.ESCHEMA, "incompatible schema")
		})

		deps := &main.Dependencies{
			Ctx:    ctx,
			Stdout: &bytes.Buffer{},
			Stderr: &bytes.Buffer{},
			Logger: slog.New(slog.DiscardHandler),
			Config: testConfig("alpha"),
			Store:  docsStore(),
			Syncer: syncer,
		}

		require.NoError(t, (&main.ServeCmd{Addr: "127.0.0.1:0", SyncInterval: time.Hour}).Run(deps))
		assert.Equal(t, 1, calls)
	})
}
