// Package reposync synchronizes configured repositories into a document store.
// It coordinates cloning, extraction, version resolution and storage of each
// repository and isolates their failures from one another.
package reposync

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fwojciec/repodocs"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs the sync pipeline for a set of repositories.
type Orchestrator struct {
	Source    repodocs.RepositorySource
	Extractor repodocs.Extractor
	Resolver  repodocs.VersionResolver
	Store     repodocs.DocumentStore

	// Optional stages.
	Indexer repodocs.Indexer
	Runs    repodocs.RunService
	Limiter repodocs.HostLimiter

	Logger *slog.Logger

	// WorkDir holds one working tree per repository.
	WorkDir string

	// Concurrency bounds the repositories processed at once. Defaults to 1.
	Concurrency int

	// RetryDelays are the waits between clone attempts. Nil uses
	// DefaultRetryDelays; an empty slice disables retries.
	RetryDelays []time.Duration

	// Prune deletes stored repositories that are no longer configured.
	Prune bool

	// Cleanup removes each working tree once its repository is done.
	Cleanup bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Run synchronizes repos and reports the outcome of each. It returns an error
// only when the run cannot start: invalid configuration or an unusable store.
// Per-repository failures are recorded in the report.
func (o *Orchestrator) Run(ctx context.Context, repos []repodocs.RepositoryConfig) (*repodocs.SyncReport, error) {
	if err := repodocs.ValidateRepositories(repos); err != nil {
		return nil, err
	}
	if o.WorkDir == "" {
		return nil, repodocs.Errorf(repodocs.ECONFIG, "working directory required")
	}

	report := &repodocs.SyncReport{
		RunID:     uuid.NewString(),
		StartedAt: o.now().UTC(),
		Repos:     make(map[string]*repodocs.RepoResult, len(repos)),
	}
	logger := o.logger().With("run_id", report.RunID)

	if err := o.Store.Initialize(ctx); err != nil {
		return nil, err
	}

	concurrency := o.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var mu sync.Mutex
	record := func(name string, res *repodocs.RepoResult) {
		mu.Lock()
		report.Repos[name] = res
		mu.Unlock()
	}

	// A plain group: one repository failing must not cancel the others.
	var g errgroup.Group
	g.SetLimit(concurrency)

	for _, cfg := range repos {
		if ctx.Err() != nil {
			record(cfg.Name, o.canceled(ctx, logger, cfg))
			continue
		}
		g.Go(func() error {
			record(cfg.Name, o.syncRepo(ctx, logger, cfg))
			return nil
		})
	}
	_ = g.Wait()

	if o.Prune {
		if ctx.Err() != nil {
			logger.Warn("prune skipped", "reason", context.Cause(ctx))
		} else {
			report.Pruned = o.prune(ctx, logger, repos)
		}
	}

	report.FinishedAt = o.now().UTC()

	if o.Runs != nil {
		if err := o.Runs.CreateRun(context.WithoutCancel(ctx), report); err != nil {
			logger.Warn("failed to record run", "err", err)
		}
	}

	succeeded, failed := report.Counts()
	logger.Info("sync finished",
		"succeeded", succeeded,
		"failed", failed,
		"pruned", len(report.Pruned),
		"duration", report.FinishedAt.Sub(report.StartedAt))

	return report, nil
}

func (o *Orchestrator) canceled(ctx context.Context, logger *slog.Logger, cfg repodocs.RepositoryConfig) *repodocs.RepoResult {
	cause := context.Cause(ctx)
	logger.Warn("repository not started", "repo", cfg.Name, "err", cause)
	return &repodocs.RepoResult{Status: repodocs.StatusFailed, Error: cause.Error()}
}

// syncRepo runs Fetching, Extracting, Resolving and Storing for one
// repository. Cancellation is honored between stages; the store
// transaction itself always runs to completion.
func (o *Orchestrator) syncRepo(ctx context.Context, logger *slog.Logger, cfg repodocs.RepositoryConfig) *repodocs.RepoResult {
	if ctx.Err() != nil {
		return o.canceled(ctx, logger, cfg)
	}

	logger = logger.With("repo", cfg.Name)
	res := &repodocs.RepoResult{Status: repodocs.StatusFailed}
	fail := func(stage string, err error) *repodocs.RepoResult {
		res.Error = err.Error()
		logger.Error("repository failed", "stage", stage, "err", err)
		return res
	}

	// Fetching
	tree, attempts, err := o.fetch(ctx, logger, cfg)
	res.Attempts = attempts
	if err != nil {
		return fail("fetch", err)
	}
	res.Commit = tree.Commit
	if o.Cleanup {
		defer func() {
			if err := os.RemoveAll(tree.Root); err != nil {
				logger.Warn("failed to remove working tree", "path", tree.Root, "err", err)
			}
		}()
	}
	if ctx.Err() != nil {
		return fail("fetch", context.Cause(ctx))
	}

	// Extracting
	extraction := o.Extractor.Extract(ctx, tree)
	var raws []*repodocs.RawDocument
	for raw, err := range extraction.All() {
		if err != nil {
			return fail("extract", err)
		}
		raws = append(raws, raw)
	}
	for _, s := range extraction.Skipped() {
		logger.Debug("file skipped", "path", s.Path, "reason", s.Reason)
	}
	for _, group := range extraction.Collisions() {
		logger.Warn("paths differ only by case", "paths", group)
	}
	res.Skipped = len(extraction.Skipped())
	if ctx.Err() != nil {
		return fail("extract", context.Cause(ctx))
	}

	// Resolving
	version := o.Resolver.Resolve(ctx, tree, cfg)
	res.Version = version.String()

	docs := make([]*repodocs.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, &repodocs.Document{
			Repo:    cfg.Name,
			Path:    raw.Path,
			Content: string(raw.Content),
			Version: version,
		})
	}

	// Storing
	replaced, err := o.Store.Replace(context.WithoutCancel(ctx), cfg.Name, docs)
	if err != nil {
		return fail("store", err)
	}

	res.Status = repodocs.StatusSuccess
	res.DocumentCount = len(docs)
	res.Inserted = replaced.Inserted
	res.Deleted = replaced.Deleted
	res.Unchanged = replaced.Unchanged

	if o.Indexer != nil && ctx.Err() == nil {
		if err := o.Indexer.Index(ctx, cfg.Name, docs); err != nil {
			logger.Warn("indexing failed", "err", err)
		}
	}

	logger.Info("repository synced",
		"documents", res.DocumentCount,
		"skipped", res.Skipped,
		"inserted", res.Inserted,
		"deleted", res.Deleted,
		"unchanged", res.Unchanged,
		"version", res.Version,
		"attempts", res.Attempts)

	return res
}

// fetch clones cfg, retrying clone failures. A missing branch is permanent.
func (o *Orchestrator) fetch(ctx context.Context, logger *slog.Logger, cfg repodocs.RepositoryConfig) (*repodocs.WorkingTree, int, error) {
	delays := o.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	retryable := func(err error) bool {
		return repodocs.ErrorCode(err) == repodocs.ECLONE && ctx.Err() == nil
	}
	onRetry := func(attempt int, delay time.Duration, err error) {
		logger.Warn("retrying clone", "attempt", attempt, "delay", delay, "err", err)
	}

	var tree *repodocs.WorkingTree
	attempts, err := WithRetry(ctx, delays, retryable, onRetry, func(ctx context.Context) error {
		if o.Limiter != nil {
			if err := o.Limiter.Wait(ctx, HostOf(cfg.URL)); err != nil {
				return err
			}
		}
		var err error
		tree, err = o.Source.Fetch(ctx, cfg, o.WorkDir)
		return err
	})
	if err != nil {
		return nil, attempts, err
	}
	return tree, attempts, nil
}

// prune deletes repositories present in the store but absent from repos.
func (o *Orchestrator) prune(ctx context.Context, logger *slog.Logger, repos []repodocs.RepositoryConfig) []string {
	configured := make(map[string]bool, len(repos))
	for _, cfg := range repos {
		configured[cfg.Name] = true
	}

	stored, err := o.Store.Repos(ctx)
	if err != nil {
		logger.Warn("prune failed", "err", err)
		return nil
	}

	var pruned []string
	for _, summary := range stored {
		if configured[summary.Name] {
			continue
		}
		n, err := o.Store.DeleteRepo(ctx, summary.Name)
		if err != nil {
			logger.Warn("failed to prune repository", "repo", summary.Name, "err", err)
			continue
		}
		logger.Info("repository pruned", "repo", summary.Name, "documents", n)
		pruned = append(pruned, summary.Name)
	}
	return pruned
}
