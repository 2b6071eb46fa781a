// Package slog provides logging decorators for the repodocs pipeline ports.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/repodocs"
)

// Ensure LoggingSource implements repodocs.RepositorySource.
var _ repodocs.RepositorySource = (*LoggingSource)(nil)

// LoggingSource wraps a RepositorySource with clone logging.
type LoggingSource struct {
	next   repodocs.RepositorySource
	logger *slog.Logger
}

// NewLoggingSource creates a new LoggingSource.
func NewLoggingSource(next repodocs.RepositorySource, logger *slog.Logger) *LoggingSource {
	return &LoggingSource{next: next, logger: logger}
}

// Fetch delegates to the wrapped source and logs the clone.
func (s *LoggingSource) Fetch(ctx context.Context, cfg repodocs.RepositoryConfig, workDir string) (tree *repodocs.WorkingTree, err error) {
	defer func(begin time.Time) {
		var commit string
		if tree != nil {
			commit = tree.Commit
		}
		s.logger.Info("clone",
			"repo", cfg.Name,
			"url", cfg.URL,
			"branch", cfg.BranchOrDefault(),
			"commit", commit,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Fetch(ctx, cfg, workDir)
}

// Ensure LoggingResolver implements repodocs.VersionResolver.
var _ repodocs.VersionResolver = (*LoggingResolver)(nil)

// LoggingResolver wraps a VersionResolver with debug logging.
type LoggingResolver struct {
	next   repodocs.VersionResolver
	logger *slog.Logger
}

// NewLoggingResolver creates a new LoggingResolver.
func NewLoggingResolver(next repodocs.VersionResolver, logger *slog.Logger) *LoggingResolver {
	return &LoggingResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs the chosen version.
func (r *LoggingResolver) Resolve(ctx context.Context, tree *repodocs.WorkingTree, cfg repodocs.RepositoryConfig) repodocs.Version {
	begin := time.Now()
	v := r.next.Resolve(ctx, tree, cfg)
	r.logger.Debug("version resolved",
		"repo", cfg.Name,
		"version", v.String(),
		"duration", time.Since(begin),
	)
	return v
}
