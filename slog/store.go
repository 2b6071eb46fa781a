package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/repodocs"
)

// Ensure LoggingStore implements repodocs.DocumentStore.
var _ repodocs.DocumentStore = (*LoggingStore)(nil)

// LoggingStore wraps a DocumentStore with logging of writes. Reads are
// logged at debug level.
type LoggingStore struct {
	next   repodocs.DocumentStore
	logger *slog.Logger
}

// NewLoggingStore creates a new LoggingStore.
func NewLoggingStore(next repodocs.DocumentStore, logger *slog.Logger) *LoggingStore {
	return &LoggingStore{next: next, logger: logger}
}

func (s *LoggingStore) Initialize(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("store initialize", "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.Initialize(ctx)
}

// Replace delegates to the wrapped store and logs the row counts.
func (s *LoggingStore) Replace(ctx context.Context, repo string, docs []*repodocs.Document) (report *repodocs.ReplaceReport, err error) {
	defer func(begin time.Time) {
		attrs := []any{"repo", repo, "documents", len(docs)}
		if report != nil {
			attrs = append(attrs, "inserted", report.Inserted, "deleted", report.Deleted, "unchanged", report.Unchanged)
		}
		attrs = append(attrs, "duration", time.Since(begin), "err", err)
		s.logger.Info("store replace", attrs...)
	}(time.Now())
	return s.next.Replace(ctx, repo, docs)
}

func (s *LoggingStore) FindDocuments(ctx context.Context, filter repodocs.DocumentFilter) (docs []*repodocs.Document, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("store find", "count", len(docs), "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.FindDocuments(ctx, filter)
}

func (s *LoggingStore) SearchDocuments(ctx context.Context, q repodocs.SearchQuery) (results []*repodocs.SearchResult, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("store search", "query", q.Query, "count", len(results), "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.SearchDocuments(ctx, q)
}

func (s *LoggingStore) Repos(ctx context.Context) (repos []*repodocs.RepoSummary, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("store repos", "count", len(repos), "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.Repos(ctx)
}

// DeleteRepo delegates to the wrapped store and logs the removal.
func (s *LoggingStore) DeleteRepo(ctx context.Context, repo string) (n int, err error) {
	defer func(begin time.Time) {
		s.logger.Info("store delete", "repo", repo, "documents", n, "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.DeleteRepo(ctx, repo)
}
