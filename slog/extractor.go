package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/repodocs"
)

// Ensure LoggingExtractor implements repodocs.Extractor.
var _ repodocs.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor and logs once its extraction has been
// consumed.
type LoggingExtractor struct {
	next   repodocs.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next repodocs.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract returns an Extraction that forwards the wrapped one and logs its
// document and skip counts when iteration ends.
func (e *LoggingExtractor) Extract(ctx context.Context, tree *repodocs.WorkingTree) *repodocs.Extraction {
	inner := e.next.Extract(ctx, tree)

	var outer *repodocs.Extraction
	outer = repodocs.NewExtraction(func(emit func(*repodocs.RawDocument) bool, skip func(repodocs.SkippedFile)) (err error) {
		count := 0
		defer func(begin time.Time) {
			skipped := inner.Skipped()
			for _, s := range skipped {
				skip(s)
			}
			outer.SetCollisions(inner.Collisions())
			e.logger.Info("extract",
				"repo", tree.Repo,
				"documents", count,
				"skipped", len(skipped),
				"duration", time.Since(begin),
				"err", err,
			)
		}(time.Now())

		for doc, err := range inner.All() {
			if err != nil {
				return err
			}
			count++
			if !emit(doc) {
				return nil
			}
		}
		return nil
	})
	return outer
}
