package mock

import (
	"context"

	"github.com/fwojciec/repodocs"
)

var _ repodocs.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of repodocs.Extractor.
type Extractor struct {
	ExtractFn func(ctx context.Context, tree *repodocs.WorkingTree) *repodocs.Extraction
}

func (e *Extractor) Extract(ctx context.Context, tree *repodocs.WorkingTree) *repodocs.Extraction {
	return e.ExtractFn(ctx, tree)
}
