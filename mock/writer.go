package mock

import (
	"context"

	"github.com/fwojciec/repodocs"
)

var _ repodocs.DocumentWriter = (*DocumentWriter)(nil)

// DocumentWriter is a mock implementation of repodocs.DocumentWriter.
type DocumentWriter struct {
	SaveFn   func(ctx context.Context, doc *repodocs.Document) error
	CommitFn func() error
	AbortFn  func() error
}

func (w *DocumentWriter) Save(ctx context.Context, doc *repodocs.Document) error {
	return w.SaveFn(ctx, doc)
}

func (w *DocumentWriter) Commit() error {
	return w.CommitFn()
}

func (w *DocumentWriter) Abort() error {
	return w.AbortFn()
}
