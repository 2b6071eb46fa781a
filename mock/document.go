package mock

import (
	"context"

	"github.com/fwojciec/repodocs"
)

var _ repodocs.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is a mock implementation of repodocs.DocumentStore.
type DocumentStore struct {
	InitializeFn      func(ctx context.Context) error
	ReplaceFn         func(ctx context.Context, repo string, docs []*repodocs.Document) (*repodocs.ReplaceReport, error)
	FindDocumentsFn   func(ctx context.Context, filter repodocs.DocumentFilter) ([]*repodocs.Document, error)
	SearchDocumentsFn func(ctx context.Context, q repodocs.SearchQuery) ([]*repodocs.SearchResult, error)
	ReposFn           func(ctx context.Context) ([]*repodocs.RepoSummary, error)
	DeleteRepoFn      func(ctx context.Context, repo string) (int, error)
}

func (s *DocumentStore) Initialize(ctx context.Context) error {
	return s.InitializeFn(ctx)
}

func (s *DocumentStore) Replace(ctx context.Context, repo string, docs []*repodocs.Document) (*repodocs.ReplaceReport, error) {
	return s.ReplaceFn(ctx, repo, docs)
}

func (s *DocumentStore) FindDocuments(ctx context.Context, filter repodocs.DocumentFilter) ([]*repodocs.Document, error) {
	return s.FindDocumentsFn(ctx, filter)
}

func (s *DocumentStore) SearchDocuments(ctx context.Context, q repodocs.SearchQuery) ([]*repodocs.SearchResult, error) {
	return s.SearchDocumentsFn(ctx, q)
}

func (s *DocumentStore) Repos(ctx context.Context) ([]*repodocs.RepoSummary, error) {
	return s.ReposFn(ctx)
}

func (s *DocumentStore) DeleteRepo(ctx context.Context, repo string) (int, error) {
	return s.DeleteRepoFn(ctx, repo)
}

var _ repodocs.Indexer = (*Indexer)(nil)

// Indexer is a mock implementation of repodocs.Indexer.
type Indexer struct {
	IndexFn func(ctx context.Context, repo string, docs []*repodocs.Document) error
}

func (i *Indexer) Index(ctx context.Context, repo string, docs []*repodocs.Document) error {
	return i.IndexFn(ctx, repo, docs)
}
