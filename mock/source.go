package mock

import (
	"context"

	"github.com/fwojciec/repodocs"
)

var _ repodocs.RepositorySource = (*RepositorySource)(nil)

// RepositorySource is a mock implementation of repodocs.RepositorySource.
type RepositorySource struct {
	FetchFn func(ctx context.Context, cfg repodocs.RepositoryConfig, workDir string) (*repodocs.WorkingTree, error)
}

func (s *RepositorySource) Fetch(ctx context.Context, cfg repodocs.RepositoryConfig, workDir string) (*repodocs.WorkingTree, error) {
	return s.FetchFn(ctx, cfg, workDir)
}

var _ repodocs.VersionResolver = (*VersionResolver)(nil)

// VersionResolver is a mock implementation of repodocs.VersionResolver.
type VersionResolver struct {
	ResolveFn func(ctx context.Context, tree *repodocs.WorkingTree, cfg repodocs.RepositoryConfig) repodocs.Version
}

func (r *VersionResolver) Resolve(ctx context.Context, tree *repodocs.WorkingTree, cfg repodocs.RepositoryConfig) repodocs.Version {
	return r.ResolveFn(ctx, tree, cfg)
}
