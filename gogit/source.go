// Package gogit implements repository cloning and version resolution with go-git.
package gogit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/repodocs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Compile-time interface verification.
var _ repodocs.RepositorySource = (*Source)(nil)

// Source clones repositories into a working directory.
type Source struct {
	// Depth limits the fetched history. Zero fetches everything.
	Depth int

	// Timeout bounds a single clone. Zero leaves only the context deadline.
	Timeout time.Duration
}

// NewSource creates a new Source.
func NewSource() *Source {
	return &Source{}
}

// Fetch clones cfg into workDir/<name>, removing any previous checkout first.
// A failed clone leaves no directory behind.
func (s *Source) Fetch(ctx context.Context, cfg repodocs.RepositoryConfig, workDir string) (*repodocs.WorkingTree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(filepath.Join(workDir, cfg.Name))
	if err != nil {
		return nil, repodocs.WrapError(repodocs.EIO, err, "failed to resolve checkout path for %s", cfg.Name)
	}
	if err := os.RemoveAll(root); err != nil {
		return nil, repodocs.WrapError(repodocs.EIO, err, "failed to remove previous checkout of %s", cfg.Name)
	}
	if err := os.MkdirAll(filepath.Dir(root), 0o755); err != nil {
		return nil, repodocs.WrapError(repodocs.EIO, err, "failed to create working directory")
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	branch := cfg.BranchOrDefault()
	repo, err := git.PlainCloneContext(ctx, root, false, &git.CloneOptions{
		URL:           cfg.URL,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         s.Depth,
		Tags:          git.AllTags, // the resolver reads tags at HEAD
	})
	if err != nil {
		os.RemoveAll(root)
		return nil, cloneError(err, cfg, branch)
	}

	head, err := repo.Head()
	if err != nil {
		os.RemoveAll(root)
		return nil, repodocs.WrapError(repodocs.ECLONE, err, "failed to read HEAD of %s", cfg.Name)
	}

	return &repodocs.WorkingTree{
		Repo:   cfg.Name,
		Root:   root,
		Branch: branch,
		Commit: head.Hash().String(),
	}, nil
}

// cloneError separates a missing branch from every other clone failure.
func cloneError(err error, cfg repodocs.RepositoryConfig, branch string) error {
	var noMatch git.NoMatchingRefSpecError
	if errors.As(err, &noMatch) ||
		errors.Is(err, plumbing.ErrReferenceNotFound) ||
		errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return repodocs.WrapError(repodocs.EBRANCH, err, "branch %q not found in %s", branch, cfg.URL)
	}
	return repodocs.WrapError(repodocs.ECLONE, err, "failed to clone %s", cfg.URL)
}
