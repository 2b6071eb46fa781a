package gogit_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// testRepo is a local git repository used as a clone origin.
type testRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))))
	return &testRepo{t: t, dir: dir, repo: repo}
}

func signature() *object.Signature {
	return &object.Signature{Name: "Test", Email: "test@example.com", When: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// commit writes files and commits them on the current branch.
func (r *testRepo) commit(files map[string]string) plumbing.Hash {
	r.t.Helper()
	wt, err := r.repo.Worktree()
	require.NoError(r.t, err)
	for name, content := range files {
		path := filepath.Join(r.dir, filepath.FromSlash(name))
		require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(r.t, err)
	}
	hash, err := wt.Commit("update", &git.CommitOptions{Author: signature()})
	require.NoError(r.t, err)
	return hash
}

// branch creates a branch at hash without checking it out.
func (r *testRepo) branch(name string, hash plumbing.Hash) {
	r.t.Helper()
	require.NoError(r.t, r.repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), hash)))
}

func (r *testRepo) tag(name string, hash plumbing.Hash, annotated bool) {
	r.t.Helper()
	var opts *git.CreateTagOptions
	if annotated {
		opts = &git.CreateTagOptions{Tagger: signature(), Message: name}
	}
	_, err := r.repo.CreateTag(name, hash, opts)
	require.NoError(r.t, err)
}
