package gogit

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fwojciec/repodocs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Compile-time interface verification.
var _ repodocs.VersionResolver = (*Resolver)(nil)

// Resolver labels a checkout with the tag at HEAD, or "latest".
type Resolver struct {
	// PinCommits labels untagged checkouts "commit:<sha>" instead of "latest".
	PinCommits bool
}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve never fails: any git error falls back to "latest".
// When several tags point at HEAD the greatest one wins.
func (r *Resolver) Resolve(ctx context.Context, tree *repodocs.WorkingTree, cfg repodocs.RepositoryConfig) repodocs.Version {
	repo, err := git.PlainOpen(tree.Root)
	if err != nil {
		return repodocs.Latest()
	}
	head, err := repo.Head()
	if err != nil {
		return repodocs.Latest()
	}

	if name := greatestTag(headTags(repo, head.Hash())); name != "" {
		if v, err := repodocs.TagVersion(name); err == nil {
			return v
		}
	}

	if r.PinCommits {
		if v, err := repodocs.CommitVersion(head.Hash().String()); err == nil {
			return v
		}
	}
	return repodocs.Latest()
}

// headTags returns the names of lightweight and annotated tags pointing at hash.
func headTags(repo *git.Repository, hash plumbing.Hash) []string {
	iter, err := repo.Tags()
	if err != nil {
		return nil
	}
	defer iter.Close()

	var names []string
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tag, err := repo.TagObject(target); err == nil {
			commit, err := tag.Commit()
			if err != nil {
				return nil
			}
			target = commit.Hash
		}
		if target == hash {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	return names
}

// greatestTag orders semantic versions above other names, then by version,
// then lexically.
func greatestTag(names []string) string {
	var best string
	for _, name := range names {
		if best == "" || tagLess(best, name) {
			best = name
		}
	}
	return best
}

func tagLess(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		if c := va.Compare(vb); c != 0 {
			return c < 0
		}
	case errA == nil:
		return false
	case errB == nil:
		return true
	}
	return strings.Compare(a, b) < 0
}
