package repodocs

import (
	"context"
	"strings"
)

// DefaultBranch is checked out when a repository does not name a branch.
const DefaultBranch = "main"

// RepositoryConfig describes one repository to synchronize.
// Name is unique across a configuration and partitions the store.
type RepositoryConfig struct {
	URL    string `json:"url" koanf:"url"`
	Name   string `json:"name" koanf:"name"`
	Branch string `json:"branch" koanf:"branch"`
}

// Validate returns an error if the repository contains invalid fields.
func (r *RepositoryConfig) Validate() error {
	if r.URL == "" {
		return Errorf(ECONFIG, "repository url required")
	}
	if r.Name == "" {
		return Errorf(ECONFIG, "repository name required for %s", r.URL)
	}
	if r.Name == "." || r.Name == ".." || strings.ContainsAny(r.Name, `/\`) {
		return Errorf(ECONFIG, "repository name %q must be a single path segment", r.Name)
	}
	return nil
}

// BranchOrDefault returns the configured branch, or DefaultBranch.
func (r *RepositoryConfig) BranchOrDefault() string {
	if r.Branch == "" {
		return DefaultBranch
	}
	return r.Branch
}

// ValidateRepositories validates every entry and rejects duplicate names.
func ValidateRepositories(repos []RepositoryConfig) error {
	seen := make(map[string]bool, len(repos))
	for i := range repos {
		if err := repos[i].Validate(); err != nil {
			return err
		}
		if seen[repos[i].Name] {
			return Errorf(ECONFIG, "duplicate repository name %q", repos[i].Name)
		}
		seen[repos[i].Name] = true
	}
	return nil
}

// WorkingTree is a local checkout of a repository.
type WorkingTree struct {
	Repo   string // RepositoryConfig.Name
	Root   string // absolute path of the checkout
	Branch string
	Commit string // checked-out commit SHA, empty if unknown
}

// RepositorySource clones repositories to local working trees.
type RepositorySource interface {
	// Fetch clones cfg into a repository-scoped directory under workDir,
	// replacing any previous checkout, and checks out cfg's branch.
	// Returns EBRANCH if the branch does not exist and ECLONE for network,
	// authentication or URL failures. The caller owns the returned tree.
	Fetch(ctx context.Context, cfg RepositoryConfig, workDir string) (*WorkingTree, error)
}

// HostLimiter throttles clones per remote host.
type HostLimiter interface {
	// Wait blocks until a clone from host is allowed or ctx is done.
	Wait(ctx context.Context, host string) error
}
