package repodocs

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// Document is a Markdown file stored for a repository.
type Document struct {
	ID          int64     `json:"id"`
	Repo        string    `json:"repo"`
	Path        string    `json:"path"`
	Content     string    `json:"content"`
	Version     Version   `json:"version"`
	ContentHash string    `json:"contentHash,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.Repo == "" {
		return Errorf(EINVALID, "document repo required")
	}
	if err := ValidatePath(d.Path); err != nil {
		return err
	}
	if !utf8.ValidString(d.Content) {
		return Errorf(EINVALID, "document %q content is not valid UTF-8", d.Path)
	}
	return nil
}

// ValidatePath returns an error unless path is a non-empty relative path
// using forward slashes only.
func ValidatePath(path string) error {
	if path == "" {
		return Errorf(EINVALID, "document path required")
	}
	if strings.HasPrefix(path, "/") || strings.Contains(path, `\`) {
		return Errorf(EINVALID, "document path %q must be relative and slash-separated", path)
	}
	return nil
}

// RawDocument is a file read from a working tree, before versioning.
type RawDocument struct {
	Path    string // relative to the tree root, forward slashes
	Content []byte
}

// ReplaceReport counts the rows touched by DocumentStore.Replace.
type ReplaceReport struct {
	Inserted  int `json:"inserted"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"` // inserted rows whose content matched the prior snapshot
}

// DocumentFilter represents a filter for FindDocuments.
type DocumentFilter struct {
	Repo    *string `json:"repo"`
	Path    *string `json:"path"`
	Version *string `json:"version"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// SearchQuery represents a full-text query over document paths and content.
type SearchQuery struct {
	Query string  `json:"query"`
	Repo  *string `json:"repo"`
	Limit int     `json:"limit"`
}

// SearchResult is one full-text hit.
type SearchResult struct {
	Repo    string  `json:"repo"`
	Path    string  `json:"path"`
	Version Version `json:"version"`
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

// RepoSummary describes a repository present in the store.
type RepoSummary struct {
	Name          string    `json:"name"`
	DocumentCount int       `json:"documentCount"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DocumentStore persists documents partitioned by repository.
type DocumentStore interface {
	// Initialize creates the schema if absent. Safe to call on every run.
	// Returns ESCHEMA if an existing schema is incompatible.
	Initialize(ctx context.Context) error

	// Replace swaps all documents of repo for docs in one transaction.
	// On failure the previous snapshot is left intact.
	Replace(ctx context.Context, repo string, docs []*Document) (*ReplaceReport, error)

	// FindDocuments retrieves documents matching the filter, ordered by
	// repo and path.
	FindDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error)

	// SearchDocuments runs a full-text query, best matches first.
	SearchDocuments(ctx context.Context, q SearchQuery) ([]*SearchResult, error)

	// Repos lists repositories that have documents in the store.
	Repos(ctx context.Context) ([]*RepoSummary, error)

	// DeleteRepo removes every document of repo. Returns the number removed.
	DeleteRepo(ctx context.Context, repo string) (int, error)
}

// Indexer is an optional stage run after a repository's documents were
// stored, such as embedding generation.
type Indexer interface {
	Index(ctx context.Context, repo string, docs []*Document) error
}

// DocumentWriter writes documents to an export destination. Nothing is
// visible at the destination until Commit.
type DocumentWriter interface {
	Save(ctx context.Context, doc *Document) error
	Commit() error
	Abort() error
}
