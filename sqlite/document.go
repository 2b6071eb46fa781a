package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/repodocs"
)

// Compile-time interface verification.
var _ repodocs.DocumentStore = (*DocumentStore)(nil)

// DefaultSearchLimit caps search results when the query sets no limit.
const DefaultSearchLimit = 20

// DocumentStore implements repodocs.DocumentStore using SQLite.
type DocumentStore struct {
	db *DB

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db, Now: time.Now}
}

// Initialize creates the schema if absent and verifies an existing one.
func (s *DocumentStore) Initialize(ctx context.Context) error {
	return s.db.migrate(ctx)
}

type priorDoc struct {
	hash      string
	createdAt string
}

// Replace swaps every document of repo for docs inside one transaction.
// Documents whose path existed before keep their original created_at.
func (s *DocumentStore) Replace(ctx context.Context, repo string, docs []*repodocs.Document) (*repodocs.ReplaceReport, error) {
	if repo == "" {
		return nil, repodocs.Errorf(repodocs.EINVALID, "repo required")
	}
	for _, doc := range docs {
		if doc.Repo != repo {
			return nil, repodocs.Errorf(repodocs.EINVALID, "document %q belongs to %q, not %q", doc.Path, doc.Repo, repo)
		}
		if err := doc.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	prior, err := s.priorDocs(ctx, tx, repo)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM docs WHERE repo = ?", repo)
	if err != nil {
		return nil, storeError(err, "failed to delete documents of %s", repo)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return nil, storeError(err, "failed to count deleted documents")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO docs (repo, path, content, content_hash, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, storeError(err, "failed to prepare insert")
	}
	defer stmt.Close()

	report := &repodocs.ReplaceReport{Deleted: int(deleted)}
	now := formatTime(s.Now())

	for _, doc := range docs {
		hash := hashContent(doc.Content)
		createdAt := now
		if p, ok := prior[doc.Path]; ok {
			createdAt = p.createdAt
			if p.hash == hash {
				report.Unchanged++
			}
		}

		result, err := stmt.ExecContext(ctx, doc.Repo, doc.Path, doc.Content, hash, doc.Version.String(), createdAt, now)
		if err != nil {
			return nil, storeError(err, "failed to insert %s:%s", doc.Repo, doc.Path)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, storeError(err, "failed to read document id")
		}

		doc.ID = id
		doc.ContentHash = hash
		if doc.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, repodocs.WrapError(repodocs.ESCHEMA, err, "stored document %s:%s", doc.Repo, doc.Path)
		}
		doc.UpdatedAt, _ = parseRFC3339(now, "updated_at")
		report.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(err, "failed to commit documents of %s", repo)
	}

	return report, nil
}

func (s *DocumentStore) priorDocs(ctx context.Context, tx *sql.Tx, repo string) (map[string]priorDoc, error) {
	rows, err := tx.QueryContext(ctx, "SELECT path, content_hash, created_at FROM docs WHERE repo = ?", repo)
	if err != nil {
		return nil, storeError(err, "failed to read documents of %s", repo)
	}
	defer rows.Close()

	prior := make(map[string]priorDoc)
	for rows.Next() {
		var path string
		var p priorDoc
		if err := rows.Scan(&path, &p.hash, &p.createdAt); err != nil {
			return nil, storeError(err, "failed to scan document")
		}
		prior[path] = p
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "failed to read documents of %s", repo)
	}
	return prior, nil
}

// FindDocuments retrieves documents matching the filter.
func (s *DocumentStore) FindDocuments(ctx context.Context, filter repodocs.DocumentFilter) ([]*repodocs.Document, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, repo, path, content, content_hash, version, created_at, updated_at FROM docs WHERE 1=1")

	if filter.Repo != nil {
		query.WriteString(" AND repo = ?")
		args = append(args, *filter.Repo)
	}
	if filter.Path != nil {
		query.WriteString(" AND path = ?")
		args = append(args, *filter.Path)
	}
	if filter.Version != nil {
		query.WriteString(" AND version = ?")
		args = append(args, *filter.Version)
	}

	query.WriteString(" ORDER BY repo ASC, path ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, storeError(err, "failed to query documents")
	}
	defer rows.Close()

	var docs []*repodocs.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, storeError(rows.Err(), "failed to read documents")
}

func scanDocument(rows *sql.Rows) (*repodocs.Document, error) {
	var doc repodocs.Document
	var version, createdAt, updatedAt string

	if err := rows.Scan(&doc.ID, &doc.Repo, &doc.Path, &doc.Content, &doc.ContentHash,
		&version, &createdAt, &updatedAt); err != nil {
		return nil, storeError(err, "failed to scan document")
	}

	var err error
	if doc.Version, err = repodocs.ParseVersion(version); err != nil {
		return nil, repodocs.WrapError(repodocs.ESCHEMA, err, "stored document %s:%s", doc.Repo, doc.Path)
	}
	if doc.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, repodocs.WrapError(repodocs.ESCHEMA, err, "stored document %s:%s", doc.Repo, doc.Path)
	}
	if doc.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, repodocs.WrapError(repodocs.ESCHEMA, err, "stored document %s:%s", doc.Repo, doc.Path)
	}
	return &doc, nil
}

// SearchDocuments runs a full-text query over paths and content, ranked by bm25.
func (s *DocumentStore) SearchDocuments(ctx context.Context, q repodocs.SearchQuery) ([]*repodocs.SearchResult, error) {
	match := ftsQuery(q.Query)
	if match == "" {
		return nil, repodocs.Errorf(repodocs.EINVALID, "search query required")
	}

	var query strings.Builder
	args := []any{match}

	query.WriteString(`
		SELECT d.repo, d.path, d.version, snippet(docs_fts, 1, '[', ']', '...', 12), bm25(docs_fts)
		FROM docs_fts
		JOIN docs d ON d.id = docs_fts.rowid
		WHERE docs_fts MATCH ?`)

	if q.Repo != nil {
		query.WriteString(" AND d.repo = ?")
		args = append(args, *q.Repo)
	}

	query.WriteString(" ORDER BY bm25(docs_fts), d.repo, d.path")

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	appendPagination(&query, &args, limit, 0)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, storeError(err, "failed to search documents")
	}
	defer rows.Close()

	var results []*repodocs.SearchResult
	for rows.Next() {
		var r repodocs.SearchResult
		var version string
		if err := rows.Scan(&r.Repo, &r.Path, &version, &r.Snippet, &r.Rank); err != nil {
			return nil, storeError(err, "failed to scan search result")
		}
		if r.Version, err = repodocs.ParseVersion(version); err != nil {
			return nil, repodocs.WrapError(repodocs.ESCHEMA, err, "stored document %s:%s", r.Repo, r.Path)
		}
		results = append(results, &r)
	}

	return results, storeError(rows.Err(), "failed to read search results")
}

// ftsQuery quotes each whitespace-separated term so user input is matched
// literally. Terms are implicitly ANDed.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}

// Repos lists repositories with at least one document.
func (s *DocumentStore) Repos(ctx context.Context) ([]*repodocs.RepoSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT repo, COUNT(*), MAX(updated_at)
		FROM docs
		GROUP BY repo
		ORDER BY repo ASC
	`)
	if err != nil {
		return nil, storeError(err, "failed to list repositories")
	}
	defer rows.Close()

	var repos []*repodocs.RepoSummary
	for rows.Next() {
		var r repodocs.RepoSummary
		var updatedAt string
		if err := rows.Scan(&r.Name, &r.DocumentCount, &updatedAt); err != nil {
			return nil, storeError(err, "failed to scan repository")
		}
		if r.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
			return nil, repodocs.WrapError(repodocs.ESCHEMA, err, "repository %s", r.Name)
		}
		repos = append(repos, &r)
	}

	return repos, storeError(rows.Err(), "failed to read repositories")
}

// DeleteRepo removes all documents of repo.
func (s *DocumentStore) DeleteRepo(ctx context.Context, repo string) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM docs WHERE repo = ?", repo)
	if err != nil {
		return 0, storeError(err, "failed to delete documents of %s", repo)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, storeError(err, "failed to count deleted documents")
	}
	return int(n), nil
}
