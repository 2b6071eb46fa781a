package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/repodocs"
	"github.com/fwojciec/repodocs/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(repo, path, content string) *repodocs.Document {
	return &repodocs.Document{Repo: repo, Path: path, Content: content}
}

func findAll(t *testing.T, store *sqlite.DocumentStore, repo string) []*repodocs.Document {
	t.Helper()
	docs, err := store.FindDocuments(context.Background(), repodocs.DocumentFilter{Repo: &repo})
	require.NoError(t, err)
	return docs
}

func paths(docs []*repodocs.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Path)
	}
	return out
}

func TestDocumentStore_Replace(t *testing.T) {
	t.Parallel()

	t.Run("inserts documents and reports counts", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewDocumentStore(setupTestDB(t))
		ctx := context.Background()

		docs := []*repodocs.Document{
			newDoc("alpha", "README.md", "# Alpha"),
			newDoc("alpha", "docs/guide.md", "# Guide"),
		}
		report, err := store.Replace(ctx, "alpha", docs)
		require.NoError(t, err)

		assert.Equal(t, &repodocs.ReplaceReport{Inserted: 2}, report)
		for _, d := range docs {
			assert.NotZero(t, d.ID)
			assert.NotEmpty(t, d.ContentHash)
			assert.False(t, d.CreatedAt.IsZero())
		}
		assert.Equal(t, []string{"README.md", "docs/guide.md"}, paths(findAll(t, store, "alpha")))
	})

	t.Run("removes documents absent from the new set", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewDocumentStore(setupTestDB(t))
		ctx := context.Background()

		_, err := store.Replace(ctx, "alpha", []*repodocs.Document{
			newDoc("alpha", "a.md", "A"),
			newDoc("alpha", "b.md", "B"),
			newDoc("alpha", "c.md", "C"),
		})
		require.NoError(t, err)

		report, err := store.Replace(ctx, "alpha", []*repodocs.Document{
			newDoc("alpha", "a.md", "A"),
			newDoc("alpha", "c.md", "C2"),
		})
		require.NoError(t, err)

		assert.Equal(t, &repodocs.ReplaceReport{Inserted: 2, Deleted: 3, Unchanged: 1}, report)
		docs := findAll(t, store, "alpha")
		assert.Equal(t, []string{"a.md", "c.md"}, paths(docs))
		assert.Equal(t, "C2", docs[1].Content)
	})

	t.Run("is idempotent and keeps created_at of surviving paths", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewDocumentStore(setupTestDB(t))
		ctx := context.Background()
		first := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
		second := first.Add(24 * time.Hour)

		store.Now = func() time.Time { return first }
		_, err := store.Replace(ctx, "alpha", []*repodocs.Document{newDoc("alpha", "README.md", "# Alpha")})
		require.NoError(t, err)

		store.Now = func() time.Time { return second }
		report, err := store.Replace(ctx, "alpha", []*repodocs.Document{newDoc("alpha", "README.md", "# Alpha")})
		require.NoError(t, err)
		assert.Equal(t, &repodocs.ReplaceReport{Inserted: 1, Deleted: 1, Unchanged: 1}, report)

		docs := findAll(t, store, "alpha")
		require.Len(t, docs, 1)
		assert.Equal(t, first, docs[0].CreatedAt)
		assert.Equal(t, second, docs[0].UpdatedAt)
	})

	t.Run("leaves other repositories untouched", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewDocumentStore(setupTestDB(t))
		ctx := context.Background()

		_, err := store.Replace(ctx, "alpha", []*repodocs.Document{newDoc("alpha", "README.md", "alpha")})
		require.NoError(t, err)
		_, err = store.Replace(ctx, "beta", []*repodocs.Document{newDoc("beta", "README.md", "beta")})
		require.NoError(t, err)

		_, err = store.Replace(ctx, "alpha", nil)
		require.NoError(t, err)

		assert.Empty(t, findAll(t, store, "alpha"))
		beta := findAll(t, store, "beta")
		require.Len(t, beta, 1)
		assert.Equal(t, "beta", beta[0].Content)
	})

	t.Run("round-trips non-ASCII content and versions", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewDocumentStore(setupTestDB(t))
		ctx := context.Background()

		tag, err := repodocs.TagVersion("v1.2.0")
		require.NoError(t, err)
		commit, err := repodocs.CommitVersion("ABCDEF1234567")
		require.NoError(t, err)

		_, err = store.Replace(ctx, "alpha", []*repodocs.Document{
			{Repo: "alpha", Path: "café.md", Content: "Crème brûlée ☕ 日本語", Version: tag},
			{Repo: "alpha", Path: "pinned.md", Content: "pinned", Version: commit},
			{Repo: "alpha", Path: "plain.md", Content: "plain"},
		})
		require.NoError(t, err)

		docs := findAll(t, store, "alpha")
		require.Len(t, docs, 3)
		assert.Equal(t, "café.md", docs[0].Path)
		assert.Equal(t, "Crème brûlée ☕ 日本語", docs[0].Content)
		assert.Equal(t, "tag:v1.2.0", docs[0].Version.String())
		assert.Equal(t, "commit:abcdef1234567", docs[1].Version.String())
		assert.True(t, docs[2].Version.IsLatest())
	})

	t.Run("rejects documents of another repository", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewDocumentStore(setupTestDB(t))

		_, err := store.Replace(context.Background(), "alpha", []*repodocs.Document{newDoc("beta", "README.md", "x")})
		require.Error(t, err)
		assert.Equal(t, repodocs.EINVALID, repodocs.ErrorCode(err))
	})

	t.Run("rejects invalid UTF-8 content", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewDocumentStore(setupTestDB(t))

		_, err := store.Replace(context.Background(), "alpha", []*repodocs.Document{newDoc("alpha", "bad.md", "\xff\xfe")})
		require.Error(t, err)
		assert.Equal(t, repodocs.EINVALID, repodocs.ErrorCode(err))
	})

	t.Run("keeps the previous snapshot when the transaction fails", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewDocumentStore(setupTestDB(t))
		ctx := context.Background()

		_, err := store.Replace(ctx, "alpha", []*repodocs.Document{newDoc("alpha", "README.md", "old")})
		require.NoError(t, err)

		_, err = store.Replace(ctx, "alpha", []*repodocs.Document{
			newDoc("alpha", "dup.md", "one"),
			newDoc("alpha", "dup.md", "two"),
		})
		require.Error(t, err)
		assert.Equal(t, repodocs.ECONSTRAINT, repodocs.ErrorCode(err))

		docs := findAll(t, store, "alpha")
		require.Len(t, docs, 1)
		assert.Equal(t, "old", docs[0].Content)
	})

	t.Run("replaces many documents", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewDocumentStore(setupTestDB(t))

		var docs []*repodocs.Document
		for i := range 250 {
			docs = append(docs, newDoc("alpha", fmt.Sprintf("docs/page%03d.md", i), fmt.Sprintf("# Page %d", i)))
		}
		report, err := store.Replace(context.Background(), "alpha", docs)
		require.NoError(t, err)
		assert.Equal(t, 250, report.Inserted)
		assert.Len(t, findAll(t, store, "alpha"), 250)
	})
}

func TestDocumentStore_FindDocuments(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *sqlite.DocumentStore {
		t.Helper()
		store := sqlite.NewDocumentStore(setupTestDB(t))
		ctx := context.Background()
		tag, err := repodocs.TagVersion("v1")
		require.NoError(t, err)
		_, err = store.Replace(ctx, "alpha", []*repodocs.Document{
			newDoc("alpha", "b.md", "B"),
			newDoc("alpha", "a.md", "A"),
			newDoc("alpha", "c.md", "C"),
		})
		require.NoError(t, err)
		_, err = store.Replace(ctx, "beta", []*repodocs.Document{
			{Repo: "beta", Path: "a.md", Content: "beta A", Version: tag},
		})
		require.NoError(t, err)
		return store
	}

	t.Run("returns all documents ordered by repo and path", func(t *testing.T) {
		t.Parallel()

		docs, err := setup(t).FindDocuments(context.Background(), repodocs.DocumentFilter{})
		require.NoError(t, err)
		require.Len(t, docs, 4)
		assert.Equal(t, []string{"a.md", "b.md", "c.md", "a.md"}, paths(docs))
		assert.Equal(t, "beta", docs[3].Repo)
	})

	t.Run("filters by path", func(t *testing.T) {
		t.Parallel()

		path := "a.md"
		docs, err := setup(t).FindDocuments(context.Background(), repodocs.DocumentFilter{Path: &path})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("filters by version", func(t *testing.T) {
		t.Parallel()

		version := "tag:v1"
		docs, err := setup(t).FindDocuments(context.Background(), repodocs.DocumentFilter{Version: &version})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "beta", docs[0].Repo)
	})

	t.Run("paginates", func(t *testing.T) {
		t.Parallel()

		repo := "alpha"
		docs, err := setup(t).FindDocuments(context.Background(), repodocs.DocumentFilter{Repo: &repo, Offset: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"b.md"}, paths(docs))
	})

	t.Run("returns empty result for unknown repo", func(t *testing.T) {
		t.Parallel()

		repo := "missing"
		docs, err := setup(t).FindDocuments(context.Background(), repodocs.DocumentFilter{Repo: &repo})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestDocumentStore_SearchDocuments(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *sqlite.DocumentStore {
		t.Helper()
		store := sqlite.NewDocumentStore(setupTestDB(t))
		ctx := context.Background()
		_, err := store.Replace(ctx, "alpha", []*repodocs.Document{
			newDoc("alpha", "install.md", "# Install\n\nRun the installer to install the rocket engine."),
			newDoc("alpha", "usage.md", "# Usage\n\nLaunch the rocket."),
		})
		require.NoError(t, err)
		_, err = store.Replace(ctx, "beta", []*repodocs.Document{
			newDoc("beta", "notes.md", "Rocket science notes."),
		})
		require.NoError(t, err)
		return store
	}

	t.Run("finds matching documents across repositories", func(t *testing.T) {
		t.Parallel()

		results, err := setup(t).SearchDocuments(context.Background(), repodocs.SearchQuery{Query: "rocket"})
		require.NoError(t, err)
		assert.Len(t, results, 3)
		for _, r := range results {
			assert.Contains(t, r.Snippet, "[")
		}
	})

	t.Run("ranks better matches first", func(t *testing.T) {
		t.Parallel()

		results, err := setup(t).SearchDocuments(context.Background(), repodocs.SearchQuery{Query: "install"})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "install.md", results[0].Path)
	})

	t.Run("filters by repo", func(t *testing.T) {
		t.Parallel()

		repo := "beta"
		results, err := setup(t).SearchDocuments(context.Background(), repodocs.SearchQuery{Query: "rocket", Repo: &repo})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "notes.md", results[0].Path)
	})

	t.Run("respects limit", func(t *testing.T) {
		t.Parallel()

		results, err := setup(t).SearchDocuments(context.Background(), repodocs.SearchQuery{Query: "rocket", Limit: 1})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("treats punctuation literally", func(t *testing.T) {
		t.Parallel()

		results, err := setup(t).SearchDocuments(context.Background(), repodocs.SearchQuery{Query: "rocket-engine"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "install.md", results[0].Path)
	})

	t.Run("returns EINVALID for empty query", func(t *testing.T) {
		t.Parallel()

		_, err := setup(t).SearchDocuments(context.Background(), repodocs.SearchQuery{Query: "   "})
		require.Error(t, err)
		assert.Equal(t, repodocs.EINVALID, repodocs.ErrorCode(err))
	})

	t.Run("stops matching replaced documents", func(t *testing.T) {
		t.Parallel()

		store := setup(t)
		ctx := context.Background()
		_, err := store.Replace(ctx, "beta", []*repodocs.Document{newDoc("beta", "notes.md", "Nothing to see.")})
		require.NoError(t, err)

		repo := "beta"
		results, err := store.SearchDocuments(ctx, repodocs.SearchQuery{Query: "rocket", Repo: &repo})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestDocumentStore_Repos(t *testing.T) {
	t.Parallel()

	store := sqlite.NewDocumentStore(setupTestDB(t))
	ctx := context.Background()

	_, err := store.Replace(ctx, "beta", []*repodocs.Document{newDoc("beta", "a.md", "A")})
	require.NoError(t, err)
	_, err = store.Replace(ctx, "alpha", []*repodocs.Document{newDoc("alpha", "a.md", "A"), newDoc("alpha", "b.md", "B")})
	require.NoError(t, err)

	repos, err := store.Repos(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "alpha", repos[0].Name)
	assert.Equal(t, 2, repos[0].DocumentCount)
	assert.False(t, repos[0].UpdatedAt.IsZero())
	assert.Equal(t, "beta", repos[1].Name)
	assert.Equal(t, 1, repos[1].DocumentCount)
}

func TestDocumentStore_DeleteRepo(t *testing.T) {
	t.Parallel()

	store := sqlite.NewDocumentStore(setupTestDB(t))
	ctx := context.Background()

	_, err := store.Replace(ctx, "alpha", []*repodocs.Document{newDoc("alpha", "a.md", "A"), newDoc("alpha", "b.md", "B")})
	require.NoError(t, err)
	_, err = store.Replace(ctx, "beta", []*repodocs.Document{newDoc("beta", "a.md", "A")})
	require.NoError(t, err)

	n, err := store.DeleteRepo(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, findAll(t, store, "alpha"))
	assert.Len(t, findAll(t, store, "beta"), 1)

	n, err = store.DeleteRepo(ctx, "alpha")
	require.NoError(t, err)
	assert.Zero(t, n)
}
