package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/repodocs"
	main "github.com/fwojciec/repodocs/cmd/repodocs"
	"github.com/fwojciec/repodocs/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docsStore(docs ...*repodocs.Document) *mock.DocumentStore {
	return &mock.DocumentStore{
		FindDocumentsFn: func(_ context.Context, filter repodocs.DocumentFilter) ([]*repodocs.Document, error) {
			var out []*repodocs.Document
			for _, d := range docs {
				if filter.Repo != nil && *filter.Repo != d.Repo {
					continue
				}
				if filter.Version != nil && *filter.Version != d.Version.String() {
					continue
				}
				out = append(out, d)
			}
			return out, nil
		},
	}
}

func TestDocsCmd_Run(t *testing.T) {
	t.Parallel()

	tag, _ := repodocs.TagVersion("v1.0.0")
	docs := []*repodocs.Document{
		{Repo: "alpha", Path: "README.md", Content: "# Alpha", Version: tag},
		{Repo: "alpha", Path: "docs/guide.md", Content: "Guide text", Version: tag},
		{Repo: "beta", Path: "README.md", Content: "# Beta"},
	}

	t.Run("lists documents of a repository", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Store:  docsStore(docs...),
		}

		err := (&main.DocsCmd{Repo: "alpha"}).Run(deps)

		require.NoError(t, err)
		out := stdout.String()
		assert.Contains(t, out, "docs/guide.md")
		assert.Contains(t, out, "tag:v1.0.0")
		assert.Contains(t, out, "10 bytes")
		assert.NotContains(t, out, "beta")
	})

	t.Run("shows full content with --full flag", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Store:  docsStore(docs...),
		}

		err := (&main.DocsCmd{Repo: "beta", Full: true}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "## beta:README.md (latest)\n# Beta")
	})

	t.Run("filters by version", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Store:  docsStore(docs...),
		}

		err := (&main.DocsCmd{Version: "latest"}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "beta")
		assert.NotContains(t, stdout.String(), "alpha")
	})

	t.Run("returns not found for an empty repository", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Store:  docsStore(docs...),
		}

		err := (&main.DocsCmd{Repo: "gamma"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, repodocs.ENOTFOUND, repodocs.ErrorCode(err))
		assert.Contains(t, stderr.String(), "repodocs repos")
	})

	t.Run("hints at sync for an empty store", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Store:  docsStore(),
		}

		require.NoError(t, (&main.DocsCmd{}).Run(deps))
		assert.Contains(t, stdout.String(), "repodocs sync")
	})
}
