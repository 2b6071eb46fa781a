package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/repodocs"
	"github.com/fwojciec/repodocs/mock"
	rdslog "github.com/fwojciec/repodocs/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("forwards documents, skips and collisions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Extractor{
			ExtractFn: func(context.Context, *repodocs.WorkingTree) *repodocs.Extraction {
				x := repodocs.NewExtraction(func(emit func(*repodocs.RawDocument) bool, skip func(repodocs.SkippedFile)) error {
					skip(repodocs.SkippedFile{Path: "big.md", Reason: errors.New("too large")})
					emit(&repodocs.RawDocument{Path: "A.md", Content: []byte("a")})
					emit(&repodocs.RawDocument{Path: "a.md", Content: []byte("a")})
					return nil
				})
				x.SetCollisions([][]string{{"A.md", "a.md"}})
				return x
			},
		}

		extraction := rdslog.NewLoggingExtractor(inner, logger).Extract(context.Background(), &repodocs.WorkingTree{Repo: "alpha"})

		var paths []string
		for doc, err := range extraction.All() {
			require.NoError(t, err)
			paths = append(paths, doc.Path)
		}

		assert.Equal(t, []string{"A.md", "a.md"}, paths)
		require.Len(t, extraction.Skipped(), 1)
		assert.Equal(t, "big.md", extraction.Skipped()[0].Path)
		assert.Equal(t, [][]string{{"A.md", "a.md"}}, extraction.Collisions())

		output := buf.String()
		assert.Contains(t, output, "extract")
		assert.Contains(t, output, "repo=alpha")
		assert.Contains(t, output, "documents=2")
		assert.Contains(t, output, "skipped=1")
	})

	t.Run("forwards a fatal error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Extractor{
			ExtractFn: func(context.Context, *repodocs.WorkingTree) *repodocs.Extraction {
				return repodocs.NewExtraction(func(func(*repodocs.RawDocument) bool, func(repodocs.SkippedFile)) error {
					return repodocs.Errorf(repodocs.EIO, "walk failed")
				})
			},
		}

		extraction := rdslog.NewLoggingExtractor(inner, logger).Extract(context.Background(), &repodocs.WorkingTree{Repo: "alpha"})

		var got error
		for _, err := range extraction.All() {
			got = err
		}

		assert.Equal(t, repodocs.EIO, repodocs.ErrorCode(got))
		assert.Contains(t, buf.String(), "walk failed")
	})
}
