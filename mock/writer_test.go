package mock_test

import (
	"context"
	"testing"

	"github.com/fwojciec/repodocs"
	"github.com/fwojciec/repodocs/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentWriter_ImplementsInterface(t *testing.T) {
	t.Parallel()

	// Verify mock can be used where DocumentWriter is expected
	var _ repodocs.DocumentWriter = &mock.DocumentWriter{}
}

func TestDocumentWriter_Save(t *testing.T) {
	t.Parallel()

	t.Run("delegates to SaveFn", func(t *testing.T) {
		t.Parallel()

		var calledWith *repodocs.Document
		w := &mock.DocumentWriter{
			SaveFn: func(_ context.Context, doc *repodocs.Document) error {
				calledWith = doc
				return nil
			},
		}

		doc := &repodocs.Document{
			Repo:    "alpha",
			Path:    "README.md",
			Content: "Test content",
		}

		err := w.Save(context.Background(), doc)

		require.NoError(t, err)
		assert.Equal(t, doc, calledWith)
	})
}
