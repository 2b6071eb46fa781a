package repodocs_test

import (
	"testing"

	"github.com/fwojciec/repodocs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  repodocs.Document
		ok   bool
	}{
		{"valid", repodocs.Document{Repo: "a", Path: "docs/guide.md", Content: "# Café 🚀"}, true},
		{"missing repo", repodocs.Document{Path: "a.md"}, false},
		{"missing path", repodocs.Document{Repo: "a"}, false},
		{"absolute path", repodocs.Document{Repo: "a", Path: "/etc/a.md"}, false},
		{"backslash path", repodocs.Document{Repo: "a", Path: `docs\a.md`}, false},
		{"invalid utf-8", repodocs.Document{Repo: "a", Path: "a.md", Content: "\xff\xfe"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.doc.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, repodocs.EINVALID, repodocs.ErrorCode(err))
		})
	}
}
