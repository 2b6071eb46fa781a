package repodocs

import "strings"

// FormatDocuments formats documents for display, each under a header naming
// its repository, path and version. Documents are separated by blank lines.
func FormatDocuments(docs []*Document) string {
	if len(docs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		header := "## " + doc.Repo + ":" + doc.Path + " (" + doc.Version.String() + ")"
		parts = append(parts, header+"\n"+doc.Content)
	}

	return strings.Join(parts, "\n\n")
}
