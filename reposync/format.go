package reposync

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/repodocs"
)

// Truncate shortens s to at most maxLen bytes for display, keeping the
// start which carries the error class. It never splits a rune.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		// Too short for "..." suffix, just return a prefix
		return s[:runeBoundary(s, maxLen)]
	}
	return s[:runeBoundary(s, maxLen-3)] + "..."
}

// runeBoundary returns the largest index <= n that starts a rune in s.
func runeBoundary(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

// FormatResult formats one repository's outcome as a single line.
func FormatResult(name string, res *repodocs.RepoResult) string {
	if res.Status != repodocs.StatusSuccess {
		return fmt.Sprintf("FAIL  %s  %s", name, Truncate(res.Error, 120))
	}
	return fmt.Sprintf("ok    %s  %d docs (%d unchanged, %d removed, %d skipped)  %s",
		name, res.DocumentCount, res.Unchanged, res.Deleted, res.Skipped, res.Version)
}

// FormatReport formats a sync report with one line per repository in name
// order, followed by pruned repositories and a summary line.
func FormatReport(report *repodocs.SyncReport) string {
	var b strings.Builder
	for _, name := range report.Names() {
		b.WriteString(FormatResult(name, report.Repos[name]))
		b.WriteByte('\n')
	}
	for _, name := range report.Pruned {
		fmt.Fprintf(&b, "pruned  %s\n", name)
	}
	succeeded, failed := report.Counts()
	fmt.Fprintf(&b, "%d succeeded, %d failed", succeeded, failed)
	if len(report.Pruned) > 0 {
		fmt.Fprintf(&b, ", %d pruned", len(report.Pruned))
	}
	b.WriteByte('\n')
	return b.String()
}
