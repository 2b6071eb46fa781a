package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fwojciec/repodocs"
)

// Run executes the docs command.
func (c *DocsCmd) Run(deps *Dependencies) error {
	var filter repodocs.DocumentFilter
	if c.Repo != "" {
		filter.Repo = &c.Repo
	}
	if c.Version != "" {
		filter.Version = &c.Version
	}

	docs, err := deps.Store.FindDocuments(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", repodocs.ErrorMessage(err))
		return err
	}

	if len(docs) == 0 {
		if c.Repo != "" {
			fmt.Fprintf(deps.Stderr, "error: repository %q has no documents. Use 'repodocs repos' to see stored repositories.\n", c.Repo)
			return repodocs.Errorf(repodocs.ENOTFOUND, "repository %q has no documents", c.Repo)
		}
		fmt.Fprintln(deps.Stdout, "No documents found. Run 'repodocs sync' first.")
		return nil
	}

	if c.Full {
		fmt.Fprintln(deps.Stdout, repodocs.FormatDocuments(docs))
		return nil
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	for _, doc := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d bytes\n", doc.Repo, doc.Path, doc.Version, len(doc.Content))
	}
	return tw.Flush()
}
