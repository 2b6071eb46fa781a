package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/repodocs"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	q := repodocs.SearchQuery{Query: c.Query, Limit: c.Limit}
	if c.Repo != "" {
		q.Repo = &c.Repo
	}

	results, err := deps.Store.SearchDocuments(deps.Ctx, q)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", repodocs.ErrorMessage(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintf(deps.Stdout, "No matches for %q.\n", c.Query)
		return nil
	}

	for i, r := range results {
		snippet := strings.Join(strings.Fields(r.Snippet), " ")
		fmt.Fprintf(deps.Stdout, "%d. %s:%s (%s)\n   %s\n", i+1, r.Repo, r.Path, r.Version, snippet)
	}
	return nil
}
