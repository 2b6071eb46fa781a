package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fwojciec/repodocs"
)

// Run executes the repos command.
func (c *ReposCmd) Run(deps *Dependencies) error {
	repos, err := deps.Store.Repos(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", repodocs.ErrorMessage(err))
		return err
	}

	if len(repos) == 0 {
		fmt.Fprintln(deps.Stdout, "No repositories stored. Run 'repodocs sync' first.")
		return nil
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range repos {
		fmt.Fprintf(tw, "%s\t%d docs\tupdated %s\n", r.Name, r.DocumentCount, r.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
