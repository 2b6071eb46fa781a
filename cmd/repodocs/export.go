package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/repodocs"
	"github.com/fwojciec/repodocs/fs"
)

// Run executes the export command. The output directory is replaced only
// once every document has been written.
func (c *ExportCmd) Run(deps *Dependencies) error {
	docs, err := deps.Store.FindDocuments(deps.Ctx, repodocs.DocumentFilter{Repo: &c.Repo})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", repodocs.ErrorMessage(err))
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintf(deps.Stderr, "error: repository %q has no documents\n", c.Repo)
		return repodocs.Errorf(repodocs.ENOTFOUND, "repository %q has no documents", c.Repo)
	}

	var writer repodocs.DocumentWriter
	if deps.NewWriter != nil {
		writer = deps.NewWriter(c.Out, c.Repo)
	} else {
		writer = fs.NewFileStore(c.Out, c.Repo)
	}
	if err := exportDocuments(deps, writer, docs); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", repodocs.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Exported %d documents to %s\n", len(docs), filepath.Join(c.Out, c.Repo))
	return nil
}

func exportDocuments(deps *Dependencies, writer repodocs.DocumentWriter, docs []*repodocs.Document) error {
	for _, doc := range docs {
		if err := writer.Save(deps.Ctx, doc); err != nil {
			if abortErr := writer.Abort(); abortErr != nil {
				deps.Logger.Warn("failed to clean up export", "err", abortErr)
			}
			return err
		}
	}
	return writer.Commit()
}
