package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/repodocs"
	"github.com/fwojciec/repodocs/koanf"
	"github.com/fwojciec/repodocs/prometheus"
)

// Syncer runs one sync over a set of repositories.
type Syncer interface {
	Run(ctx context.Context, repos []repodocs.RepositoryConfig) (*repodocs.SyncReport, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Config  *koanf.Config // nil when a command runs against --db alone
	Store   repodocs.DocumentStore
	Runs    repodocs.RunService
	Syncer  Syncer
	Metrics *prometheus.Metrics

	// NewWriter opens the export destination for repo under dir.
	// Nil uses fs.NewFileStore.
	NewWriter func(dir, repo string) repodocs.DocumentWriter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" default:"config.yaml" env:"REPODOCS_CONFIG" help:"Configuration file"`
	DB      string `env:"REPODOCS_DB" help:"SQLite database path (overrides paths.sqlite_path)"`
	Verbose bool   `short:"v" help:"Log debug output to stderr"`

	Sync    SyncCmd    `cmd:"" help:"Clone configured repositories and store their documents"`
	Docs    DocsCmd    `cmd:"" help:"List stored documents"`
	Search  SearchCmd  `cmd:"" help:"Full-text search over stored documents"`
	Repos   ReposCmd   `cmd:"" help:"List repositories in the store"`
	History HistoryCmd `cmd:"" help:"Show past sync runs"`
	Serve   ServeCmd   `cmd:"" help:"Serve the store over HTTP"`
	Export  ExportCmd  `cmd:"" help:"Write a repository's documents to a directory"`
}

// SyncCmd is the "sync" subcommand.
type SyncCmd struct {
	Timeout time.Duration `help:"Abort the run after this duration (0 for no limit)"`
}

// DocsCmd is the "docs" subcommand.
type DocsCmd struct {
	Repo    string `arg:"" optional:"" help:"Repository name"`
	Version string `help:"Only documents with this version label"`
	Full    bool   `help:"Show full document content"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query string `arg:"" help:"Search terms"`
	Repo  string `short:"r" help:"Restrict to one repository"`
	Limit int    `short:"n" default:"10" help:"Maximum results"`
}

// ReposCmd is the "repos" subcommand.
type ReposCmd struct{}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	ID    string `arg:"" optional:"" help:"Show one run in detail"`
	Limit int    `short:"n" default:"10" help:"Number of runs to list"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr         string        `help:"Listen address (defaults to server.addr)"`
	SyncInterval time.Duration `help:"Sync configured repositories periodically (0 disables)"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Repo string `arg:"" help:"Repository name"`
	Out  string `required:"" short:"o" help:"Output directory; files go to <out>/<repo>"`
}
