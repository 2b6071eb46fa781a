package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/repodocs"
	"github.com/fwojciec/repodocs/fs"
	"github.com/fwojciec/repodocs/gogit"
	"github.com/fwojciec/repodocs/htmltomarkdown"
	"github.com/fwojciec/repodocs/koanf"
	"github.com/fwojciec/repodocs/prometheus"
	"github.com/fwojciec/repodocs/reposync"
	rdslog "github.com/fwojciec/repodocs/slog"
	"github.com/fwojciec/repodocs/sqlite"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// EnvFile is loaded into the environment before parsing, if it exists.
	EnvFile string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{EnvFile: ".env"}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if m.EnvFile != "" {
		if err := godotenv.Load(m.EnvFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", m.EnvFile, err)
		}
	}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("repodocs"),
		kong.Description("Aggregate Markdown documentation from Git repositories into a searchable store."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'repodocs --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	deps.Logger = newLogger(stderr, cli.Verbose)

	// Read commands can run against a database alone.
	syncs := cmd == "sync" || (cmd == "serve" && cli.Serve.SyncInterval > 0)
	if syncs || cli.DB == "" {
		deps.Config, err = koanf.Load(cli.Config)
		if err != nil {
			fmt.Fprintf(stderr, "Hint: pass --config or set REPODOCS_CONFIG to point at a configuration file\n")
			return err
		}
	}

	dbPath := cli.DB
	if dbPath == "" {
		dbPath = deps.Config.Paths.SQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return repodocs.WrapError(repodocs.EIO, err, "failed to create database directory")
	}

	m.DB = sqlite.NewDB(dbPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: set REPODOCS_DB or --db to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", dbPath, err)
	}
	defer m.Close()

	var store repodocs.DocumentStore = rdslog.NewLoggingStore(sqlite.NewDocumentStore(m.DB), deps.Logger)
	deps.Store = store
	deps.Runs = sqlite.NewRunService(m.DB)

	if cmd == "serve" {
		if deps.Metrics, err = prometheus.NewMetrics(); err != nil {
			return err
		}
	}
	if syncs {
		deps.Syncer = newOrchestrator(deps.Config, store, deps.Runs, deps.Logger, deps.Metrics)
	}

	return kongCtx.Run(deps)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newOrchestrator wires the sync pipeline from configuration. Metrics may be nil.
func newOrchestrator(cfg *koanf.Config, store repodocs.DocumentStore, runs repodocs.RunService, logger *slog.Logger, metrics *prometheus.Metrics) *reposync.Orchestrator {
	s := cfg.Settings

	var source repodocs.RepositorySource = &gogit.Source{Depth: s.Depth, Timeout: s.Timeout}
	source = rdslog.NewLoggingSource(source, logger)
	if metrics != nil {
		source = prometheus.NewSource(source, metrics)
		store = prometheus.NewStore(store, metrics)
	}

	extractor := &fs.Extractor{
		Extensions:  s.AllowedExtensions,
		MaxFileSize: s.MaxFileSize,
		Converter:   htmltomarkdown.NewConverter(),
	}

	o := &reposync.Orchestrator{
		Source:      source,
		Extractor:   rdslog.NewLoggingExtractor(extractor, logger),
		Resolver:    rdslog.NewLoggingResolver(&gogit.Resolver{PinCommits: s.CommitVersions}, logger),
		Store:       store,
		Runs:        runs,
		Logger:      logger,
		WorkDir:     cfg.Paths.RawDir,
		Concurrency: s.Concurrency,
		RetryDelays: s.RetryDelays(),
		Prune:       s.Prune,
		Cleanup:     s.Cleanup,
	}
	if s.CloneRate > 0 {
		o.Limiter = reposync.NewHostLimiter(s.CloneRate)
	}
	return o
}
