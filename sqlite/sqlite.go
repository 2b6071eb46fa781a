// Package sqlite provides SQLite-based storage implementations for repodocs services.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fwojciec/repodocs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return repodocs.WrapError(repodocs.EIO, err, "failed to open database %q", db.path)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	// This also serializes replace transactions across repositories.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return storeError(err, "failed to connect to database %q", db.path)
	}

	// Wait 5 seconds before failing on lock contention from other processes.
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return storeError(err, "failed to set busy timeout")
	}

	// WAL allows the read facade to query while a sync is writing.
	// Not supported for in-memory databases.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return storeError(err, "failed to enable WAL mode")
		}
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return storeError(err, "failed to enable foreign keys")
	}

	db.db = conn

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		db.db = nil
		return err
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, opts)
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// Stats returns database statistics.
func (db *DB) Stats() sql.DBStats {
	return db.db.Stats()
}

// requiredDocColumns must exist on a pre-existing docs table.
var requiredDocColumns = []string{"id", "repo", "path", "content", "version", "created_at", "updated_at"}

// migrate verifies any existing docs table and creates what is missing.
func (db *DB) migrate(ctx context.Context) error {
	columns, err := db.tableColumns(ctx, "docs")
	if err != nil {
		return storeError(err, "failed to inspect schema")
	}

	if len(columns) > 0 {
		for _, name := range requiredDocColumns {
			if !columns[name] {
				return repodocs.Errorf(repodocs.ESCHEMA, "existing docs table has no %q column", name)
			}
		}
		// Tables created before content hashing lack the column.
		if !columns["content_hash"] {
			if _, err := db.db.ExecContext(ctx, `ALTER TABLE docs ADD COLUMN content_hash TEXT NOT NULL DEFAULT ''`); err != nil {
				return storeError(err, "failed to add content_hash column")
			}
		}
	}

	if _, err := db.db.ExecContext(ctx, schema); err != nil {
		return repodocs.WrapError(repodocs.ESCHEMA, err, "failed to create schema")
	}
	return nil
}

// tableColumns returns the column names of table, or an empty set if the
// table does not exist.
func (db *DB) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := db.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			typ       string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

const schema = `
	CREATE TABLE IF NOT EXISTS docs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repo TEXT NOT NULL,
		path TEXT NOT NULL,
		content TEXT NOT NULL,
		content_hash TEXT NOT NULL DEFAULT '',
		version TEXT NOT NULL DEFAULT 'latest' CHECK (
			version = 'latest'
			OR version GLOB 'tag:?*'
			OR (
				version GLOB 'commit:*'
				AND length(version) BETWEEN 14 AND 71
				AND substr(version, 8) NOT GLOB '*[^0-9a-f]*'
			)
		),
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
		UNIQUE (repo, path)
	);

	CREATE INDEX IF NOT EXISTS idx_docs_repo ON docs(repo);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_docs_repo_path ON docs(repo, path);

	CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
		path,
		content,
		content='docs',
		content_rowid='id',
		tokenize='unicode61'
	);

	CREATE TRIGGER IF NOT EXISTS docs_ai AFTER INSERT ON docs BEGIN
		INSERT INTO docs_fts(rowid, path, content) VALUES (new.id, new.path, new.content);
	END;

	CREATE TRIGGER IF NOT EXISTS docs_ad AFTER DELETE ON docs BEGIN
		INSERT INTO docs_fts(docs_fts, rowid, path, content) VALUES ('delete', old.id, old.path, old.content);
	END;

	CREATE TRIGGER IF NOT EXISTS docs_au AFTER UPDATE ON docs BEGIN
		INSERT INTO docs_fts(docs_fts, rowid, path, content) VALUES ('delete', old.id, old.path, old.content);
		INSERT INTO docs_fts(rowid, path, content) VALUES (new.id, new.path, new.content);
	END;

	CREATE TABLE IF NOT EXISTS sync_runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		pruned TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS sync_results (
		run_id TEXT NOT NULL REFERENCES sync_runs(id) ON DELETE CASCADE,
		repo TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('success', 'failed')),
		document_count INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		inserted INTEGER NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0,
		unchanged INTEGER NOT NULL DEFAULT 0,
		version TEXT NOT NULL DEFAULT '',
		commit_sha TEXT NOT NULL DEFAULT '',
		attempts INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, repo)
	);

	CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
`
