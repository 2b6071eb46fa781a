package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fwojciec/repodocs"
)

// Compile-time interface verification.
var _ repodocs.RunService = (*RunService)(nil)

// RunService implements repodocs.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun stores a finished sync report and its per-repository results.
func (s *RunService) CreateRun(ctx context.Context, report *repodocs.SyncReport) error {
	if report.RunID == "" {
		return repodocs.Errorf(repodocs.EINVALID, "run id required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	succeeded, failed := report.Counts()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at, finished_at, succeeded, failed, pruned)
		VALUES (?, ?, ?, ?, ?, ?)
	`, report.RunID, formatTime(report.StartedAt), formatTime(report.FinishedAt),
		succeeded, failed, strings.Join(report.Pruned, "\n")); err != nil {
		return storeError(err, "failed to insert run %s", report.RunID)
	}

	for _, name := range report.Names() {
		res := report.Repos[name]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sync_results (run_id, repo, status, document_count, skipped, inserted, deleted, unchanged, version, commit_sha, attempts, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, report.RunID, name, string(res.Status), res.DocumentCount, res.Skipped, res.Inserted,
			res.Deleted, res.Unchanged, res.Version, res.Commit, res.Attempts, res.Error); err != nil {
			return storeError(err, "failed to insert result for %s", name)
		}
	}

	return storeError(tx.Commit(), "failed to commit run %s", report.RunID)
}

// FindRunByID retrieves a run with its results.
func (s *RunService) FindRunByID(ctx context.Context, id string) (*repodocs.SyncReport, error) {
	var report repodocs.SyncReport
	var startedAt, finishedAt, pruned string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, pruned
		FROM sync_runs
		WHERE id = ?
	`, id).Scan(&report.RunID, &startedAt, &finishedAt, &pruned)

	if err == sql.ErrNoRows {
		return nil, repodocs.Errorf(repodocs.ENOTFOUND, "run not found")
	}
	if err != nil {
		return nil, storeError(err, "failed to find run %s", id)
	}

	if err := fillRun(&report, startedAt, finishedAt, pruned); err != nil {
		return nil, err
	}
	if err := s.attachResults(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// FindRuns retrieves runs, most recent first.
func (s *RunService) FindRuns(ctx context.Context, filter repodocs.RunFilter) ([]*repodocs.SyncReport, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, started_at, finished_at, pruned FROM sync_runs ORDER BY started_at DESC, id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, storeError(err, "failed to query runs")
	}

	var reports []*repodocs.SyncReport
	for rows.Next() {
		var report repodocs.SyncReport
		var startedAt, finishedAt, pruned string
		if err := rows.Scan(&report.RunID, &startedAt, &finishedAt, &pruned); err != nil {
			rows.Close()
			return nil, storeError(err, "failed to scan run")
		}
		if err := fillRun(&report, startedAt, finishedAt, pruned); err != nil {
			rows.Close()
			return nil, err
		}
		reports = append(reports, &report)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, storeError(err, "failed to read runs")
	}

	// Results are loaded after the cursor is closed: the pool holds one connection.
	for _, report := range reports {
		if err := s.attachResults(ctx, report); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

func fillRun(report *repodocs.SyncReport, startedAt, finishedAt, pruned string) error {
	var err error
	if report.StartedAt, err = parseRFC3339(startedAt, "started_at"); err != nil {
		return repodocs.WrapError(repodocs.ESCHEMA, err, "run %s", report.RunID)
	}
	if report.FinishedAt, err = parseRFC3339(finishedAt, "finished_at"); err != nil {
		return repodocs.WrapError(repodocs.ESCHEMA, err, "run %s", report.RunID)
	}
	if pruned != "" {
		report.Pruned = strings.Split(pruned, "\n")
	}
	return nil
}

func (s *RunService) attachResults(ctx context.Context, report *repodocs.SyncReport) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT repo, status, document_count, skipped, inserted, deleted, unchanged, version, commit_sha, attempts, error
		FROM sync_results
		WHERE run_id = ?
		ORDER BY repo ASC
	`, report.RunID)
	if err != nil {
		return storeError(err, "failed to query results of run %s", report.RunID)
	}
	defer rows.Close()

	report.Repos = make(map[string]*repodocs.RepoResult)
	for rows.Next() {
		var name, status string
		var res repodocs.RepoResult
		if err := rows.Scan(&name, &status, &res.DocumentCount, &res.Skipped, &res.Inserted, &res.Deleted,
			&res.Unchanged, &res.Version, &res.Commit, &res.Attempts, &res.Error); err != nil {
			return storeError(err, "failed to scan result")
		}
		res.Status = repodocs.SyncStatus(status)
		report.Repos[name] = &res
	}
	return storeError(rows.Err(), "failed to read results of run %s", report.RunID)
}
