package repodocs

import (
	"context"
	"sort"
	"time"
)

// SyncStatus is the outcome of one repository's pipeline.
type SyncStatus string

// SyncStatus constants.
const (
	StatusSuccess SyncStatus = "success"
	StatusFailed  SyncStatus = "failed"
)

// RepoResult is the outcome of synchronizing one repository.
type RepoResult struct {
	Status        SyncStatus `json:"status"`
	DocumentCount int        `json:"documentCount"`
	Skipped       int        `json:"skipped"`
	Inserted      int        `json:"inserted"`
	Deleted       int        `json:"deleted"`
	Unchanged     int        `json:"unchanged"`
	Version       string     `json:"version,omitempty"`
	Commit        string     `json:"commit,omitempty"`
	Attempts      int        `json:"attempts"`
	Error         string     `json:"error,omitempty"`
}

// SyncReport aggregates the per-repository outcomes of one run.
type SyncReport struct {
	RunID      string                 `json:"runId"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt time.Time              `json:"finishedAt"`
	Repos      map[string]*RepoResult `json:"repos"`
	Pruned     []string               `json:"pruned,omitempty"`
}

// OK reports whether every repository succeeded.
func (r *SyncReport) OK() bool {
	for _, res := range r.Repos {
		if res.Status != StatusSuccess {
			return false
		}
	}
	return true
}

// Names returns the repository names in sorted order.
func (r *SyncReport) Names() []string {
	names := make([]string, 0, len(r.Repos))
	for name := range r.Repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counts returns the number of successful and failed repositories.
func (r *SyncReport) Counts() (succeeded, failed int) {
	for _, res := range r.Repos {
		if res.Status == StatusSuccess {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// RunService persists sync reports.
type RunService interface {
	// CreateRun stores a finished report.
	CreateRun(ctx context.Context, report *SyncReport) error

	// FindRunByID retrieves a report by run ID.
	// Returns ENOTFOUND if the run does not exist.
	FindRunByID(ctx context.Context, id string) (*SyncReport, error)

	// FindRuns retrieves reports, most recent first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*SyncReport, error)
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
