package mock

import (
	"context"

	"github.com/fwojciec/repodocs"
)

var _ repodocs.RunService = (*RunService)(nil)

// RunService is a mock implementation of repodocs.RunService.
type RunService struct {
	CreateRunFn   func(ctx context.Context, report *repodocs.SyncReport) error
	FindRunByIDFn func(ctx context.Context, id string) (*repodocs.SyncReport, error)
	FindRunsFn    func(ctx context.Context, filter repodocs.RunFilter) ([]*repodocs.SyncReport, error)
}

func (s *RunService) CreateRun(ctx context.Context, report *repodocs.SyncReport) error {
	return s.CreateRunFn(ctx, report)
}

func (s *RunService) FindRunByID(ctx context.Context, id string) (*repodocs.SyncReport, error) {
	return s.FindRunByIDFn(ctx, id)
}

func (s *RunService) FindRuns(ctx context.Context, filter repodocs.RunFilter) ([]*repodocs.SyncReport, error) {
	return s.FindRunsFn(ctx, filter)
}
