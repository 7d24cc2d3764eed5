package domain

import "context"

// RunRepository defines persistence for batch run records.
type RunRepository interface {
	Create(ctx context.Context, run *Run) error
	UpdateOutcome(ctx context.Context, runID string, status RunStatus, videoURIs []string, errMsg string) error
	GetByID(ctx context.Context, runID string) (*Run, error)
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
