package storage

import (
	"context"

	"github.com/dsr-inc/jobtrack/internal/model"
)

// Repository is the interface for tracked job persistence.
//
// Tracked jobs are written on submission and on every progress tick so that
// a process restart can resume observing in-flight jobs. Terminal jobs are
// kept for history and retries; only non-terminal ones are resumable.
type Repository interface {
	CreateJob(ctx context.Context, j model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	// GetActiveJobByProject returns the single non-terminal job tracked for
	// a project, if any.
	GetActiveJobByProject(ctx context.Context, projectID string) (*model.Job, error)
	ListJobs(ctx context.Context) ([]model.Job, error)
	UpdateJob(ctx context.Context, j model.Job) error
	DeleteJob(ctx context.Context, id string) error
}
