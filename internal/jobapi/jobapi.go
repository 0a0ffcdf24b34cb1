package jobapi

import (
	"context"

	"github.com/dsr-inc/jobtrack/internal/model"
)

// Client knows how to talk to the DSR platform job API.
//
// The API contract is: submit a job request and receive a job ID, then poll
// the job status by ID until it reaches a terminal state. The result payload
// of a completed job is opaque and passed through verbatim.
type Client interface {
	// SubmitJob creates a server-side job and returns its ID.
	SubmitJob(ctx context.Context, req model.JobRequest) (remoteID string, err error)

	// JobStatus returns the current state of a job.
	// Returns model.ErrNotFound if the server no longer knows the job.
	JobStatus(ctx context.Context, remoteID string) (*model.JobState, error)
}
