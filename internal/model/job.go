package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus represents the lifecycle state of a tracked job.
type JobStatus string

const (
	// JobStatusPending indicates the job has been accepted by the server
	// but has not started running yet.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is running server-side.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed server-side, or the client
	// gave up tracking it.
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates tracking was cancelled client-side.
	// The server-side job may still run to completion.
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal returns true when the status has no further valid transitions.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// JobKind identifies the type of server-side job.
type JobKind string

const (
	// JobKindProposal is an AI proposal generation job.
	JobKindProposal JobKind = "proposal"
	// JobKindImport is a bulk document import job.
	JobKindImport JobKind = "import"
)

// JobRequest is the request to create a server-side job.
type JobRequest struct {
	// ProjectID is the logical scope the job belongs to. At most one
	// non-terminal job is tracked per project at a time.
	ProjectID string
	// Kind is the job type.
	Kind JobKind
	// Params is the job-specific request payload, opaque to the client.
	// It is retained so a failed job can be retried with the same request.
	Params json.RawMessage
}

// Validate validates the job request.
func (r *JobRequest) Validate() error {
	if r.ProjectID == "" {
		return fmt.Errorf("project id is required: %w", ErrNotValid)
	}

	switch r.Kind {
	case JobKindProposal, JobKindImport:
	case "":
		return fmt.Errorf("job kind is required: %w", ErrNotValid)
	default:
		return fmt.Errorf("unknown job kind %q: %w", r.Kind, ErrNotValid)
	}

	return nil
}

// Job is the client-side record of one server-side asynchronous job.
type Job struct {
	// ID is the client-side tracking ID (ULID).
	ID string
	// ProjectID is the logical scope of the job.
	ProjectID string
	// RemoteID is the job ID assigned by the server on submission.
	RemoteID string
	// Kind is the job type.
	Kind JobKind
	// Params is the original request payload, kept for retries.
	Params json.RawMessage
	// Status is the last known lifecycle state.
	Status JobStatus
	// Progress is the last server-reported progress (0-100).
	Progress int
	// CurrentStep is the last server-reported step description.
	CurrentStep string
	// Result is the job result payload, set when completed. Opaque.
	Result json.RawMessage
	// Error is the server-reported failure message, set when failed.
	Error string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobHandle identifies one in-process tracking session for a job.
// It is created when a job is submitted (or re-attached on resume) and
// owned by the poll loop tracking it.
type JobHandle struct {
	// ID is the tracking ID of the job record.
	ID string
	// RemoteID is the server-side job ID to poll.
	RemoteID string
	// ProjectID is the scope used for the one-active-poller rule.
	ProjectID string
	// StartedAt is when tracking started.
	StartedAt time.Time
}

// JobState is a point-in-time job status snapshot reported by the server.
type JobState struct {
	Status      JobStatus
	Progress    int
	CurrentStep string
	// Result is set only when Status is completed. Passed through verbatim.
	Result json.RawMessage
	// Error is set only when Status is failed.
	Error string
}
