package lib

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dsr-inc/jobtrack/internal/model"
)

var (
	// ErrNotFound is returned when the requested job or project does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a conflicting job already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned on invalid input or an invalid operation.
	ErrNotValid = errors.New("not valid")
)

// JobStatus represents the lifecycle state of a tracked job.
//
// The typical lifecycle is:
//
//	pending -> running -> completed | failed
//
// A job can also transition to cancelled at any point before it is terminal.
type JobStatus string

const (
	// JobStatusPending indicates the job was submitted but no status has been
	// observed yet.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the server is working on the job.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job finished successfully and has a result.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed server-side, or its tracking
	// was abandoned after repeated status check failures.
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates the tracking was cancelled locally.
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobKind identifies the type of server-side job.
type JobKind string

const (
	// JobKindProposal generates a proposal document for a project.
	JobKindProposal JobKind = "proposal"
	// JobKindImport imports external documents into a project.
	JobKindImport JobKind = "import"
)

// Job represents a tracked job returned by the SDK.
//
// This is a read-only snapshot of the tracked state at the time of the API
// call. Use [Client.GetJob] to get the latest state.
type Job struct {
	// ID is the unique tracking identifier (ULID) assigned at submission.
	ID string
	// ProjectID is the project the job belongs to.
	ProjectID string
	// RemoteID is the server-side job identifier.
	RemoteID string
	// Kind is the job type.
	Kind JobKind
	// Status is the current lifecycle state.
	Status JobStatus
	// Progress is the last observed completion percentage (0-100).
	Progress int
	// CurrentStep is the last observed step description.
	CurrentStep string
	// Result is the opaque result payload. Only set for completed jobs.
	Result json.RawMessage
	// Error is the failure message. Only set for failed jobs.
	Error string
	// CreatedAt is when the job was submitted.
	CreatedAt time.Time
	// UpdatedAt is when the tracked state last changed.
	UpdatedAt time.Time
}

// SubmitJobOpts configures job submission.
//
// Project and Kind are required. Params is the kind-specific parameter
// payload passed to the server as-is.
type SubmitJobOpts struct {
	// Project is the project ID the job belongs to (required).
	Project string
	// Kind selects the job type (required).
	Kind JobKind
	// Params is the kind-specific JSON parameter payload. Optional.
	Params json.RawMessage
}

// WatchJobOpts configures job watching.
//
// Pass nil to [Client.WatchJob] to watch silently.
type WatchJobOpts struct {
	// OnProgress is invoked on every progress update with the completion
	// percentage (0-100) and the current step description.
	OnProgress func(progress int, currentStep string)
}

// ListJobsOpts configures job listing.
//
// Pass nil to [Client.ListJobs] to list all tracked jobs.
type ListJobsOpts struct {
	// Project filters the listing to a single project.
	Project string
	// Active filters the listing to jobs that are not yet terminal.
	Active bool
}

// --- Internal conversion helpers ---

func toInternalJobRequest(opts SubmitJobOpts) model.JobRequest {
	return model.JobRequest{
		ProjectID: opts.Project,
		Kind:      model.JobKind(opts.Kind),
		Params:    opts.Params,
	}
}

func fromInternalJob(j model.Job) Job {
	return Job{
		ID:          j.ID,
		ProjectID:   j.ProjectID,
		RemoteID:    j.RemoteID,
		Kind:        JobKind(j.Kind),
		Status:      JobStatus(j.Status),
		Progress:    j.Progress,
		CurrentStep: j.CurrentStep,
		Result:      j.Result,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func fromInternalJobList(js []model.Job) []Job {
	result := make([]Job, len(js))
	for i, j := range js {
		result[i] = fromInternalJob(j)
	}
	return result
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case isInternalError(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case isInternalError(err, model.ErrAlreadyExists):
		return joinErrors(err, ErrAlreadyExists)
	case isInternalError(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	default:
		return err
	}
}

func isInternalError(err, target error) bool {
	for {
		if err == target {
			return true
		}
		unwrapped := unwrapSingle(err)
		if unwrapped == nil {
			return false
		}
		err = unwrapped
	}
}

func unwrapSingle(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
