package lib

import (
	"context"
	"fmt"

	"github.com/dsr-inc/jobtrack/internal/app/cancel"
	"github.com/dsr-inc/jobtrack/internal/app/list"
	"github.com/dsr-inc/jobtrack/internal/app/resume"
	"github.com/dsr-inc/jobtrack/internal/app/retry"
	"github.com/dsr-inc/jobtrack/internal/app/status"
	"github.com/dsr-inc/jobtrack/internal/app/submit"
	"github.com/dsr-inc/jobtrack/internal/app/watch"
)

// SubmitJob submits a new job to the DSR platform and starts tracking it.
//
// A project tracks at most one active job at a time: submitting while another
// job of the same project is still active supersedes the old one (it is
// marked cancelled locally). Submission does not block on job execution; use
// [Client.WatchJob] to follow the job to completion.
//
// Returns [ErrNotValid] if the options are invalid.
func (c *Client) SubmitJob(ctx context.Context, opts SubmitJobOpts) (*Job, error) {
	svc, err := submit.NewService(submit.ServiceConfig{
		Client:     c.api,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	job, err := svc.Run(ctx, submit.Request{Job: toInternalJobRequest(opts)})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalJob(*job)
	return &out, nil
}

// WatchJob tracks a job until it reaches a terminal state, the tracking is
// cancelled, or the context is done. It blocks and returns the final tracked
// state. Every observed progress update is persisted, so an interrupted watch
// can be resumed later with [Client.ResumeJobs].
//
// jobOrProject is the tracking job ID or a project ID; a project ID resolves
// to the project's active job. Watching a job that is already terminal
// returns its state immediately.
//
// Returns [ErrNotFound] if no tracked job matches.
func (c *Client) WatchJob(ctx context.Context, jobOrProject string, opts *WatchJobOpts) (*Job, error) {
	svc, err := watch.NewService(watch.ServiceConfig{
		Poller:     c.poller,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	req := watch.Request{JobOrProject: jobOrProject}
	if opts != nil {
		req.OnProgress = opts.OnProgress
	}

	job, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalJob(*job)
	return &out, nil
}

// CancelJob stops tracking a job: any active watch is torn down with no
// further callbacks and the record is marked cancelled. The server-side job
// is not touched. Cancelling an already terminal job is a no-op.
//
// Returns [ErrNotFound] if no tracked job matches.
func (c *Client) CancelJob(ctx context.Context, jobOrProject string) (*Job, error) {
	svc, err := cancel.NewService(cancel.ServiceConfig{
		Poller:     c.poller,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	job, err := svc.Run(ctx, cancel.Request{JobOrProject: jobOrProject})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalJob(*job)
	return &out, nil
}

// RetryJob resubmits a failed or cancelled job as a brand new job with the
// original kind and parameters. The original record is kept; the new
// submission gets its own tracking ID.
//
// Returns [ErrNotFound] if the job does not exist, or [ErrNotValid] if it is
// not in a retryable state.
func (c *Client) RetryJob(ctx context.Context, jobID string) (*Job, error) {
	svc, err := retry.NewService(retry.ServiceConfig{
		Client:     c.api,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	job, err := svc.Run(ctx, retry.Request{JobID: jobID})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalJob(*job)
	return &out, nil
}

// GetJob returns the current state of a tracked job. Jobs that are not yet
// terminal are refreshed with a single server-side status check first.
//
// Returns [ErrNotFound] if no tracked job matches.
func (c *Client) GetJob(ctx context.Context, jobOrProject string) (*Job, error) {
	svc, err := status.NewService(status.ServiceConfig{
		Client:     c.api,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	job, err := svc.Run(ctx, status.Request{JobOrProject: jobOrProject})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalJob(*job)
	return &out, nil
}

// ListJobs returns tracked jobs, newest first.
func (c *Client) ListJobs(ctx context.Context, opts *ListJobsOpts) ([]Job, error) {
	svc, err := list.NewService(list.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	req := list.Request{}
	if opts != nil {
		req.Project = opts.Project
		req.Active = opts.Active
	}

	jobs, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalJobList(jobs), nil
}

// ResumeJobs reconciles tracked jobs with the server after a restart. Jobs
// that finished while untracked get their terminal state persisted; jobs the
// server no longer knows about are marked failed. The returned jobs are the
// ones still in flight, ready to be passed to [Client.WatchJob].
func (c *Client) ResumeJobs(ctx context.Context) ([]Job, error) {
	svc, err := resume.NewService(resume.ServiceConfig{
		Client:     c.api,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	jobs, err := svc.Run(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalJobList(jobs), nil
}
