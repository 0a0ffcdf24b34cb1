package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dsr-inc/jobtrack/internal/jobapi"
	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/model"
	"github.com/dsr-inc/jobtrack/internal/storage"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Client     jobapi.Client
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("job api client is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Status"})
	return nil
}

// Service reports the status of a tracked job.
type Service struct {
	client jobapi.Client
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	// JobOrProject is the tracking job ID or a project ID. A project ID
	// resolves to the project's active job.
	JobOrProject string
}

// Run returns the current state of a tracked job. For jobs that are not yet
// terminal a single server-side status check refreshes the record first, so
// the answer is current even when nobody is actively watching the job. A
// transient check failure falls back to the stored state.
func (s *Service) Run(ctx context.Context, req Request) (*model.Job, error) {
	job, err := s.resolveJob(ctx, req.JobOrProject)
	if err != nil {
		return nil, err
	}

	if job.Status.IsTerminal() {
		return job, nil
	}

	state, err := s.client.JobStatus(ctx, job.RemoteID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			job.Status = model.JobStatusFailed
			job.Error = "job no longer exists on the server"
			job.UpdatedAt = time.Now().UTC()
			if err := s.repo.UpdateJob(ctx, *job); err != nil {
				return nil, fmt.Errorf("could not update job: %w", err)
			}
			return job, nil
		}

		s.logger.Warningf("Could not refresh status of job %s, using stored state: %s", job.ID, err)
		return job, nil
	}

	job.Status = state.Status
	job.Progress = state.Progress
	job.CurrentStep = state.CurrentStep
	job.Result = state.Result
	job.Error = state.Error
	job.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateJob(ctx, *job); err != nil {
		return nil, fmt.Errorf("could not update job: %w", err)
	}

	return job, nil
}

func (s *Service) resolveJob(ctx context.Context, jobOrProject string) (*model.Job, error) {
	if jobOrProject == "" {
		return nil, fmt.Errorf("job or project ID is required: %w", model.ErrNotValid)
	}

	job, err := s.repo.GetJob(ctx, jobOrProject)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("could not get job: %w", err)
	}

	job, err = s.repo.GetActiveJobByProject(ctx, jobOrProject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("no tracked job found for %q: %w", jobOrProject, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get active job: %w", err)
	}

	return job, nil
}
