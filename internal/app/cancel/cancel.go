package cancel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/model"
	"github.com/dsr-inc/jobtrack/internal/poller"
	"github.com/dsr-inc/jobtrack/internal/storage"
)

// ServiceConfig is the configuration for the cancel service.
type ServiceConfig struct {
	Poller     *poller.Poller
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Poller == nil {
		return fmt.Errorf("poller is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Cancel"})
	return nil
}

// Service cancels the tracking of a job.
type Service struct {
	poller *poller.Poller
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new cancel service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		poller: cfg.Poller,
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the cancel request parameters.
type Request struct {
	// JobOrProject is the tracking job ID or a project ID.
	JobOrProject string
}

// Run stops tracking a job: any live poll loop for it is torn down with no
// further callbacks, and the record is marked cancelled. Cancelling a job
// that already reached a terminal state is a no-op and returns the record
// unchanged.
//
// The server-side job is not touched, only the local tracking stops.
func (s *Service) Run(ctx context.Context, req Request) (*model.Job, error) {
	// 1. Resolve the job record.
	job, err := s.resolveJob(ctx, req.JobOrProject)
	if err != nil {
		return nil, err
	}

	// 2. Already terminal: nothing to cancel.
	if job.Status.IsTerminal() {
		return job, nil
	}

	// 3. Tear down the live poll loop, if there is one.
	s.poller.Cancel(&model.JobHandle{
		ID:        job.ID,
		RemoteID:  job.RemoteID,
		ProjectID: job.ProjectID,
	})

	// 4. Mark the record cancelled.
	job.Status = model.JobStatusCancelled
	job.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateJob(ctx, *job); err != nil {
		return nil, fmt.Errorf("could not update job: %w", err)
	}

	s.logger.Infof("Cancelled tracking of job %s for project %s", job.ID, job.ProjectID)

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
