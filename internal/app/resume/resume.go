package resume

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

// ServiceConfig is the configuration for the resume service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Resume"})
	return nil
}

// Service reconciles locally tracked jobs with the server after a restart.
type Service struct {
	client jobapi.Client
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new resume service.
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

// Run finds every tracked job that is not in a terminal state, checks its
// current server-side status once, and returns the ones still worth watching.
//
// Jobs that finished while nobody was watching get their terminal state
// persisted and are not returned. Jobs the server no longer knows about are
// marked failed. A transient status check failure keeps the job resumable;
// the poller deals with transient failures on its own.
func (s *Service) Run(ctx context.Context) ([]model.Job, error) {
	all, err := s.repo.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list jobs: %w", err)
	}

	resumable := []model.Job{}
	for _, job := range all {
		if job.Status.IsTerminal() {
			continue
		}

		state, err := s.client.JobStatus(ctx, job.RemoteID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				s.logger.Warningf("Job %s (remote %s) no longer exists on the server, marking failed", job.ID, job.RemoteID)

				job.Status = model.JobStatusFailed
				job.Error = "job no longer exists on the server"
				job.UpdatedAt = time.Now().UTC()
				if err := s.repo.UpdateJob(ctx, job); err != nil {
					return nil, fmt.Errorf("could not update job %s: %w", job.ID, err)
				}
				continue
			}

			// Transient: keep it resumable as-is.
			s.logger.Warningf("Could not check status of job %s: %s", job.ID, err)
			resumable = append(resumable, job)
			continue
		}

		job.Status = state.Status
		job.Progress = state.Progress
		job.CurrentStep = state.CurrentStep
		job.Result = state.Result
		job.Error = state.Error
		job.UpdatedAt = time.Now().UTC()
		if err := s.repo.UpdateJob(ctx, job); err != nil {
			return nil, fmt.Errorf("could not update job %s: %w", job.ID, err)
		}

		if job.Status.IsTerminal() {
			s.logger.Infof("Job %s finished while untracked: %s", job.ID, job.Status)
			continue
		}

		resumable = append(resumable, job)
	}

	s.logger.Infof("Found %d resumable jobs", len(resumable))

	return resumable, nil
}
