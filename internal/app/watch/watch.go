package watch

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

// ServiceConfig is the configuration for the watch service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Watch"})
	return nil
}

// Service tracks a submitted job to completion, persisting every progress
// update so tracking can be resumed after a restart.
type Service struct {
	poller *poller.Poller
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new watch service.
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

// Request represents the watch request parameters.
type Request struct {
	// JobOrProject is the tracking job ID or a project ID. A project ID
	// resolves to the project's active job.
	JobOrProject string
	// OnProgress is invoked on every progress update. Optional.
	OnProgress func(progress int, currentStep string)
}

// Run watches a job until it reaches a terminal state, the tracking is
// cancelled, or the context is done. It blocks and returns the final state
// of the tracking record.
//
// Watching a job that is already terminal returns its record immediately.
func (s *Service) Run(ctx context.Context, req Request) (*model.Job, error) {
	job, err := s.resolveJob(ctx, req.JobOrProject)
	if err != nil {
		return nil, err
	}

	if job.Status.IsTerminal() {
		return job, nil
	}

	s.logger.Debugf("Watching job %s (remote %s) for project %s", job.ID, job.RemoteID, job.ProjectID)

	handle := &model.JobHandle{
		ID:        job.ID,
		RemoteID:  job.RemoteID,
		ProjectID: job.ProjectID,
		StartedAt: time.Now().UTC(),
	}

	// The poller serializes callbacks, so mutating the record here is safe.
	record := *job
	persist := func() {
		record.UpdatedAt = time.Now().UTC()
		if err := s.repo.UpdateJob(ctx, record); err != nil {
			s.logger.Errorf("Could not persist job %s update: %s", record.ID, err)
		}
	}

	err = s.poller.Poll(ctx, handle, poller.Callbacks{
		OnProgress: func(progress int, step string) {
			record.Status = model.JobStatusRunning
			record.Progress = progress
			record.CurrentStep = step
			persist()

			if req.OnProgress != nil {
				req.OnProgress(progress, step)
			}
		},
		OnComplete: func(result []byte) {
			record.Status = model.JobStatusCompleted
			record.Progress = 100
			record.Result = result
			persist()
		},
		OnError: func(message string) {
			record.Status = model.JobStatusFailed
			record.Error = message
			persist()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not poll job: %w", err)
	}

	// Cancellation may have been raised from elsewhere (cancel command or a
	// superseding submission); the repository has the authoritative state.
	final, err := s.repo.GetJob(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("could not get final job state: %w", err)
	}

	return final, nil
}

func (s *Service) resolveJob(ctx context.Context, jobOrProject string) (*model.Job, error) {
	if jobOrProject == "" {
		return nil, fmt.Errorf("job or project ID is required: %w", model.ErrNotValid)
	}

	// Try lookup by tracking ID first when it looks like one.
	if looksLikeULID(jobOrProject) {
		job, err := s.repo.GetJob(ctx, jobOrProject)
		if err == nil {
			return job, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("could not get job: %w", err)
		}
	}

	// Fall back to the project's active job.
	job, err := s.repo.GetActiveJobByProject(ctx, jobOrProject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("no tracked job found for %q: %w", jobOrProject, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get active job: %w", err)
	}

	return job, nil
}

// looksLikeULID checks if a string looks like a ULID (26 characters, alphanumeric uppercase).
func looksLikeULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
