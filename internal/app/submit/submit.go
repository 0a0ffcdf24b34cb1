package submit

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dsr-inc/jobtrack/internal/jobapi"
	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/model"
	"github.com/dsr-inc/jobtrack/internal/storage"
)

// ServiceConfig is the configuration for the submit service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Submit"})
	return nil
}

// Service submits new jobs to the DSR platform and tracks them locally.
type Service struct {
	client jobapi.Client
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new submit service.
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

// Request represents the submit request parameters.
type Request struct {
	// Job is the job to submit.
	Job model.JobRequest
}

// Run submits a job and creates its local tracking record.
//
// A project tracks at most one active job: any previously active job for the
// same project is superseded (marked cancelled) before the new one is
// submitted. Submission failures surface immediately and leave no record.
func (s *Service) Run(ctx context.Context, req Request) (*model.Job, error) {
	// 1. Validate the request.
	if err := req.Job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job request: %w", err)
	}

	// 2. Supersede a previously active job for the project, if any.
	active, err := s.repo.GetActiveJobByProject(ctx, req.Job.ProjectID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("could not check active job: %w", err)
	}
	if err == nil {
		s.logger.Debugf("Superseding active job %s for project %s", active.ID, active.ProjectID)

		active.Status = model.JobStatusCancelled
		active.UpdatedAt = time.Now().UTC()
		if err := s.repo.UpdateJob(ctx, *active); err != nil {
			return nil, fmt.Errorf("could not supersede active job: %w", err)
		}
	}

	// 3. Submit via the API.
	remoteID, err := s.client.SubmitJob(ctx, req.Job)
	if err != nil {
		return nil, fmt.Errorf("could not submit job: %w", err)
	}

	// 4. Save the tracking record.
	now := time.Now().UTC()
	job := model.Job{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		ProjectID: req.Job.ProjectID,
		RemoteID:  remoteID,
		Kind:      req.Job.Kind,
		Params:    req.Job.Params,
		Status:    model.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("could not save job: %w", err)
	}

	s.logger.Infof("Submitted %s job for project %s: %s (ID: %s)", job.Kind, job.ProjectID, job.RemoteID, job.ID)

	return &job, nil
}
