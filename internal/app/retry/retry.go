package retry

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

// ServiceConfig is the configuration for the retry service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Retry"})
	return nil
}

// Service resubmits failed or cancelled jobs with their original parameters.
type Service struct {
	client jobapi.Client
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new retry service.
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

// Request represents the retry request parameters.
type Request struct {
	// JobID is the tracking ID of the job to retry.
	JobID string
}

// Run resubmits a failed or cancelled job as a brand new job, reusing the
// stored kind and parameters. The original record is left untouched; the new
// submission gets its own tracking record and ID.
func (s *Service) Run(ctx context.Context, req Request) (*model.Job, error) {
	if req.JobID == "" {
		return nil, fmt.Errorf("job ID is required: %w", model.ErrNotValid)
	}

	// 1. Load the original job.
	orig, err := s.repo.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("could not get job: %w", err)
	}

	// 2. Only failed or cancelled jobs can be retried.
	switch orig.Status {
	case model.JobStatusFailed, model.JobStatusCancelled:
	default:
		return nil, fmt.Errorf("job %s is %s, only failed or cancelled jobs can be retried: %w",
			orig.ID, orig.Status, model.ErrNotValid)
	}

	// 3. Supersede a previously active job for the project, if any.
	active, err := s.repo.GetActiveJobByProject(ctx, orig.ProjectID)
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

	// 4. Resubmit with the original parameters.
	jobReq := model.JobRequest{
		ProjectID: orig.ProjectID,
		Kind:      orig.Kind,
		Params:    orig.Params,
	}
	remoteID, err := s.client.SubmitJob(ctx, jobReq)
	if err != nil {
		return nil, fmt.Errorf("could not submit job: %w", err)
	}

	// 5. Save the new tracking record.
	now := time.Now().UTC()
	job := model.Job{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		ProjectID: orig.ProjectID,
		RemoteID:  remoteID,
		Kind:      orig.Kind,
		Params:    orig.Params,
		Status:    model.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("could not save job: %w", err)
	}

	s.logger.Infof("Retried job %s as %s (remote: %s)", orig.ID, job.ID, job.RemoteID)

	return &job, nil
}
