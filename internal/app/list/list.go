package list

import (
	"context"
	"fmt"

	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/model"
	"github.com/dsr-inc/jobtrack/internal/storage"
)

// ServiceConfig is the configuration for the list service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.List"})
	return nil
}

// Service lists tracked jobs.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// Project filters the listing to a single project. Optional.
	Project string
	// Active filters the listing to non-terminal jobs. Optional.
	Active bool
}

// Run returns tracked jobs, newest first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Job, error) {
	jobs, err := s.repo.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list jobs: %w", err)
	}

	filtered := []model.Job{}
	for _, job := range jobs {
		if req.Project != "" && job.ProjectID != req.Project {
			continue
		}
		if req.Active && job.Status.IsTerminal() {
			continue
		}
		filtered = append(filtered, job)
	}

	return filtered, nil
}
