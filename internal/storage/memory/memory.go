package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	jobs   map[string]model.Job
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		jobs:   make(map[string]model.Job),
		logger: cfg.Logger,
	}, nil
}

// CreateJob creates a new tracked job in the repository.
func (r *Repository) CreateJob(ctx context.Context, j model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[j.ID]; ok {
		return fmt.Errorf("job with id %s: %w", j.ID, model.ErrAlreadyExists)
	}

	// At most one non-terminal job per project.
	if !j.Status.IsTerminal() {
		for _, existing := range r.jobs {
			if existing.ProjectID == j.ProjectID && !existing.Status.IsTerminal() {
				return fmt.Errorf("project %s already has an active job: %w", j.ProjectID, model.ErrAlreadyExists)
			}
		}
	}

	r.jobs[j.ID] = j
	r.logger.Debugf("Created job in repository: %s", j.ID)

	return nil
}

// GetJob retrieves a tracked job by ID.
func (r *Repository) GetJob(ctx context.Context, id string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, model.ErrNotFound)
	}

	// Return a copy
	jobCopy := job
	return &jobCopy, nil
}

// GetActiveJobByProject retrieves the non-terminal job of a project.
func (r *Repository) GetActiveJobByProject(ctx context.Context, projectID string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, job := range r.jobs {
		if job.ProjectID == projectID && !job.Status.IsTerminal() {
			jobCopy := job
			return &jobCopy, nil
		}
	}

	return nil, fmt.Errorf("active job for project %s: %w", projectID, model.ErrNotFound)
}

// ListJobs returns all tracked jobs, newest first.
func (r *Repository) ListJobs(ctx context.Context) ([]model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]model.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })

	return jobs, nil
}

// UpdateJob updates an existing tracked job.
func (r *Repository) UpdateJob(ctx context.Context, j model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[j.ID]; !ok {
		return fmt.Errorf("job %s: %w", j.ID, model.ErrNotFound)
	}

	r.jobs[j.ID] = j
	r.logger.Debugf("Updated job in repository: %s", j.ID)

	return nil
}

// DeleteJob deletes a tracked job.
func (r *Repository) DeleteJob(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		return fmt.Errorf("job %s: %w", id, model.ErrNotFound)
	}

	delete(r.jobs, id)
	r.logger.Debugf("Deleted job from repository: %s", id)

	return nil
}
