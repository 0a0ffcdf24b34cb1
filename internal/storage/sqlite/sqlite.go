package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/model"
	"github.com/dsr-inc/jobtrack/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateJob creates a new tracked job in the repository.
func (r *Repository) CreateJob(ctx context.Context, j model.Job) error {
	query := `
		INSERT INTO jobs (
			id, project_id, remote_id, kind, params,
			status, progress, current_step, result, error,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		j.ID,
		j.ProjectID,
		j.RemoteID,
		j.Kind,
		nullableJSON(j.Params),
		j.Status,
		j.Progress,
		j.CurrentStep,
		nullableJSON(j.Result),
		j.Error,
		j.CreatedAt.Unix(),
		j.UpdatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: jobs.id") {
			return fmt.Errorf("job already exists: %w", model.ErrAlreadyExists)
		}
		if strings.Contains(err.Error(), "idx_jobs_active_project") {
			return fmt.Errorf("project %s already has an active job: %w", j.ProjectID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert job: %w", err)
	}

	r.logger.Debugf("Created job in repository: %s", j.ID)
	return nil
}

const jobColumns = `
	id, project_id, remote_id, kind, params,
	status, progress, current_step, result, error,
	created_at, updated_at
`

// GetJob retrieves a tracked job by ID.
func (r *Repository) GetJob(ctx context.Context, id string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`

	job, err := r.scanOne(ctx, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query job: %w", err)
	}

	return job, nil
}

// GetActiveJobByProject retrieves the non-terminal job of a project.
func (r *Repository) GetActiveJobByProject(ctx context.Context, projectID string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE project_id = ? AND status IN ('pending', 'running')`

	job, err := r.scanOne(ctx, query, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active job for project %s: %w", projectID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query active job: %w", err)
	}

	return job, nil
}

// ListJobs returns all tracked jobs, newest first.
func (r *Repository) ListJobs(ctx context.Context) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return jobs, nil
}

// UpdateJob updates an existing tracked job.
func (r *Repository) UpdateJob(ctx context.Context, j model.Job) error {
	query := `
		UPDATE jobs
		SET
			project_id = ?,
			remote_id = ?,
			kind = ?,
			params = ?,
			status = ?,
			progress = ?,
			current_step = ?,
			result = ?,
			error = ?,
			created_at = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		j.ProjectID,
		j.RemoteID,
		j.Kind,
		nullableJSON(j.Params),
		j.Status,
		j.Progress,
		j.CurrentStep,
		nullableJSON(j.Result),
		j.Error,
		j.CreatedAt.Unix(),
		j.UpdatedAt.Unix(),
		j.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job %s: %w", j.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated job in repository: %s", j.ID)
	return nil
}

// DeleteJob deletes a tracked job.
func (r *Repository) DeleteJob(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job %s: %w", id, model.ErrNotFound)
	}

	r.logger.Debugf("Deleted job from repository: %s", id)
	return nil
}

func (r *Repository) scanOne(ctx context.Context, query string, arg any) (*model.Job, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	job, err := r.scanRow(row)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(s scanner) (model.Job, error) {
	var job model.Job
	var params, result sql.NullString
	var createdAt, updatedAt sql.NullInt64

	err := s.Scan(
		&job.ID,
		&job.ProjectID,
		&job.RemoteID,
		&job.Kind,
		&params,
		&job.Status,
		&job.Progress,
		&job.CurrentStep,
		&result,
		&job.Error,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.Job{}, err
	}

	if params.Valid {
		job.Params = json.RawMessage(params.String)
	}
	if result.Valid {
		job.Result = json.RawMessage(result.String)
	}

	if !createdAt.Valid || !updatedAt.Valid {
		return model.Job{}, fmt.Errorf("created_at and updated_at are required")
	}
	job.CreatedAt = timeFromUnix(createdAt.Int64)
	job.UpdatedAt = timeFromUnix(updatedAt.Int64)

	return job, nil
}

// nullableJSON stores empty payloads as NULL instead of empty strings.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
