package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dsr-inc/jobtrack/internal/model"
)

// MockRepository is a mock implementation of storage.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateJob(ctx context.Context, j model.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockRepository) GetJob(ctx context.Context, id string) (*model.Job, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*model.Job)
	return job, args.Error(1)
}

func (m *MockRepository) GetActiveJobByProject(ctx context.Context, projectID string) (*model.Job, error) {
	args := m.Called(ctx, projectID)
	job, _ := args.Get(0).(*model.Job)
	return job, args.Error(1)
}

func (m *MockRepository) ListJobs(ctx context.Context) ([]model.Job, error) {
	args := m.Called(ctx)
	jobs, _ := args.Get(0).([]model.Job)
	return jobs, args.Error(1)
}

func (m *MockRepository) UpdateJob(ctx context.Context, j model.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockRepository) DeleteJob(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
