package jobapimock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dsr-inc/jobtrack/internal/model"
)

// MockClient is a mock implementation of jobapi.Client.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) SubmitJob(ctx context.Context, req model.JobRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockClient) JobStatus(ctx context.Context, remoteID string) (*model.JobState, error) {
	args := m.Called(ctx, remoteID)
	state, _ := args.Get(0).(*model.JobState)
	return state, args.Error(1)
}
