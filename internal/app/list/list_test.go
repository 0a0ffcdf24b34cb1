package list_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dsr-inc/jobtrack/internal/app/list"
	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/model"
	"github.com/dsr-inc/jobtrack/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config list.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: list.ServiceConfig{
				Repository: &storagemock.MockRepository{},
				Logger:     log.Noop,
			},
			expErr: false,
		},
		"missing repository should fail": {
			config: list.ServiceConfig{Logger: log.Noop},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := list.NewService(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestService_Run(t *testing.T) {
	createdAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	allJobs := []model.Job{
		{ID: "job3", ProjectID: "prj-2", Status: model.JobStatusRunning, CreatedAt: createdAt.Add(2 * time.Hour)},
		{ID: "job2", ProjectID: "prj-1", Status: model.JobStatusFailed, CreatedAt: createdAt.Add(time.Hour)},
		{ID: "job1", ProjectID: "prj-1", Status: model.JobStatusCompleted, CreatedAt: createdAt},
	}

	tests := map[string]struct {
		mockRepo func(m *storagemock.MockRepository)
		req      list.Request
		expIDs   []string
		expErr   bool
	}{
		"list all jobs": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("ListJobs", mock.Anything).Once().Return(allJobs, nil)
			},
			req:    list.Request{},
			expIDs: []string{"job3", "job2", "job1"},
		},

		"filter by project": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("ListJobs", mock.Anything).Once().Return(allJobs, nil)
			},
			req:    list.Request{Project: "prj-1"},
			expIDs: []string{"job2", "job1"},
		},

		"filter active only": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("ListJobs", mock.Anything).Once().Return(allJobs, nil)
			},
			req:    list.Request{Active: true},
			expIDs: []string{"job3"},
		},

		"no jobs returns an empty list": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("ListJobs", mock.Anything).Once().Return([]model.Job{}, nil)
			},
			req:    list.Request{},
			expIDs: []string{},
		},

		"list failure should fail": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("ListJobs", mock.Anything).Once().Return(nil, fmt.Errorf("db locked"))
			},
			req:    list.Request{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			mr := &storagemock.MockRepository{}
			test.mockRepo(mr)

			svc, err := list.NewService(list.ServiceConfig{Repository: mr})
			require.NoError(err)

			jobs, err := svc.Run(context.Background(), test.req)

			if test.expErr {
				assert.Error(err)
			} else {
				require.NoError(err)
				gotIDs := []string{}
				for _, j := range jobs {
					gotIDs = append(gotIDs, j.ID)
				}
				assert.Equal(test.expIDs, gotIDs)
			}

			mr.AssertExpectations(t)
		})
	}
}
