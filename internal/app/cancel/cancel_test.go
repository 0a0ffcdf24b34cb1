package cancel_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dsr-inc/jobtrack/internal/app/cancel"
	"github.com/dsr-inc/jobtrack/internal/jobapi/jobapimock"
	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/model"
	"github.com/dsr-inc/jobtrack/internal/poller"
	"github.com/dsr-inc/jobtrack/internal/storage/storagemock"
)

func newTestPoller(t *testing.T) *poller.Poller {
	t.Helper()

	p, err := poller.New(poller.Config{Client: &jobapimock.MockClient{}})
	require.NoError(t, err)

	return p
}

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config func(t *testing.T) cancel.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: func(t *testing.T) cancel.ServiceConfig {
				return cancel.ServiceConfig{
					Poller:     newTestPoller(t),
					Repository: &storagemock.MockRepository{},
					Logger:     log.Noop,
				}
			},
			expErr: false,
		},
		"missing poller should fail": {
			config: func(t *testing.T) cancel.ServiceConfig {
				return cancel.ServiceConfig{Repository: &storagemock.MockRepository{}}
			},
			expErr: true,
		},
		"missing repository should fail": {
			config: func(t *testing.T) cancel.ServiceConfig {
				return cancel.ServiceConfig{Poller: newTestPoller(t)}
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := cancel.NewService(test.config(t))

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
	runningJob := func() *model.Job {
		return &model.Job{
			ID:        "01H2QWERTYASDFGZXCVBNMLKJH",
			ProjectID: "prj-1",
			RemoteID:  "remote-1",
			Kind:      model.JobKindImport,
			Status:    model.JobStatusRunning,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
	}

	tests := map[string]struct {
		mockRepo  func(m *storagemock.MockRepository)
		req       cancel.Request
		expStatus model.JobStatus
		expErr    bool
	}{
		"cancel a running job by ID": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("GetJob", mock.Anything, "01H2QWERTYASDFGZXCVBNMLKJH").Once().Return(runningJob(), nil)
				m.On("UpdateJob", mock.Anything, mock.MatchedBy(func(j model.Job) bool {
					return j.ID == "01H2QWERTYASDFGZXCVBNMLKJH" &&
						j.Status == model.JobStatusCancelled
				})).Once().Return(nil)
			},
			req:       cancel.Request{JobOrProject: "01H2QWERTYASDFGZXCVBNMLKJH"},
			expStatus: model.JobStatusCancelled,
		},

		"cancel the active job of a project": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("GetJob", mock.Anything, "prj-1").Once().Return(nil, model.ErrNotFound)
				m.On("GetActiveJobByProject", mock.Anything, "prj-1").Once().Return(runningJob(), nil)
				m.On("UpdateJob", mock.Anything, mock.MatchedBy(func(j model.Job) bool {
					return j.Status == model.JobStatusCancelled
				})).Once().Return(nil)
			},
			req:       cancel.Request{JobOrProject: "prj-1"},
			expStatus: model.JobStatusCancelled,
		},

		"cancelling a terminal job is a no-op": {
			mockRepo: func(m *storagemock.MockRepository) {
				job := runningJob()
				job.Status = model.JobStatusCompleted
				m.On("GetJob", mock.Anything, "01H2QWERTYASDFGZXCVBNMLKJH").Once().Return(job, nil)
			},
			req:       cancel.Request{JobOrProject: "01H2QWERTYASDFGZXCVBNMLKJH"},
			expStatus: model.JobStatusCompleted,
		},

		"unknown job should fail": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("GetJob", mock.Anything, "whatever").Once().Return(nil, model.ErrNotFound)
				m.On("GetActiveJobByProject", mock.Anything, "whatever").Once().Return(nil, model.ErrNotFound)
			},
			req:    cancel.Request{JobOrProject: "whatever"},
			expErr: true,
		},

		"empty request should fail": {
			mockRepo: func(m *storagemock.MockRepository) {},
			req:      cancel.Request{},
			expErr:   true,
		},

		"update failure should fail": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("GetJob", mock.Anything, "01H2QWERTYASDFGZXCVBNMLKJH").Once().Return(runningJob(), nil)
				m.On("UpdateJob", mock.Anything, mock.Anything).Once().Return(fmt.Errorf("db locked"))
			},
			req:    cancel.Request{JobOrProject: "01H2QWERTYASDFGZXCVBNMLKJH"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			mr := &storagemock.MockRepository{}
			test.mockRepo(mr)

			svc, err := cancel.NewService(cancel.ServiceConfig{
				Poller:     newTestPoller(t),
				Repository: mr,
			})
			require.NoError(err)

			job, err := svc.Run(context.Background(), test.req)

			if test.expErr {
				assert.Error(err)
			} else {
				require.NoError(err)
				require.NotNil(job)
				assert.Equal(test.expStatus, job.Status)
			}

			mr.AssertExpectations(t)
		})
	}
}
