package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dsr-inc/jobtrack/internal/model"
)

func TestJobRequestValidate(t *testing.T) {
	tests := map[string]struct {
		req    model.JobRequest
		expErr bool
	}{
		"a valid proposal request should pass": {
			req: model.JobRequest{
				ProjectID: "prj-1",
				Kind:      model.JobKindProposal,
				Params:    json.RawMessage(`{"tone":"formal"}`),
			},
		},
		"a valid import request without params should pass": {
			req: model.JobRequest{
				ProjectID: "prj-1",
				Kind:      model.JobKindImport,
			},
		},
		"a request without a project should fail": {
			req:    model.JobRequest{Kind: model.JobKindProposal},
			expErr: true,
		},
		"a request without a kind should fail": {
			req:    model.JobRequest{ProjectID: "prj-1"},
			expErr: true,
		},
		"a request with an unknown kind should fail": {
			req:    model.JobRequest{ProjectID: "prj-1", Kind: "repaint"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.req.Validate()

			if test.expErr {
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	tests := map[string]struct {
		status model.JobStatus
		exp    bool
	}{
		"pending is not terminal":   {status: model.JobStatusPending, exp: false},
		"running is not terminal":   {status: model.JobStatusRunning, exp: false},
		"completed is terminal":     {status: model.JobStatusCompleted, exp: true},
		"failed is terminal":        {status: model.JobStatusFailed, exp: true},
		"cancelled is terminal":     {status: model.JobStatusCancelled, exp: true},
		"unknown is never terminal": {status: "weird", exp: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.status.IsTerminal())
		})
	}
}
