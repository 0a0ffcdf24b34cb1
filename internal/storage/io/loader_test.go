package io_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageio "github.com/dsr-inc/jobtrack/internal/storage/io"
	"github.com/dsr-inc/jobtrack/internal/model"
)

func TestGetRequest(t *testing.T) {
	tests := map[string]struct {
		yaml      string
		expReq    model.JobRequest
		expParams string
		expErr    bool
	}{
		"a valid proposal request should load": {
			yaml: `
project: prj-42
kind: proposal
params:
  tone: formal
  language: en
`,
			expReq: model.JobRequest{
				ProjectID: "prj-42",
				Kind:      model.JobKindProposal,
			},
			expParams: `{"language":"en","tone":"formal"}`,
		},

		"a request without params should load": {
			yaml: `
project: prj-42
kind: import
`,
			expReq: model.JobRequest{
				ProjectID: "prj-42",
				Kind:      model.JobKindImport,
			},
		},

		"a request without a project should fail": {
			yaml: `
kind: proposal
`,
			expErr: true,
		},

		"a request without a kind should fail": {
			yaml: `
project: prj-42
`,
			expErr: true,
		},

		"a request with an unknown kind should fail": {
			yaml: `
project: prj-42
kind: repaint
`,
			expErr: true,
		},

		"invalid YAML should fail": {
			yaml:   `{{not yaml`,
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			fsys := fstest.MapFS{
				"request.yaml": &fstest.MapFile{Data: []byte(test.yaml)},
			}
			repo := storageio.NewRequestYAMLRepository(fsys)

			req, err := repo.GetRequest(context.Background(), "request.yaml")

			if test.expErr {
				assert.Error(err)
				return
			}

			require.NoError(err)
			assert.Equal(test.expReq.ProjectID, req.ProjectID)
			assert.Equal(test.expReq.Kind, req.Kind)
			if test.expParams != "" {
				assert.JSONEq(test.expParams, string(req.Params))
			} else {
				assert.Empty(req.Params)
			}
		})
	}
}

func TestGetRequestMissingFile(t *testing.T) {
	repo := storageio.NewRequestYAMLRepository(fstest.MapFS{})

	_, err := repo.GetRequest(context.Background(), "missing.yaml")
	assert.Error(t, err)
}
