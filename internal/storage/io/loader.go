package io

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/dsr-inc/jobtrack/internal/model"
)

// RequestYAMLRepository loads job requests from YAML files.
type RequestYAMLRepository struct {
	fs fs.FS
}

// NewRequestYAMLRepository creates a new YAML request repository.
func NewRequestYAMLRepository(filesystem fs.FS) *RequestYAMLRepository {
	return &RequestYAMLRepository{fs: filesystem}
}

// GetRequest loads a job request from a YAML file and returns a validated domain model.
func (r *RequestYAMLRepository) GetRequest(ctx context.Context, path string) (model.JobRequest, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.JobRequest{}, fmt.Errorf("reading request file: %w", err)
	}

	if ctx.Err() != nil {
		return model.JobRequest{}, ctx.Err()
	}

	var req JobRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return model.JobRequest{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := req.validate(); err != nil {
		return model.JobRequest{}, fmt.Errorf("invalid request: %w", err)
	}

	return req.toModel()
}

// JobRequest represents the YAML structure for a job request.
type JobRequest struct {
	Project string         `yaml:"project"`
	Kind    string         `yaml:"kind"`
	Params  map[string]any `yaml:"params"`
}

func (r JobRequest) validate() error {
	if r.Project == "" {
		return fmt.Errorf("project is required")
	}

	switch model.JobKind(r.Kind) {
	case model.JobKindProposal, model.JobKindImport:
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown kind %q (must be proposal or import)", r.Kind)
	}

	return nil
}

func (r JobRequest) toModel() (model.JobRequest, error) {
	var params json.RawMessage
	if len(r.Params) > 0 {
		data, err := json.Marshal(r.Params)
		if err != nil {
			return model.JobRequest{}, fmt.Errorf("encoding params: %w", err)
		}
		params = data
	}

	return model.JobRequest{
		ProjectID: r.Project,
		Kind:      model.JobKind(r.Kind),
		Params:    params,
	}, nil
}
