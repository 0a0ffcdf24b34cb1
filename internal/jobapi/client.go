package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/model"
)

// HTTPClientConfig configures the HTTP-backed job API client.
type HTTPClientConfig struct {
	// BaseURL is the DSR API base URL (e.g. "https://api.dsr.example.com").
	BaseURL string
	// Token is the bearer token used for authentication. Optional.
	Token string
	// Client is the HTTP client for API requests.
	Client *http.Client
	// Logger for logging.
	Logger log.Logger
}

func (c *HTTPClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "jobapi.HTTPClient"})

	return nil
}

// HTTPClient implements Client against the DSR REST job API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     log.Logger
}

// NewHTTPClient creates a new HTTP-backed job API client.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: cfg.Client,
		logger:     cfg.Logger,
	}, nil
}

var _ Client = &HTTPClient{}

// --- JSON wire types (private, for the DSR job API) ---

type submitRequestJSON struct {
	Kind   string          `json:"kind"`
	Params json.RawMessage `json:"params,omitempty"`
}

type submitResponseJSON struct {
	JobID string `json:"job_id"`
}

type statusResponseJSON struct {
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"current_step"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func (s *statusResponseJSON) toModel() (*model.JobState, error) {
	status := model.JobStatus(s.Status)
	switch status {
	case model.JobStatusPending, model.JobStatusRunning,
		model.JobStatusCompleted, model.JobStatusFailed:
	default:
		return nil, fmt.Errorf("unknown job status %q: %w", s.Status, model.ErrNotValid)
	}

	return &model.JobState{
		Status:      status,
		Progress:    s.Progress,
		CurrentStep: s.CurrentStep,
		Result:      s.Result,
		Error:       s.Error,
	}, nil
}

// SubmitJob creates a job through the DSR API and returns the server job ID.
func (c *HTTPClient) SubmitJob(ctx context.Context, req model.JobRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid job request: %w", err)
	}

	body, err := json.Marshal(submitRequestJSON{
		Kind:   string(req.Kind),
		Params: req.Params,
	})
	if err != nil {
		return "", fmt.Errorf("could not marshal job request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/projects/%s/jobs", c.baseURL, req.ProjectID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("could not submit job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("job submission failed: %s", httpErrorDetail(resp))
	}

	var submitResp submitResponseJSON
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("could not decode submit response: %w", err)
	}
	if submitResp.JobID == "" {
		return "", fmt.Errorf("server returned an empty job id: %w", model.ErrNotValid)
	}

	c.logger.Debugf("Submitted %s job for project %s: %s", req.Kind, req.ProjectID, submitResp.JobID)
	return submitResp.JobID, nil
}

// JobStatus returns the current server-side state of a job.
func (c *HTTPClient) JobStatus(ctx context.Context, remoteID string) (*model.JobState, error) {
	if remoteID == "" {
		return nil, fmt.Errorf("remote job id is required: %w", model.ErrNotValid)
	}

	url := fmt.Sprintf("%s/api/v1/jobs/%s", c.baseURL, remoteID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	c.setAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("could not get job status: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("job %s: %w", remoteID, model.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("job status request failed: %s", httpErrorDetail(resp))
	}

	var statusResp statusResponseJSON
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return nil, fmt.Errorf("could not decode status response: %w", err)
	}

	state, err := statusResp.toModel()
	if err != nil {
		return nil, err
	}

	return state, nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// httpErrorDetail builds an error detail from a non-2xx response, including a
// truncated body snippet when present.
func httpErrorDetail(resp *http.Response) string {
	const maxBody = 512

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	snippet := strings.TrimSpace(string(body))
	if snippet == "" {
		return resp.Status
	}

	return fmt.Sprintf("%s: %s", resp.Status, snippet)
}
