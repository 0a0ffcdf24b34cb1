package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dsr-inc/jobtrack/internal/model"
)

// JSONPrinter prints job information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// listItem represents a job in the list output (subset of fields).
type listItem struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
}

// statusOutput represents the full job status output.
type statusOutput struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	RemoteID    string          `json:"remote_id"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"current_step,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintList prints jobs in JSON format with a subset of fields.
func (j *JSONPrinter) PrintList(jobs []model.Job) error {
	items := make([]listItem, len(jobs))
	for i, job := range jobs {
		items[i] = listItem{
			ID:        job.ID,
			ProjectID: job.ProjectID,
			Kind:      string(job.Kind),
			Status:    string(job.Status),
			Progress:  job.Progress,
			CreatedAt: job.CreatedAt.UTC(),
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintStatus prints detailed job status in JSON format.
func (j *JSONPrinter) PrintStatus(job model.Job) error {
	output := statusOutput{
		ID:          job.ID,
		ProjectID:   job.ProjectID,
		RemoteID:    job.RemoteID,
		Kind:        string(job.Kind),
		Status:      string(job.Status),
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Result:      job.Result,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt.UTC(),
		UpdatedAt:   job.UpdatedAt.UTC(),
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	output := messageOutput{Message: msg}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
