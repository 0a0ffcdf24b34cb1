package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dsr-inc/jobtrack/internal/model"
)

// TablePrinter prints job information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintList prints jobs in a table format.
func (t *TablePrinter) PrintList(jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header
	fmt.Fprintln(tw, "ID\tPROJECT\tKIND\tSTATUS\tPROGRESS\tCREATED")

	// Print rows
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\t%s\n",
			j.ID, j.ProjectID, j.Kind, j.Status, j.Progress, TimeAgo(j.CreatedAt))
	}

	return nil
}

// PrintStatus prints detailed job status.
func (t *TablePrinter) PrintStatus(job model.Job) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", job.ID)
	fmt.Fprintf(t.writer, "Project:    %s\n", job.ProjectID)
	fmt.Fprintf(t.writer, "Remote ID:  %s\n", job.RemoteID)
	fmt.Fprintf(t.writer, "Kind:       %s\n", job.Kind)
	fmt.Fprintf(t.writer, "Status:     %s\n", job.Status)
	fmt.Fprintf(t.writer, "Progress:   %d%%\n", job.Progress)

	if job.CurrentStep != "" {
		fmt.Fprintf(t.writer, "Step:       %s\n", job.CurrentStep)
	}

	if len(job.Result) > 0 {
		fmt.Fprintf(t.writer, "Result:     %s\n", string(job.Result))
	}

	if job.Error != "" {
		fmt.Fprintf(t.writer, "Error:      %s\n", job.Error)
	}

	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(job.CreatedAt))
	fmt.Fprintf(t.writer, "Updated:    %s\n", FormatTimestamp(job.UpdatedAt))

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}
