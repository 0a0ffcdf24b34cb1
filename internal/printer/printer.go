package printer

import "github.com/dsr-inc/jobtrack/internal/model"

// Printer knows how to print job information in different formats.
type Printer interface {
	PrintList(jobs []model.Job) error
	PrintStatus(job model.Job) error
	PrintMessage(msg string) error
}
