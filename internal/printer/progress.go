package printer

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar renders job progress updates as a single self-overwriting
// terminal line.
type ProgressBar struct {
	statusWriter io.Writer
	lastLen      int
	mu           sync.Mutex
}

// NewProgressBar creates a new progress bar writing to statusWriter.
func NewProgressBar(statusWriter io.Writer) *ProgressBar {
	return &ProgressBar{statusWriter: statusWriter}
}

// Update redraws the bar with the given percentage (0-100) and step text.
func (p *ProgressBar) Update(progress int, step string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	barWidth := 40
	filled := progress * barWidth / 100
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)

	line := fmt.Sprintf("  [%s] %3d%% %s", bar, progress, step)

	// Pad with spaces so a shorter line fully overwrites the previous one.
	padding := ""
	if len(line) < p.lastLen {
		padding = strings.Repeat(" ", p.lastLen-len(line))
	}
	p.lastLen = len(line)

	fmt.Fprintf(p.statusWriter, "\r%s%s", line, padding)
}

// Finish ends the progress line with a newline.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastLen > 0 {
		fmt.Fprintln(p.statusWriter)
	}
}
