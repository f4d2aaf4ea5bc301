// Package progress provides progress reporting for sequence file uploads.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter is the interface the API client reports upload progress to.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	SetDescription(desc string)
}

// CLIProgress implements progress reporting with a single console bar.
type CLIProgress struct {
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a new CLI progress reporter.
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{}
}

// Start initializes the progress bar with total size and description.
func (p *CLIProgress) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update updates the progress bar to the current position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// SetDescription updates the progress bar description.
func (p *CLIProgress) SetDescription(desc string) {
	if p.bar != nil {
		p.bar.Describe(desc)
	}
}

// NoOpProgress is a silent reporter for non-interactive runs and tests.
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

// Start does nothing.
func (p *NoOpProgress) Start(total int64, description string) {}

// Update does nothing.
func (p *NoOpProgress) Update(current int64) {}

// Finish does nothing.
func (p *NoOpProgress) Finish() {}

// SetDescription does nothing.
func (p *NoOpProgress) SetDescription(desc string) {}

// ProgressReader wraps an io.Reader to report progress as it is consumed.
type ProgressReader struct {
	reader   io.Reader
	reporter Reporter
	current  int64
}

// NewProgressReader creates a new progress-reporting reader.
func NewProgressReader(reader io.Reader, reporter Reporter) *ProgressReader {
	return &ProgressReader{
		reader:   reader,
		reporter: reporter,
	}
}

// Read implements io.Reader with progress reporting.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)
	pr.reporter.Update(pr.current)
	return n, err
}
