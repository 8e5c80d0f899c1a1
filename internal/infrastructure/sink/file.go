package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"researchdigest/internal/domain"
	"researchdigest/internal/ports"
)

// FileSink writes the report as UTF-8 Markdown. With no explicit path it
// follows the report-<date>.md convention inside the configured directory.
type FileSink struct {
	dir  string
	path string
}

var _ ports.ReportSink = (*FileSink)(nil)

// NewFileSink writes into dir using the date-based naming convention.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// NewFileSinkAt writes to one exact path, as given on the CLI.
func NewFileSinkAt(path string) *FileSink {
	return &FileSink{path: path}
}

// Write persists the report and returns the file path.
func (s *FileSink) Write(_ context.Context, report domain.Report, dateLabel string) (string, error) {
	path := s.path
	if path == "" {
		dir := s.dir
		if dir == "" {
			dir = "reports"
		}
		path = filepath.Join(dir, fmt.Sprintf("report-%s.md", dateLabel))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create report dir: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(report.Markdown), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}
