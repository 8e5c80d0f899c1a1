package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"researchdigest/internal/domain"
)

func TestWriteDefaultNamingConvention(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "reports")
	s := NewFileSink(dir)

	report := domain.Report{Markdown: "# Daily Research & Idea Report - 2026-08-29\n"}
	path, err := s.Write(context.Background(), report, "2026-08-29")
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}

	if filepath.Base(path) != "report-2026-08-29.md" {
		t.Fatalf("unexpected file name: %s", path)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("report written outside the configured directory: %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(raw) != report.Markdown {
		t.Fatalf("written content differs: %q", raw)
	}
}

func TestWriteExplicitPathCreatesDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "deeper", "out.md")
	s := NewFileSinkAt(path)

	got, err := s.Write(context.Background(), domain.Report{Markdown: "body\n"}, "2026-08-29")
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if got != path {
		t.Fatalf("expected the explicit path back, got %s", got)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(raw) != "body\n" {
		t.Fatalf("written content differs: %q", raw)
	}
}
