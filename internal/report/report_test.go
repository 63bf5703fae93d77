package report

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestWriteMarkdown(t *testing.T) {
	t.Parallel()

	summary := &Summary{
		RunID:     "cq1example",
		Subject:   "Micah Parsons",
		Prefix:    "micah_parsons",
		Dir:       "images/micah_parsons",
		Provider:  "bing",
		Policy:    "stretch",
		Target:    5,
		StartedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Duration:  3 * time.Second,
		Queries:   2,
		Written:   8,
		Kept:      5,
		Rejected:  3,
		Files: []File{
			{Name: "micah_parsons_001.jpg", Width: 1280, Height: 720},
			{Name: "micah_parsons_002.jpg", Width: 1280, Height: 720},
		},
	}

	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Harvest Report: Micah Parsons",
		"## Stages",
		"`cq1example`",
		"candidates written",
		"`micah_parsons_002.jpg` 1280x720",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
}

func TestWriteMarkdownNoFiles(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, &Summary{Subject: "nobody"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No images were kept.") {
		t.Errorf("expected empty file note, got\n%s", buf.String())
	}
}

func TestShort(t *testing.T) {
	t.Parallel()

	s := &Summary{Dir: "out", Target: 3, Written: 4, Rejected: 1, Files: make([]File, 2)}
	if got, want := s.Short(), "2/3 images in out (4 fetched, 1 rejected, 0 undecodable)"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
