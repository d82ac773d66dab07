package main

import (
	"strings"
	"testing"
	"time"

	"snag/internal/ipc"
)

func TestShortID(t *testing.T) {
	id := "4b8c9d1e-2f3a-4b5c-8d7e-9f0a1b2c3d4e"
	if got := shortID(id); got != "4b8c9d1e" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID short input = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Fatalf("truncate no-op = %q", got)
	}
	long := strings.Repeat("a", 60)
	got := truncate(long, 10)
	if len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Fatalf("truncate = %q", got)
	}
}

func TestFormatStatusLabel(t *testing.T) {
	if got := formatStatusLabel("completed", false); got != "COMPLETED" {
		t.Fatalf("plain label = %q", got)
	}
	colored := formatStatusLabel("failed", true)
	if !strings.Contains(colored, "FAILED") || !strings.Contains(colored, ansiRed) {
		t.Fatalf("colored label = %q", colored)
	}
}

func TestFormatProgress(t *testing.T) {
	downloading := ipc.Job{Status: "downloading", ProgressPercent: 42, ProgressSpeed: "1.20MiB/s", ProgressETA: "00:07"}
	got := formatProgress(downloading)
	if !strings.Contains(got, "42.0%") || !strings.Contains(got, "1.20MiB/s") {
		t.Fatalf("progress = %q", got)
	}
	if formatProgress(ipc.Job{Status: "ready"}) != "" {
		t.Fatal("ready job rendered progress")
	}
	if formatProgress(ipc.Job{Status: "completed"}) != "100%" {
		t.Fatal("completed job progress mismatch")
	}
}

func TestBuildJobListRows(t *testing.T) {
	jobs := []ipc.Job{
		{
			ID:        "4b8c9d1e-2f3a-4b5c-8d7e-9f0a1b2c3d4e",
			URL:       "https://example.com/v",
			Status:    "ready",
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	rows := buildJobListRows(jobs, false)
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][0] != "4b8c9d1e" || rows[0][1] != "https://example.com/v" || rows[0][2] != "READY" {
		t.Fatalf("row = %v", rows[0])
	}
}

func TestBuildStatusRowsSkipsZeroCounts(t *testing.T) {
	rows := buildStatusRows(map[string]int{"completed": 2, "failed": 0, "ready": 1})
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "COMPLETED" || rows[1][0] != "READY" {
		t.Fatalf("rows not sorted: %v", rows)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"x"}}, nil)
	if out == "" || !strings.Contains(out, "x") {
		t.Fatalf("table = %q", out)
	}
}
