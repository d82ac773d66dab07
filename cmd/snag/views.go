package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"snag/internal/ipc"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiCyan   = "\x1b[36m"
)

const titleColumnWidth = 48

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}

func formatStatusLabel(status string, colorize bool) string {
	label := strings.ToUpper(status)
	if !colorize {
		return label
	}
	switch status {
	case "completed":
		return ansiGreen + label + ansiReset
	case "failed":
		return ansiRed + label + ansiReset
	case "cancelled":
		return ansiYellow + label + ansiReset
	case "downloading":
		return ansiCyan + label + ansiReset
	default:
		return label
	}
}

func jobTitle(job ipc.Job) string {
	title := strings.TrimSpace(job.Title)
	if title == "" {
		title = job.URL
	}
	return truncate(title, titleColumnWidth)
}

func formatProgress(job ipc.Job) string {
	switch job.Status {
	case "downloading":
		return fmt.Sprintf("%5.1f%% %s ETA %s", job.ProgressPercent, job.ProgressSpeed, job.ProgressETA)
	case "completed":
		return "100%"
	default:
		return ""
	}
}

func formatDisplayTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Local().Format("2006-01-02 15:04")
}

func buildJobListRows(jobs []ipc.Job, colorize bool) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			shortID(job.ID),
			jobTitle(job),
			formatStatusLabel(job.Status, colorize),
			formatProgress(job),
			formatDisplayTime(job.CreatedAt),
		})
	}
	return rows
}

func buildFormatRows(formats []ipc.Format) [][]string {
	rows := make([][]string, 0, len(formats))
	for _, f := range formats {
		rows = append(rows, []string{f.ID, f.Resolution, f.Ext, f.Size, f.Bitrate})
	}
	return rows
}

func buildStatusRows(counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for key, n := range counts {
		if n == 0 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{strings.ToUpper(key), fmt.Sprintf("%d", counts[key])})
	}
	return rows
}
