package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"snag/internal/media"
)

// Status represents the lifecycle of a download job.
type Status string

const (
	StatusFetching    Status = "fetching"
	StatusReady       Status = "ready"
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// InterruptedReason is the error message set when in-flight jobs are failed
// because the daemon restarted under them.
const InterruptedReason = "Interrupted by daemon restart"

var allStatuses = []Status{
	StatusFetching,
	StatusReady,
	StatusQueued,
	StatusDownloading,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var terminalStatuses = map[Status]struct{}{
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status Status) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// Job represents one download request persisted in SQLite.
type Job struct {
	ID              uuid.UUID
	URL             string
	Title           string
	Status          Status
	FormatID        string
	FormatsJSON     string
	OutputPath      string
	ErrorMessage    string
	ProgressPercent float64
	ProgressSpeed   string
	ProgressETA     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal reports whether the job reached a final state.
func (j Job) IsTerminal() bool {
	return IsTerminal(j.Status)
}

// IsActive reports whether the job still occupies or may occupy engine
// resources.
func (j Job) IsActive() bool {
	return !j.IsTerminal()
}

// Formats decodes the stored selectable format list. Empty storage yields an
// empty slice.
func (j Job) Formats() ([]media.Format, error) {
	if strings.TrimSpace(j.FormatsJSON) == "" {
		return nil, nil
	}
	var formats []media.Format
	if err := json.Unmarshal([]byte(j.FormatsJSON), &formats); err != nil {
		return nil, fmt.Errorf("decode formats for job %s: %w", j.ID, err)
	}
	return formats, nil
}

// SetFormats encodes and stores the selectable format list.
func (j *Job) SetFormats(formats []media.Format) error {
	data, err := json.Marshal(formats)
	if err != nil {
		return fmt.Errorf("encode formats for job %s: %w", j.ID, err)
	}
	j.FormatsJSON = string(data)
	return nil
}

// SetFailed marks the job failed with the given message and clears progress.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressPercent = 0
	j.ProgressSpeed = ""
	j.ProgressETA = ""
}

// DisplayName prefers the probed title and falls back to the URL.
func (j Job) DisplayName() string {
	if strings.TrimSpace(j.Title) != "" {
		return j.Title
	}
	return j.URL
}

// Counts aggregates job totals per lifecycle bucket for status reporting.
type Counts struct {
	Total       int
	Fetching    int
	Ready       int
	Queued      int
	Downloading int
	Completed   int
	Failed      int
	Cancelled   int
}
