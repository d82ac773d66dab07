package ipc

import (
	"time"

	"snag/internal/media"
	"snag/internal/queue"
)

// Format is the wire representation of one selectable format.
type Format struct {
	ID         string  `json:"id"`
	Resolution string  `json:"resolution"`
	Ext        string  `json:"ext"`
	Size       string  `json:"size"`
	Bitrate    string  `json:"bitrate"`
	TBR        float64 `json:"tbr"`
}

// Job is the wire representation of one download job.
type Job struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	FormatID        string    `json:"format_id"`
	Formats         []Format  `json:"formats,omitempty"`
	OutputPath      string    `json:"output_path"`
	ErrorMessage    string    `json:"error_message"`
	ProgressPercent float64   `json:"progress_percent"`
	ProgressSpeed   string    `json:"progress_speed"`
	ProgressETA     string    `json:"progress_eta"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FromFormat converts a media format to its wire representation.
func FromFormat(f media.Format) Format {
	return Format{
		ID:         f.FormatID,
		Resolution: f.DisplayResolution(),
		Ext:        f.Ext,
		Size:       f.DisplaySize(),
		Bitrate:    f.DisplayBitrate(),
		TBR:        f.TBR,
	}
}

// FromJob converts a stored job to its wire representation. Formats are
// included only when includeFormats is set; list views skip them.
func FromJob(job *queue.Job, includeFormats bool) Job {
	dto := Job{
		ID:              job.ID.String(),
		URL:             job.URL,
		Title:           job.Title,
		Status:          string(job.Status),
		FormatID:        job.FormatID,
		OutputPath:      job.OutputPath,
		ErrorMessage:    job.ErrorMessage,
		ProgressPercent: job.ProgressPercent,
		ProgressSpeed:   job.ProgressSpeed,
		ProgressETA:     job.ProgressETA,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
	if includeFormats {
		if formats, err := job.Formats(); err == nil {
			dto.Formats = make([]Format, 0, len(formats))
			for _, f := range formats {
				dto.Formats = append(dto.Formats, FromFormat(f))
			}
		}
	}
	return dto
}

// AddRequest registers a URL for downloading.
type AddRequest struct {
	URL string `json:"url"`
}

// AddResponse returns the created job.
type AddResponse struct {
	Job Job `json:"job"`
}

// AddPlaylistRequest expands a playlist URL into one job per entry.
type AddPlaylistRequest struct {
	URL string `json:"url"`
}

// AddPlaylistResponse acknowledges that expansion started.
type AddPlaylistResponse struct {
	Accepted bool `json:"accepted"`
}

// ListRequest filters job listing by status names.
type ListRequest struct {
	Statuses []string `json:"statuses"`
}

// ListResponse contains job entries.
type ListResponse struct {
	Jobs []Job `json:"jobs"`
}

// DescribeRequest fetches a single job by id.
type DescribeRequest struct {
	ID string `json:"id"`
}

// DescribeResponse contains a single job with its formats.
type DescribeResponse struct {
	Job Job `json:"job"`
}

// StartRequest queues a download for a ready job.
type StartRequest struct {
	ID       string `json:"id"`
	FormatID string `json:"format_id"`
}

// StartResponse returns the queued job.
type StartResponse struct {
	Job Job `json:"job"`
}

// CancelRequest cancels a job.
type CancelRequest struct {
	ID string `json:"id"`
}

// CancelResponse returns the job after cancellation.
type CancelResponse struct {
	Job Job `json:"job"`
}

// RemoveRequest deletes a job row.
type RemoveRequest struct {
	ID string `json:"id"`
}

// RemoveResponse acknowledges removal.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// ClearRequest removes terminal jobs, or every job when All is set.
type ClearRequest struct {
	All bool `json:"all"`
}

// ClearResponse reports the number of removed entries.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}

// ConcurrencyRequest resizes the download permit pool.
type ConcurrencyRequest struct {
	Limit int `json:"limit"`
}

// ConcurrencyResponse reports the applied limit.
type ConcurrencyResponse struct {
	Limit int `json:"limit"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running         bool           `json:"running"`
	ActiveDownloads int            `json:"active_downloads"`
	Concurrency     int            `json:"concurrency"`
	JobCounts       map[string]int `json:"job_counts"`
	JobDBPath       string         `json:"job_db_path"`
	LockPath        string         `json:"lock_path"`
	SocketPath      string         `json:"socket_path"`
	PID             int            `json:"pid"`
}

// StopDaemonRequest asks the daemon process to shut down.
type StopDaemonRequest struct{}

// StopDaemonResponse acknowledges shutdown.
type StopDaemonResponse struct {
	Stopped bool `json:"stopped"`
}
