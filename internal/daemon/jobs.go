package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"snag/internal/engine"
	"snag/internal/logging"
	"snag/internal/queue"
)

// ErrNotReady indicates a download was requested for a job that has no
// selectable formats yet.
var ErrNotReady = errors.New("job is not ready to download")

// Add registers a URL and kicks off its metadata probe.
func (d *Daemon) Add(ctx context.Context, url string) (*queue.Job, error) {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil, errors.New("url is required")
	}

	job, err := d.store.NewJob(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	if !d.engine.Submit(engine.FetchFormats{JobID: job.ID, URL: job.URL}) {
		job.SetFailed("engine not accepting commands")
		if updateErr := d.store.Update(ctx, job); updateErr != nil {
			d.logger.Warn("failed to fail refused job", d.jobAttr(job.ID), logging.Error(updateErr))
		}
		return nil, errors.New("engine not accepting commands")
	}
	d.logger.Info("job added", d.jobAttr(job.ID), logging.String(logging.FieldURL, job.URL))
	return job, nil
}

// AddPlaylist asks the engine to expand a playlist URL. Jobs for the entries
// are created when the expansion event arrives.
func (d *Daemon) AddPlaylist(ctx context.Context, url string) error {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return errors.New("url is required")
	}
	if !d.engine.Submit(engine.FetchPlaylist{URL: trimmed}) {
		return errors.New("engine not accepting commands")
	}
	d.logger.Info("playlist expansion requested", logging.String(logging.FieldURL, trimmed))
	return nil
}

// StartDownload selects a format for a ready job and queues its download.
func (d *Daemon) StartDownload(ctx context.Context, id uuid.UUID, formatID string) (*queue.Job, error) {
	formatID = strings.TrimSpace(formatID)
	if formatID == "" {
		return nil, errors.New("format id is required")
	}

	job, err := d.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != queue.StatusReady {
		return nil, fmt.Errorf("%w: job %s is %s", ErrNotReady, id, job.Status)
	}

	formats, err := job.Formats()
	if err != nil {
		return nil, err
	}
	known := false
	for _, f := range formats {
		if f.FormatID == formatID {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("format %q not offered for job %s", formatID, id)
	}

	job.FormatID = formatID
	job.Status = queue.StatusQueued
	if err := d.store.Update(ctx, job); err != nil {
		return nil, err
	}
	if !d.engine.Submit(engine.StartJob{JobID: job.ID, URL: job.URL, FormatID: formatID}) {
		job.SetFailed("engine not accepting commands")
		if updateErr := d.store.Update(ctx, job); updateErr != nil {
			d.logger.Warn("failed to fail refused job", d.jobAttr(job.ID), logging.Error(updateErr))
		}
		return nil, errors.New("engine not accepting commands")
	}
	d.logger.Info("download queued", d.jobAttr(job.ID), logging.String("format", formatID))
	return job, nil
}

// Cancel requests cancellation for a job. The stored status flips to
// cancelled immediately; the engine's terminal event arriving later is a
// no-op against the already-terminal row.
func (d *Daemon) Cancel(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	job, err := d.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.IsTerminal() {
		return job, nil
	}

	d.engine.Submit(engine.CancelJob{JobID: id})

	job.Status = queue.StatusCancelled
	job.ProgressSpeed = ""
	job.ProgressETA = ""
	if err := d.store.Update(ctx, job); err != nil {
		return nil, err
	}
	d.logger.Info("job cancelled", d.jobAttr(id))
	return job, nil
}

// SetConcurrency resizes the engine's permit pool.
func (d *Daemon) SetConcurrency(ctx context.Context, limit int) (int, error) {
	if limit < 1 {
		return d.engine.Concurrency(), errors.New("concurrency must be at least 1")
	}
	if !d.engine.Submit(engine.SetConcurrency{Limit: limit}) {
		return d.engine.Concurrency(), errors.New("engine not accepting commands")
	}
	return limit, nil
}

// GetJob returns one job by identifier.
func (d *Daemon) GetJob(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	return d.store.GetByID(ctx, id)
}

// ListJobs returns jobs optionally filtered by statuses.
func (d *Daemon) ListJobs(ctx context.Context, statuses []queue.Status) ([]*queue.Job, error) {
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	var jobs []*queue.Job
	for _, status := range statuses {
		matched, err := d.store.JobsByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, matched...)
	}
	return jobs, nil
}

// RemoveJob deletes a job row. Active jobs are cancelled first so the engine
// does not keep downloading for a row that no longer exists.
func (d *Daemon) RemoveJob(ctx context.Context, id uuid.UUID) error {
	job, err := d.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !job.IsTerminal() {
		d.engine.Submit(engine.CancelJob{JobID: id})
	}
	if err := d.store.Remove(ctx, id); err != nil {
		return err
	}
	d.logger.Info("job removed", d.jobAttr(id))
	return nil
}

// ClearTerminal removes completed, failed, and cancelled jobs.
func (d *Daemon) ClearTerminal(ctx context.Context) (int64, error) {
	return d.store.ClearTerminal(ctx)
}

// ClearAll removes every job, cancelling active ones first.
func (d *Daemon) ClearAll(ctx context.Context) (int64, error) {
	jobs, err := d.store.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, job := range jobs {
		if !job.IsTerminal() {
			d.engine.Submit(engine.CancelJob{JobID: job.ID})
		}
	}
	return d.store.ClearAll(ctx)
}

// Counts aggregates job totals by status.
func (d *Daemon) Counts(ctx context.Context) (queue.Counts, error) {
	return d.store.Counts(ctx)
}
