package daemon

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"snag/internal/engine"
	"snag/internal/logging"
	"snag/internal/queue"
)

// foldEvents applies every engine event to the job store until the engine
// closes its event channel. Store writes use a background context so terminal
// events arriving during shutdown still land.
func (d *Daemon) foldEvents() {
	defer close(d.foldDone)
	for ev := range d.engine.Events() {
		d.apply(context.Background(), ev)
	}
}

func (d *Daemon) apply(ctx context.Context, ev engine.Event) {
	switch e := ev.(type) {
	case engine.JobStarted:
		d.mutateJob(ctx, e.ID, func(job *queue.Job) bool {
			job.Status = queue.StatusDownloading
			return true
		})
	case engine.FormatsReady:
		d.mutateJob(ctx, e.ID, func(job *queue.Job) bool {
			job.Title = e.Title
			job.Status = queue.StatusReady
			if err := job.SetFormats(e.Formats); err != nil {
				d.logger.Warn("failed to encode formats", d.jobAttr(e.ID), logging.Error(err))
				return false
			}
			return true
		})
	case engine.JobProgress:
		d.mutateJob(ctx, e.ID, func(job *queue.Job) bool {
			// A stale sample racing the terminal event must not resurrect
			// the downloading status.
			if job.Status != queue.StatusDownloading {
				return false
			}
			job.ProgressPercent = e.Percent
			job.ProgressSpeed = e.Speed
			job.ProgressETA = e.ETA
			return true
		})
	case engine.JobCompleted:
		d.mutateJob(ctx, e.ID, func(job *queue.Job) bool {
			job.Status = queue.StatusCompleted
			job.OutputPath = e.Path
			job.ProgressPercent = 100
			job.ProgressSpeed = ""
			job.ProgressETA = ""
			return true
		})
	case engine.JobFailed:
		d.mutateJob(ctx, e.ID, func(job *queue.Job) bool {
			if e.Cancelled {
				job.Status = queue.StatusCancelled
				job.ProgressSpeed = ""
				job.ProgressETA = ""
				return true
			}
			job.SetFailed(e.Reason)
			return true
		})
		if !e.Cancelled {
			d.logger.Warn("job failed", d.jobAttr(e.ID), logging.String("reason", e.Reason))
		}
	case engine.PlaylistExpanded:
		d.enqueuePlaylistEntries(ctx, e)
	}
}

// mutateJob loads a job, lets mutate adjust it, and persists the result.
// Terminal jobs are never touched; cancel wins races against late events.
func (d *Daemon) mutateJob(ctx context.Context, id uuid.UUID, mutate func(*queue.Job) bool) {
	job, err := d.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			// Job removed while the engine still held work for it.
			d.logger.Debug("event for missing job", d.jobAttr(id))
			return
		}
		d.logger.Warn("failed to load job for event", d.jobAttr(id), logging.Error(err))
		return
	}
	if job.IsTerminal() {
		return
	}
	if !mutate(job) {
		return
	}
	if err := d.store.Update(ctx, job); err != nil {
		d.logger.Warn("failed to persist job event", d.jobAttr(id), logging.Error(err))
	}
}

func (d *Daemon) enqueuePlaylistEntries(ctx context.Context, ev engine.PlaylistExpanded) {
	if len(ev.Entries) == 0 {
		d.logger.Warn("playlist expansion produced no entries")
		return
	}
	for _, entry := range ev.Entries {
		job, err := d.store.NewJob(ctx, entry.URL)
		if err != nil {
			d.logger.Warn("failed to enqueue playlist entry",
				logging.String(logging.FieldURL, entry.URL), logging.Error(err))
			continue
		}
		if entry.Title != "" {
			job.Title = entry.Title
			if err := d.store.Update(ctx, job); err != nil {
				d.logger.Warn("failed to store playlist title", d.jobAttr(job.ID), logging.Error(err))
			}
		}
		if !d.engine.Submit(engine.FetchFormats{JobID: job.ID, URL: job.URL}) {
			job.SetFailed("engine not accepting commands")
			if err := d.store.Update(ctx, job); err != nil {
				d.logger.Warn("failed to fail refused job", d.jobAttr(job.ID), logging.Error(err))
			}
		}
	}
	d.logger.Info("playlist expanded", logging.Int("entries", len(ev.Entries)))
}

func (d *Daemon) jobAttr(id uuid.UUID) slog.Attr {
	return logging.String(logging.FieldJobID, id.String())
}
