package engine

import (
	"github.com/google/uuid"

	"snag/internal/media"
)

// Event is a notification emitted on the engine's outbound channel. Events
// carry only deltas; the caller folds them into its own job collection.
type Event interface {
	isEvent()
}

// JobStarted reports that a job acquired a permit and its download task is
// running. Emitted before the subprocess produces any output.
type JobStarted struct {
	ID uuid.UUID
}

// FormatsReady reports a successful metadata probe. Formats is the
// video-capable subset and is never empty; a probe that filters down to
// nothing fails the job instead.
type FormatsReady struct {
	ID      uuid.UUID
	Title   string
	Formats []media.Format
}

// JobProgress reports one progress sample for a downloading job. Samples are
// idempotent status, not a log; intermediate ones may be dropped.
type JobProgress struct {
	ID      uuid.UUID
	Percent float64
	Speed   string
	ETA     string
}

// JobCompleted reports a finished download and the resolved output path.
type JobCompleted struct {
	ID   uuid.UUID
	Path string
}

// JobFailed is the terminal event for probes and downloads that did not
// complete. Cancelled distinguishes caller-requested cancellation from real
// failures so callers do not alarm the user about it.
type JobFailed struct {
	ID        uuid.UUID
	Reason    string
	Cancelled bool
}

// PlaylistExpanded reports the entries of an expanded playlist URL.
type PlaylistExpanded struct {
	Entries []media.PlaylistEntry
}

func (JobStarted) isEvent()       {}
func (FormatsReady) isEvent()     {}
func (JobProgress) isEvent()      {}
func (JobCompleted) isEvent()     {}
func (JobFailed) isEvent()        {}
func (PlaylistExpanded) isEvent() {}
