package engine

import "github.com/google/uuid"

// Command is a request sent into the engine's inbound channel.
type Command interface {
	isCommand()
}

// FetchFormats asks the engine to probe a URL for its title and selectable
// formats. Metadata probes run immediately, outside the concurrency ceiling.
type FetchFormats struct {
	JobID uuid.UUID
	URL   string
}

// FetchPlaylist asks the engine to expand a playlist URL into entries.
type FetchPlaylist struct {
	URL string
}

// StartJob asks the engine to download a URL with a chosen format. The task
// registers for cancellation immediately, then waits for a concurrency
// permit; a cancel that arrives during the wait aborts the job before any
// subprocess work happens.
type StartJob struct {
	JobID    uuid.UUID
	URL      string
	FormatID string
}

// CancelJob signals cancellation for a running job. Fire-and-forget: an
// unknown or already-finished job identifier is a no-op.
type CancelJob struct {
	JobID uuid.UUID
}

// SetConcurrency resizes the permit pool for subsequently started jobs.
// Jobs already holding permits are unaffected.
type SetConcurrency struct {
	Limit int
}

// Shutdown cancels every registered job and stops the engine.
type Shutdown struct{}

func (FetchFormats) isCommand()   {}
func (FetchPlaylist) isCommand()  {}
func (StartJob) isCommand()       {}
func (CancelJob) isCommand()      {}
func (SetConcurrency) isCommand() {}
func (Shutdown) isCommand()       {}
