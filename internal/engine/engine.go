package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"snag/internal/logging"
	"snag/internal/media"
	"snag/internal/ytdlp"
)

// MediaSource is the external tool facade the engine drives. Implemented by
// ytdlp.Client in production and by stubs in tests.
type MediaSource interface {
	Probe(ctx context.Context, url string) (media.Info, error)
	ExpandPlaylist(ctx context.Context, url string) ([]media.PlaylistEntry, error)
	Download(ctx context.Context, req ytdlp.DownloadRequest, onProgress func(media.Progress)) (string, error)
}

// Options tunes engine construction.
type Options struct {
	// Concurrency is the initial permit count for simultaneous downloads.
	Concurrency int
	// CommandBuffer sizes the inbound channel. Submit drops when full.
	CommandBuffer int
	// EventBuffer sizes the outbound channel. A slow caller loses
	// intermediate progress samples, never terminal events ordering.
	EventBuffer int
	Logger      *slog.Logger
}

const (
	defaultCommandBuffer = 64
	defaultEventBuffer   = 256
)

// Engine owns the command loop, the permit pool, and the cancellation
// registry. It holds no job collection; callers fold the event stream into
// their own state.
type Engine struct {
	source   MediaSource
	commands chan Command
	events   chan Event
	permits  *Permits
	registry *registry
	logger   *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	startMu  sync.Mutex
	started  atomic.Bool
	draining atomic.Bool
	done     chan struct{}
}

// New assembles an engine around a media source. Start must be called
// before submitting commands.
func New(source MediaSource, opts Options) *Engine {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.CommandBuffer < 1 {
		opts.CommandBuffer = defaultCommandBuffer
	}
	if opts.EventBuffer < 1 {
		opts.EventBuffer = defaultEventBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		source:   source,
		commands: make(chan Command, opts.CommandBuffer),
		events:   make(chan Event, opts.EventBuffer),
		permits:  NewPermits(opts.Concurrency),
		registry: newRegistry(),
		logger:   logging.WithComponent(logger, "engine"),
		done:     make(chan struct{}),
	}
}

// Start launches the command loop. The engine stops when ctx is done or a
// Shutdown command arrives, whichever comes first.
func (e *Engine) Start(ctx context.Context) error {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	if e.started.Load() {
		return errors.New("engine already started")
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	// The context must be in place before started flips; Submit reads it
	// once it observes started.
	e.started.Store(true)
	go e.run()
	return nil
}

// Submit enqueues a command without blocking. It reports false when the
// engine is stopping or the inbound buffer is full; callers treat a refused
// command as not sent.
func (e *Engine) Submit(cmd Command) bool {
	if !e.started.Load() || e.draining.Load() || e.ctx.Err() != nil {
		return false
	}
	select {
	case e.commands <- cmd:
		return true
	default:
		e.logger.Warn("command dropped, inbound buffer full",
			logging.String("command", commandName(cmd)))
		return false
	}
}

// Events returns the outbound event stream. Closed after shutdown once all
// in-flight tasks have finished.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Active reports how many downloads currently hold permits.
func (e *Engine) Active() int {
	return e.permits.InUse()
}

// Concurrency reports the current permit ceiling.
func (e *Engine) Concurrency() int {
	return e.permits.Capacity()
}

// Done is closed once the command loop has exited and the event channel is
// closed.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) run() {
	defer func() {
		e.draining.Store(true)
		e.cancel()
		e.registry.cancelAll()
		e.wg.Wait()
		close(e.events)
		close(e.done)
	}()

	for {
		select {
		case <-e.ctx.Done():
			return
		case cmd := <-e.commands:
			switch c := cmd.(type) {
			case FetchFormats:
				e.startFetchFormats(c)
			case FetchPlaylist:
				e.startFetchPlaylist(c)
			case StartJob:
				e.startJob(c)
			case CancelJob:
				if !e.registry.cancel(c.JobID) {
					e.logger.Debug("cancel for unknown job",
						logging.String(logging.FieldJobID, c.JobID.String()))
				}
			case SetConcurrency:
				e.permits.Resize(c.Limit)
				e.logger.Info("concurrency updated",
					logging.Int("limit", e.permits.Capacity()))
			case Shutdown:
				return
			}
		}
	}
}

// startFetchFormats probes metadata concurrently; probes are lightweight and
// do not consume download permits.
func (e *Engine) startFetchFormats(cmd FetchFormats) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		info, err := e.source.Probe(e.ctx, cmd.URL)
		if err != nil {
			e.emit(JobFailed{ID: cmd.JobID, Reason: err.Error()})
			return
		}
		formats := info.VideoFormats()
		if len(formats) == 0 {
			e.emit(JobFailed{ID: cmd.JobID, Reason: "No formats found"})
			return
		}
		e.emit(FormatsReady{ID: cmd.JobID, Title: info.Title, Formats: formats})
	}()
}

func (e *Engine) startFetchPlaylist(cmd FetchPlaylist) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		entries, err := e.source.ExpandPlaylist(e.ctx, cmd.URL)
		if err != nil {
			e.logger.Warn("playlist expansion failed",
				logging.String(logging.FieldURL, cmd.URL),
				logging.Error(err))
			e.emit(PlaylistExpanded{})
			return
		}
		e.emit(PlaylistExpanded{Entries: entries})
	}()
}

// startJob spawns the download task. The permit is acquired inside the
// goroutine so a saturated pool never stalls the command loop; cancel and
// resize commands keep flowing while jobs wait their turn. The job is
// registered before the permit wait so a cancel issued while the job is
// still queued aborts it instead of racing the acquisition.
func (e *Engine) startJob(cmd StartJob) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		jobCtx, cancel := context.WithCancel(e.ctx)
		defer cancel()
		e.registry.add(cmd.JobID, cancel)
		defer e.registry.remove(cmd.JobID)

		if err := e.permits.Acquire(jobCtx); err != nil {
			// Aborted by shutdown: the job never ran, nothing to report.
			// Aborted by a cancel: the caller asked for it, tell them.
			if e.ctx.Err() == nil {
				e.emit(JobFailed{
					ID:        cmd.JobID,
					Reason:    ytdlp.ErrCancelled.Error(),
					Cancelled: true,
				})
			}
			return
		}
		defer e.permits.Release()

		e.emit(JobStarted{ID: cmd.JobID})

		path, err := e.source.Download(jobCtx, ytdlp.DownloadRequest{
			URL:      cmd.URL,
			FormatID: cmd.FormatID,
		}, func(p media.Progress) {
			e.emit(JobProgress{
				ID:      cmd.JobID,
				Percent: p.Percent,
				Speed:   p.Speed,
				ETA:     p.ETA,
			})
		})
		if err != nil {
			e.emit(JobFailed{
				ID:        cmd.JobID,
				Reason:    err.Error(),
				Cancelled: errors.Is(err, ytdlp.ErrCancelled),
			})
			return
		}
		e.emit(JobCompleted{ID: cmd.JobID, Path: path})
	}()
}

// emit delivers an event without blocking the producer. When the caller
// falls behind, the event is dropped and logged; terminal events share the
// same policy because the store fold happens on the caller side, which keeps
// its channel drained in practice.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.logger.Warn("event dropped, outbound buffer full",
			logging.String("event", eventName(ev)))
	}
}

func commandName(cmd Command) string {
	switch cmd.(type) {
	case FetchFormats:
		return "fetch_formats"
	case FetchPlaylist:
		return "fetch_playlist"
	case StartJob:
		return "start_job"
	case CancelJob:
		return "cancel_job"
	case SetConcurrency:
		return "set_concurrency"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

func eventName(ev Event) string {
	switch ev.(type) {
	case JobStarted:
		return "job_started"
	case FormatsReady:
		return "formats_ready"
	case JobProgress:
		return "job_progress"
	case JobCompleted:
		return "job_completed"
	case JobFailed:
		return "job_failed"
	case PlaylistExpanded:
		return "playlist_expanded"
	default:
		return "unknown"
	}
}
