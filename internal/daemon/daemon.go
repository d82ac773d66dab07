package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"snag/internal/config"
	"snag/internal/engine"
	"snag/internal/logging"
	"snag/internal/queue"
)

// Daemon owns the download engine and the persistent job collection, and
// enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	engine *engine.Engine

	logPath  string
	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	foldDone chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	ActiveDownloads int
	Concurrency     int
	Counts          queue.Counts
	JobDBPath       string
	LockFilePath    string
	SocketPath      string
	PID             int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, eng *engine.Engine) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || eng == nil {
		return nil, errors.New("daemon requires config, store, logger, and engine")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "snagd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		engine:   eng,
		logPath:  filepath.Join(cfg.Paths.LogDir, "snagd.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, recovers jobs interrupted by a previous
// shutdown, and launches the engine and the event-fold loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another snag daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	recovered, err := d.store.MarkInterrupted(d.ctx)
	if err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		return fmt.Errorf("recover interrupted jobs: %w", err)
	}
	if recovered > 0 {
		d.logger.Warn("failed jobs interrupted by previous shutdown",
			logging.Int64("count", recovered))
	}

	if err := d.engine.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		return fmt.Errorf("start engine: %w", err)
	}

	d.foldDone = make(chan struct{})
	go d.foldEvents()

	d.running.Store(true)
	d.logger.Info("snag daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts the engine down, drains remaining events into the store, and
// releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.engine.Submit(engine.Shutdown{})
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.foldDone != nil {
		<-d.foldDone
		d.foldDone = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("snag daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon lifecycle is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	counts, err := d.store.Counts(ctx)
	if err != nil {
		d.logger.Warn("failed to count jobs", logging.Error(err))
	}
	return Status{
		Running:         d.running.Load(),
		ActiveDownloads: d.engine.Active(),
		Concurrency:     d.engine.Concurrency(),
		Counts:          counts,
		JobDBPath:       d.store.Path(),
		LockFilePath:    d.lockPath,
		SocketPath:      d.cfg.Paths.SocketPath,
		PID:             os.Getpid(),
	}
}
