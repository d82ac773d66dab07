package daemon_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"snag/internal/daemon"
	"snag/internal/engine"
	"snag/internal/logging"
	"snag/internal/media"
	"snag/internal/queue"
	"snag/internal/testsupport"
	"snag/internal/ytdlp"
)

type stubSource struct {
	info        media.Info
	probeErr    error
	entries     []media.PlaylistEntry
	path        string
	downloadErr error
	gate        chan struct{}
}

func (s *stubSource) Probe(ctx context.Context, url string) (media.Info, error) {
	if s.probeErr != nil {
		return media.Info{}, s.probeErr
	}
	return s.info, nil
}

func (s *stubSource) ExpandPlaylist(ctx context.Context, url string) ([]media.PlaylistEntry, error) {
	return s.entries, nil
}

func (s *stubSource) Download(ctx context.Context, req ytdlp.DownloadRequest, onProgress func(media.Progress)) (string, error) {
	if onProgress != nil {
		onProgress(media.Progress{Percent: 50, Speed: "1.00MiB/s", ETA: "00:10"})
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %s", ytdlp.ErrCancelled, req.URL)
		}
	}
	if s.downloadErr != nil {
		return "", s.downloadErr
	}
	return s.path, nil
}

func newTestDaemon(t *testing.T, source engine.MediaSource) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	eng := engine.New(source, engine.Options{Concurrency: cfg.Downloads.MaxConcurrent})
	d, err := daemon.New(cfg, store, logging.NewNop(), eng)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, store
}

func waitForStatus(t *testing.T, store *queue.Store, id uuid.UUID, want queue.Status) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var last *queue.Job
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err == nil {
			last = job
			if job.Status == want {
				return job
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s, last: %+v", id, want, last)
	return nil
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := newTestDaemon(t, &stubSource{})
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status(ctx).Running {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonAddFoldsFormats(t *testing.T) {
	source := &stubSource{info: media.Info{
		Title: "Talk",
		Formats: []media.Format{
			{FormatID: "137", VCodec: "avc1", Height: 1080},
		},
	}}
	d, store := newTestDaemon(t, source)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	job, err := d.Add(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if job.Status != queue.StatusFetching {
		t.Fatalf("fresh job status = %s, want fetching", job.Status)
	}

	ready := waitForStatus(t, store, job.ID, queue.StatusReady)
	if ready.Title != "Talk" {
		t.Fatalf("title = %q, want Talk", ready.Title)
	}
	formats, err := ready.Formats()
	if err != nil || len(formats) != 1 {
		t.Fatalf("formats = %v (err %v)", formats, err)
	}
}

func TestDaemonProbeWithoutVideoFailsJob(t *testing.T) {
	source := &stubSource{info: media.Info{
		Title:   "Podcast",
		Formats: []media.Format{{FormatID: "140", VCodec: "none", ACodec: "mp4a"}},
	}}
	d, store := newTestDaemon(t, source)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	job, err := d.Add(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	failed := waitForStatus(t, store, job.ID, queue.StatusFailed)
	if failed.ErrorMessage != "No formats found" {
		t.Fatalf("error = %q", failed.ErrorMessage)
	}
}

func TestDaemonDownloadLifecycle(t *testing.T) {
	source := &stubSource{
		info: media.Info{
			Title:   "Talk",
			Formats: []media.Format{{FormatID: "137", VCodec: "avc1", Height: 1080}},
		},
		path: "/downloads/talk.mp4",
	}
	d, store := newTestDaemon(t, source)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	job, err := d.Add(ctx, "https://example.com/v")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	waitForStatus(t, store, job.ID, queue.StatusReady)

	if _, err := d.StartDownload(ctx, job.ID, "999"); err == nil {
		t.Fatal("unknown format accepted")
	}
	queued, err := d.StartDownload(ctx, job.ID, "137")
	if err != nil {
		t.Fatalf("start download: %v", err)
	}
	if queued.Status != queue.StatusQueued || queued.FormatID != "137" {
		t.Fatalf("queued job: %+v", queued)
	}
	if _, err := d.StartDownload(ctx, job.ID, "137"); err == nil {
		t.Fatal("second start on non-ready job accepted")
	}

	done := waitForStatus(t, store, job.ID, queue.StatusCompleted)
	if done.OutputPath != "/downloads/talk.mp4" {
		t.Fatalf("output path = %q", done.OutputPath)
	}
	if done.ProgressPercent != 100 {
		t.Fatalf("progress = %v, want 100", done.ProgressPercent)
	}
}

func TestDaemonCancelIsOptimistic(t *testing.T) {
	gate := make(chan struct{})
	source := &stubSource{
		info: media.Info{
			Title:   "Talk",
			Formats: []media.Format{{FormatID: "137", VCodec: "avc1", Height: 1080}},
		},
		path: "/downloads/talk.mp4",
		gate: gate,
	}
	d, store := newTestDaemon(t, source)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	job, err := d.Add(ctx, "https://example.com/v")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	waitForStatus(t, store, job.ID, queue.StatusReady)
	if _, err := d.StartDownload(ctx, job.ID, "137"); err != nil {
		t.Fatalf("start download: %v", err)
	}
	waitForStatus(t, store, job.ID, queue.StatusDownloading)

	cancelled, err := d.Cancel(ctx, job.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != queue.StatusCancelled {
		t.Fatalf("status after cancel = %s", cancelled.Status)
	}

	// The engine's terminal event must not overwrite the cancelled row.
	time.Sleep(50 * time.Millisecond)
	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != queue.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
}

func TestDaemonPlaylistCreatesJobs(t *testing.T) {
	source := &stubSource{
		info: media.Info{
			Title:   "Entry",
			Formats: []media.Format{{FormatID: "137", VCodec: "avc1", Height: 1080}},
		},
		entries: []media.PlaylistEntry{
			{URL: "https://example.com/1", Title: "One"},
			{URL: "https://example.com/2", Title: "Two"},
		},
	}
	d, store := newTestDaemon(t, source)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := d.AddPlaylist(ctx, "https://example.com/list"); err != nil {
		t.Fatalf("add playlist: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		jobs, err := store.List(ctx)
		if err == nil && len(jobs) == 2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	jobs, _ := store.List(ctx)
	t.Fatalf("playlist jobs = %d, want 2", len(jobs))
}

func TestDaemonRecoversInterruptedJobs(t *testing.T) {
	d, store := newTestDaemon(t, &stubSource{})
	ctx := context.Background()

	job, err := store.NewJob(ctx, "https://example.com/v")
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job.Status = queue.StatusDownloading
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("update: %v", err)
	}

	ready, err := store.NewJob(ctx, "https://example.com/r")
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	ready.Status = queue.StatusReady
	if err := ready.SetFormats([]media.Format{{FormatID: "137", VCodec: "avc1"}}); err != nil {
		t.Fatalf("set formats: %v", err)
	}
	if err := store.Update(ctx, ready); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != queue.StatusFailed || got.ErrorMessage != queue.InterruptedReason {
		t.Fatalf("recovered job: %+v", got)
	}

	// A ready job keeps its formats across restarts; a download can still
	// be started from it.
	kept, err := store.GetByID(ctx, ready.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if kept.Status != queue.StatusReady {
		t.Fatalf("ready job after restart: %+v", kept)
	}
	if _, err := d.StartDownload(ctx, ready.ID, "137"); err != nil {
		t.Fatalf("start download after restart: %v", err)
	}
}
