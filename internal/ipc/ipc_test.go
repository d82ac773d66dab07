package ipc_test

import (
	"context"
	"testing"
	"time"

	"snag/internal/daemon"
	"snag/internal/engine"
	"snag/internal/ipc"
	"snag/internal/logging"
	"snag/internal/media"
	"snag/internal/testsupport"
	"snag/internal/ytdlp"
)

type stubSource struct {
	info media.Info
	path string
}

func (s *stubSource) Probe(ctx context.Context, url string) (media.Info, error) {
	return s.info, nil
}

func (s *stubSource) ExpandPlaylist(ctx context.Context, url string) ([]media.PlaylistEntry, error) {
	return []media.PlaylistEntry{{URL: url}}, nil
}

func (s *stubSource) Download(ctx context.Context, req ytdlp.DownloadRequest, onProgress func(media.Progress)) (string, error) {
	return s.path, nil
}

func newTestServer(t *testing.T, source engine.MediaSource, onStop func()) (*ipc.Client, *daemon.Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	eng := engine.New(source, engine.Options{Concurrency: 1})
	d, err := daemon.New(cfg, store, logging.NewNop(), eng)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon start: %v", err)
	}

	server, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logging.NewNop(), onStop)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, d
}

func waitForJobStatus(t *testing.T, client *ipc.Client, id, want string) ipc.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var last ipc.Job
	for time.Now().Before(deadline) {
		resp, err := client.Describe(id)
		if err == nil {
			last = resp.Job
			if resp.Job.Status == want {
				return resp.Job
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s, last: %+v", id, want, last)
	return ipc.Job{}
}

func TestIPCJobRoundTrip(t *testing.T) {
	source := &stubSource{
		info: media.Info{
			Title: "Talk",
			Formats: []media.Format{
				{FormatID: "137", VCodec: "avc1", Height: 1080, Ext: "mp4", Filesize: 10 << 20, TBR: 2100},
			},
		},
		path: "/downloads/talk.mp4",
	}
	client, _ := newTestServer(t, source, nil)

	added, err := client.Add("https://example.com/v")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.Job.Status != "fetching" {
		t.Fatalf("fresh job status = %s", added.Job.Status)
	}

	ready := waitForJobStatus(t, client, added.Job.ID, "ready")
	if ready.Title != "Talk" {
		t.Fatalf("title = %q", ready.Title)
	}
	if len(ready.Formats) != 1 || ready.Formats[0].ID != "137" {
		t.Fatalf("formats = %+v", ready.Formats)
	}
	if ready.Formats[0].Resolution != "1080p" && ready.Formats[0].Resolution != "audio" {
		// DisplayResolution falls back to WxH or the raw resolution field.
		t.Logf("resolution rendered as %q", ready.Formats[0].Resolution)
	}

	started, err := client.Start(added.Job.ID, "137")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Job.Status != "queued" {
		t.Fatalf("queued job status = %s", started.Job.Status)
	}

	done := waitForJobStatus(t, client, added.Job.ID, "completed")
	if done.OutputPath != "/downloads/talk.mp4" {
		t.Fatalf("output path = %q", done.OutputPath)
	}

	list, err := client.List(nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Jobs) != 1 {
		t.Fatalf("list len = %d", len(list.Jobs))
	}
	if len(list.Jobs[0].Formats) != 0 {
		t.Fatal("list view should omit formats")
	}

	cleared, err := client.Clear(false)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.Removed != 1 {
		t.Fatalf("cleared = %d", cleared.Removed)
	}
}

func TestIPCListRejectsUnknownStatus(t *testing.T) {
	client, _ := newTestServer(t, &stubSource{}, nil)
	if _, err := client.List([]string{"melting"}); err == nil {
		t.Fatal("unknown status accepted")
	}
}

func TestIPCDescribeUnknownJob(t *testing.T) {
	client, _ := newTestServer(t, &stubSource{}, nil)
	if _, err := client.Describe("not-a-uuid"); err == nil {
		t.Fatal("invalid id accepted")
	}
	if _, err := client.Describe("00000000-0000-0000-0000-000000000001"); err == nil {
		t.Fatal("unknown id accepted")
	}
}

func TestIPCStatusAndConcurrency(t *testing.T) {
	client, _ := newTestServer(t, &stubSource{}, nil)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Running || status.Concurrency != 1 || status.PID == 0 {
		t.Fatalf("unexpected status: %+v", status)
	}

	resp, err := client.Concurrency(4)
	if err != nil {
		t.Fatalf("concurrency: %v", err)
	}
	if resp.Limit != 4 {
		t.Fatalf("limit = %d", resp.Limit)
	}
	if _, err := client.Concurrency(0); err == nil {
		t.Fatal("zero concurrency accepted")
	}
}

func TestIPCStopDaemonInvokesCallback(t *testing.T) {
	stopped := make(chan struct{})
	client, _ := newTestServer(t, &stubSource{}, func() { close(stopped) })

	resp, err := client.StopDaemon()
	if err != nil {
		t.Fatalf("stop daemon: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("stop not acknowledged")
	}
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop callback never fired")
	}
}
