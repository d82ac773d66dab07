package ytdlp_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"snag/internal/logging"
	"snag/internal/media"
	"snag/internal/ytdlp"
)

// scriptedRunner feeds canned output instead of spawning yt-dlp.
type scriptedRunner struct {
	output     []byte
	outputErr  error
	lines      []string
	streamErr  error
	lastArgs   []string
	blockOnCtx bool
}

func (r *scriptedRunner) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	r.lastArgs = args
	return r.output, r.outputErr
}

func (r *scriptedRunner) Stream(ctx context.Context, binary string, args []string, onLine func(string)) error {
	r.lastArgs = args
	for _, line := range r.lines {
		onLine(line)
	}
	if r.blockOnCtx {
		<-ctx.Done()
		return ctx.Err()
	}
	return r.streamErr
}

func newClient(t *testing.T, run ytdlp.Runner) *ytdlp.Client {
	t.Helper()
	client, err := ytdlp.New("yt-dlp", "/tmp/out/%(title)s.%(ext)s", logging.NewNop(), ytdlp.WithRunner(run))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestProbeParsesMetadata(t *testing.T) {
	run := &scriptedRunner{output: []byte(`{
		"title": "Demo Video",
		"formats": [
			{"format_id": "140", "vcodec": "none", "acodec": "mp4a.40.2"},
			{"format_id": "137", "vcodec": "avc1", "acodec": "none", "height": 1080}
		]
	}`)}
	client := newClient(t, run)

	info, err := client.Probe(context.Background(), "https://example.test/v")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.Title != "Demo Video" {
		t.Fatalf("unexpected title: %q", info.Title)
	}
	if len(info.Formats) != 2 {
		t.Fatalf("unexpected format count: %d", len(info.Formats))
	}
	if len(info.VideoFormats()) != 1 {
		t.Fatalf("expected one video format, got %d", len(info.VideoFormats()))
	}
	joined := strings.Join(run.lastArgs, " ")
	if !strings.Contains(joined, "--dump-json") || !strings.Contains(joined, "--no-download") {
		t.Fatalf("unexpected probe args: %v", run.lastArgs)
	}
}

func TestProbeSurfacesToolFailure(t *testing.T) {
	run := &scriptedRunner{outputErr: errors.New("ERROR: unsupported URL")}
	client := newClient(t, run)

	if _, err := client.Probe(context.Background(), "https://example.test/v"); err == nil {
		t.Fatal("expected probe failure")
	}
}

func TestExpandPlaylistReturnsEntries(t *testing.T) {
	run := &scriptedRunner{output: []byte(`{
		"title": "My List",
		"entries": [
			{"url": "https://example.test/a", "title": "A"},
			{"url": "https://example.test/b", "title": "B"},
			{"url": ""}
		]
	}`)}
	client := newClient(t, run)

	entries, err := client.ExpandPlaylist(context.Background(), "https://example.test/list")
	if err != nil {
		t.Fatalf("ExpandPlaylist: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].URL != "https://example.test/a" || entries[1].Title != "B" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestExpandPlaylistSingleVideoFallback(t *testing.T) {
	run := &scriptedRunner{output: []byte(`{"title": "Solo", "webpage_url": "https://example.test/solo"}`)}
	client := newClient(t, run)

	entries, err := client.ExpandPlaylist(context.Background(), "https://example.test/solo?x=1")
	if err != nil {
		t.Fatalf("ExpandPlaylist: %v", err)
	}
	if len(entries) != 1 || entries[0].URL != "https://example.test/solo" {
		t.Fatalf("unexpected fallback entries: %+v", entries)
	}
}

func TestDownloadCapturesPathAndProgress(t *testing.T) {
	run := &scriptedRunner{lines: []string{
		"[youtube] Extracting URL",
		"[download]  10.0% of 10.00MiB at 1.20MiB/s ETA 00:45",
		"[download] 100.0% of 10.00MiB at 2.00MiB/s ETA 00:00",
		"/tmp/out/Demo Video.mp4",
	}}
	client := newClient(t, run)

	var samples []media.Progress
	path, err := client.Download(context.Background(),
		ytdlp.DownloadRequest{URL: "https://example.test/v", FormatID: "137"},
		func(p media.Progress) { samples = append(samples, p) })
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != "/tmp/out/Demo Video.mp4" {
		t.Fatalf("unexpected path: %q", path)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 progress samples, got %d", len(samples))
	}
	if samples[0].Percent != 10.0 || samples[1].Percent != 100.0 {
		t.Fatalf("unexpected samples: %+v", samples)
	}
	joined := strings.Join(run.lastArgs, " ")
	if !strings.Contains(joined, "-f 137+bestaudio/best") {
		t.Fatalf("expected audio fallback selector, args: %v", run.lastArgs)
	}
	if !strings.Contains(joined, "after_move:filepath") {
		t.Fatalf("expected filepath print directive, args: %v", run.lastArgs)
	}
}

func TestDownloadZeroExitWithoutPathFails(t *testing.T) {
	run := &scriptedRunner{lines: []string{
		"[download] 100.0% of 1.00MiB at 2.00MiB/s ETA 00:00",
	}}
	client := newClient(t, run)

	_, err := client.Download(context.Background(),
		ytdlp.DownloadRequest{URL: "https://example.test/v", FormatID: "137"}, nil)
	if !errors.Is(err, ytdlp.ErrNoOutputPath) {
		t.Fatalf("expected ErrNoOutputPath, got %v", err)
	}
}

func TestDownloadNonZeroExitFails(t *testing.T) {
	run := &scriptedRunner{streamErr: errors.New("yt-dlp: ERROR: HTTP 403")}
	client := newClient(t, run)

	_, err := client.Download(context.Background(),
		ytdlp.DownloadRequest{URL: "https://example.test/v", FormatID: "137"}, nil)
	if err == nil || errors.Is(err, ytdlp.ErrCancelled) {
		t.Fatalf("expected plain failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected diagnostic text, got %v", err)
	}
}

func TestDownloadCancellation(t *testing.T) {
	run := &scriptedRunner{blockOnCtx: true}
	client := newClient(t, run)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Download(ctx,
		ytdlp.DownloadRequest{URL: "https://example.test/v", FormatID: "137"}, nil)
	if !errors.Is(err, ytdlp.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}
