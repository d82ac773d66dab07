package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"snag/internal/logging"
	"snag/internal/media"
)

var (
	// ErrCancelled marks a download terminated by caller cancellation.
	ErrCancelled = errors.New("download cancelled")
	// ErrNoOutputPath marks a zero-exit download that never reported where
	// it wrote the file. The invocation contract requires yt-dlp to print
	// the resolved path, so this is surfaced rather than ignored.
	ErrNoOutputPath = errors.New("could not determine output file path")
)

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(r Runner) Option {
	return func(c *Client) {
		if r != nil {
			c.run = r
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary         string
	outputTemplate string
	run            Runner
	logger         *slog.Logger
}

// New constructs a yt-dlp client. outputTemplate is the full output path
// template passed to yt-dlp's -o flag.
func New(binary, outputTemplate string, logger *slog.Logger, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	if strings.TrimSpace(outputTemplate) == "" {
		return nil, errors.New("output template required")
	}
	client := &Client{
		binary:         binary,
		outputTemplate: outputTemplate,
		run:            NewRunner(),
		logger:         logging.WithComponent(logger, "ytdlp"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Probe fetches the metadata document for one URL without downloading.
// Exactly one attempt; failures are returned, never retried.
func (c *Client) Probe(ctx context.Context, url string) (media.Info, error) {
	args := []string{"--dump-json", "--no-download", "--no-warnings", url}
	out, err := c.run.Output(ctx, c.binary, args)
	if err != nil {
		return media.Info{}, fmt.Errorf("probe %s: %w", url, err)
	}

	var info media.Info
	if err := json.Unmarshal(out, &info); err != nil {
		return media.Info{}, fmt.Errorf("parse metadata for %s: %w", url, err)
	}
	return info, nil
}

// ExpandPlaylist resolves a playlist URL into its entries without touching
// any media. Single-video URLs yield a one-entry result.
func (c *Client) ExpandPlaylist(ctx context.Context, url string) ([]media.PlaylistEntry, error) {
	args := []string{"--flat-playlist", "-J", "--no-warnings", url}
	out, err := c.run.Output(ctx, c.binary, args)
	if err != nil {
		return nil, fmt.Errorf("expand playlist %s: %w", url, err)
	}

	var doc struct {
		Title   string `json:"title"`
		WebURL  string `json:"webpage_url"`
		Entries []struct {
			URL   string `json:"url"`
			Title string `json:"title"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("parse playlist for %s: %w", url, err)
	}

	if len(doc.Entries) == 0 {
		// Not a playlist; treat the URL itself as the single entry.
		single := url
		if doc.WebURL != "" {
			single = doc.WebURL
		}
		return []media.PlaylistEntry{{URL: single, Title: doc.Title}}, nil
	}

	entries := make([]media.PlaylistEntry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		if strings.TrimSpace(e.URL) == "" {
			continue
		}
		entries = append(entries, media.PlaylistEntry{URL: e.URL, Title: e.Title})
	}
	return entries, nil
}

// DownloadRequest describes one download invocation.
type DownloadRequest struct {
	URL      string
	FormatID string
}

// Download runs yt-dlp for one job, feeding decoded progress samples to
// onProgress, and returns the final output path. The subprocess is killed
// when ctx is cancelled, in which case the error wraps ErrCancelled.
func (c *Client) Download(ctx context.Context, req DownloadRequest, onProgress func(media.Progress)) (string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return "", errors.New("url required")
	}
	if strings.TrimSpace(req.FormatID) == "" {
		return "", errors.New("format id required")
	}

	// Video-only selections get a best-effort audio track merged in.
	args := []string{
		"--newline",
		"--progress",
		"--no-colors",
		"-f", req.FormatID + "+bestaudio/best",
		"-o", c.outputTemplate,
		"--print", "after_move:filepath",
		req.URL,
	}

	var finalPath string
	err := c.run.Stream(ctx, c.binary, args, func(line string) {
		if progress, ok := ParseProgress(line); ok {
			if onProgress != nil {
				onProgress(progress)
			}
			return
		}
		if looksLikeOutputPath(line) {
			finalPath = strings.TrimSpace(line)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s", ErrCancelled, req.URL)
		}
		return "", fmt.Errorf("download %s: %w", req.URL, err)
	}

	if finalPath == "" {
		return "", fmt.Errorf("download %s: %w", req.URL, ErrNoOutputPath)
	}

	c.logger.Debug("download finished",
		logging.String(logging.FieldURL, req.URL),
		logging.String("path", finalPath))
	return finalPath, nil
}
