package ytdlp

import "testing"

func TestParseProgressTypicalLine(t *testing.T) {
	progress, ok := ParseProgress("[download]  42.0% of 10.00MiB at 1.20MiB/s ETA 00:07")
	if !ok {
		t.Fatal("expected progress line to decode")
	}
	if progress.Percent != 42.0 {
		t.Fatalf("unexpected percent: %v", progress.Percent)
	}
	if progress.Speed != "1.20MiB/s" {
		t.Fatalf("unexpected speed: %q", progress.Speed)
	}
	if progress.ETA != "00:07" {
		t.Fatalf("unexpected eta: %q", progress.ETA)
	}
}

func TestParseProgressRejectsNonProgressLines(t *testing.T) {
	cases := []string{
		"[info] Extracting URL",
		"[download] Destination: /tmp/video.mp4",
		"plain text without markers",
		"",
	}
	for _, line := range cases {
		if _, ok := ParseProgress(line); ok {
			t.Fatalf("line %q should not decode as progress", line)
		}
	}
}

func TestParseProgressGarbledPercentIsTolerated(t *testing.T) {
	// Interleaved/garbled token where the percent does not parse.
	if _, ok := ParseProgress("[download]  4a.b% of 10MiB"); ok {
		t.Fatal("unparsable percent must not decode")
	}
}

func TestParseProgressDefaultsSpeedAndETA(t *testing.T) {
	progress, ok := ParseProgress("[download]  99.9% of 10.00MiB")
	if !ok {
		t.Fatal("expected progress line to decode")
	}
	if progress.Speed != "--" {
		t.Fatalf("expected speed placeholder, got %q", progress.Speed)
	}
	if progress.ETA != "--" {
		t.Fatalf("expected eta placeholder, got %q", progress.ETA)
	}
}

func TestParseProgressETAMarkerWithoutValue(t *testing.T) {
	progress, ok := ParseProgress("[download]  10.0% of 1.00MiB at 500KiB/s ETA")
	if !ok {
		t.Fatal("expected progress line to decode")
	}
	if progress.ETA != "--" {
		t.Fatalf("expected eta placeholder, got %q", progress.ETA)
	}
}

func TestLooksLikeOutputPath(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"/home/user/videos/clip.mp4", true},
		{"  /tmp/out.webm  ", true},
		{"[download] /tmp/out.webm", false},
		{"no separators here", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := looksLikeOutputPath(tc.line); got != tc.want {
			t.Fatalf("looksLikeOutputPath(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}
