package ytdlp

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestCommandRunnerOutput(t *testing.T) {
	run := NewRunner()
	out, err := run.Output(context.Background(), "sh", []string{"-c", "echo hello"})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCommandRunnerOutputNonZeroExitCarriesStderr(t *testing.T) {
	run := NewRunner()
	_, err := run.Output(context.Background(), "sh", []string{"-c", "echo boom >&2; exit 3"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected stderr text in error, got %v", err)
	}
}

func TestCommandRunnerStreamLines(t *testing.T) {
	run := NewRunner()
	var lines []string
	err := run.Stream(context.Background(), "sh", []string{"-c", `printf 'one\ntwo\n'`}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestCommandRunnerStreamCancelKillsProcess(t *testing.T) {
	run := NewRunner()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- run.Stream(ctx, "sh", []string{"-c", "sleep 30"}, nil)
	}()
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected cancellation error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not terminate after cancel")
	}
}

func TestTailBufferKeepsLastLines(t *testing.T) {
	var tail tailBuffer
	for i := 0; i < tailKeep+4; i++ {
		tail.append(strings.Repeat("x", i+1))
	}
	got := strings.Split(tail.String(), "\n")
	if len(got) != tailKeep {
		t.Fatalf("expected %d lines, got %d", tailKeep, len(got))
	}
	if got[len(got)-1] != strings.Repeat("x", tailKeep+4) {
		t.Fatalf("unexpected last line: %q", got[len(got)-1])
	}
}
