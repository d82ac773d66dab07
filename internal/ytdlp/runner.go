package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Runner abstracts command execution for testability.
type Runner interface {
	// Output runs the command to completion and returns captured stdout.
	// A non-zero exit surfaces as an error carrying the stderr text.
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
	// Stream runs the command, invoking onLine for every stdout line as it
	// arrives. The process is killed when ctx is cancelled. A non-zero exit
	// surfaces as an error carrying a stderr tail.
	Stream(ctx context.Context, binary string, args []string, onLine func(string)) error
}

type commandRunner struct{}

// NewRunner returns the Runner backed by os/exec.
func NewRunner() Runner {
	return commandRunner{}
}

func (commandRunner) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("run %s: %s", binary, detail)
	}
	return stdout.Bytes(), nil
}

func (commandRunner) Stream(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var errTail tailBuffer

	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onLine != nil {
				onLine(scanner.Text())
			}
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			errTail.append(scanner.Text())
		}
	}()

	wg.Wait()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := errTail.String()
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("%s: %s", binary, detail)
	}
	return nil
}

// tailBuffer keeps the last few lines of diagnostic output. yt-dlp prints
// its useful error message at the end of stderr.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
}

const tailKeep = 8

func (b *tailBuffer) append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > tailKeep {
		b.lines = b.lines[len(b.lines)-tailKeep:]
	}
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(strings.Join(b.lines, "\n"))
}
