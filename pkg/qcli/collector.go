package qcli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/entrhq/qbridge/pkg/logging"
)

const (
	// Scanner buffer sizes: analysis transcripts routinely carry multi-KB
	// table rows and JSON dumps on a single line.
	scannerInitialBufSize = 256 * 1024
	scannerMaxBufSize     = 1024 * 1024
)

// Collector drains a command's stdout and stderr concurrently so a full OS
// pipe buffer on either stream can never stall the other or the process
// itself. One goroutine per stream preserves line order within that stream;
// nothing is guaranteed about interleaving between the two.
type Collector struct {
	logger *logging.Logger
}

// NewCollector creates a Collector. logger may be nil; when set, every
// collected line is mirrored to it as it arrives.
func NewCollector(logger *logging.Logger) *Collector {
	return &Collector{logger: logger}
}

// Collect starts cmd, drains both pipes to end-of-stream, and reaps the
// process. When ctx is cancelled the process is killed, which closes both
// pipes and unblocks the readers; Collect always waits for process
// termination before returning, so no child is ever orphaned.
//
// On failure the outcome is still returned when the process ran at all, so
// callers can attach stderr detail to their classification.
func (c *Collector) Collect(ctx context.Context, cmd *exec.Cmd) (*ProcessOutcome, error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	// Kill the process when the attempt deadline fires. The closed pipes then
	// unblock both readers.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if cmd.Process != nil {
				//nolint:errcheck // the process may already have exited
				cmd.Process.Kill()
			}
		case <-done:
		}
	}()

	var wg sync.WaitGroup
	var stdoutLines, stderrLines []string

	wg.Add(1)
	go func() {
		defer wg.Done()
		stdoutLines = c.drainLines(stdoutPipe, "stdout")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		stderrLines = c.drainLines(stderrPipe, "stderr")
	}()

	// Readers must reach end-of-stream before Wait, which closes the pipes.
	wg.Wait()
	waitErr := cmd.Wait()
	close(done)

	outcome := &ProcessOutcome{
		ExitCode:    cmd.ProcessState.ExitCode(),
		StdoutLines: stdoutLines,
		StderrLines: stderrLines,
		Duration:    time.Since(start),
	}

	if waitErr != nil {
		return outcome, fmt.Errorf("command failed: %w", waitErr)
	}
	return outcome, nil
}

// drainLines reads r line by line until end-of-stream, keeping non-empty
// lines in arrival order.
func (c *Collector) drainLines(r io.Reader, stream string) []string {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scannerInitialBufSize), scannerMaxBufSize)

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if c.logger != nil {
			c.logger.Debugf("amazon q %s: %s", stream, line)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil && c.logger != nil {
		c.logger.Warnf("error reading %s: %v", stream, err)
	}
	return lines
}
