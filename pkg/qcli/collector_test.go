package qcli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func shCommand(script string) *exec.Cmd {
	return exec.Command("/bin/sh", "-c", script)
}

func TestCollect(t *testing.T) {
	c := NewCollector(nil)

	t.Run("collects both streams", func(t *testing.T) {
		outcome, err := c.Collect(context.Background(), shCommand(`echo out1; echo err1 1>&2; echo out2`))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if len(outcome.StdoutLines) != 2 || outcome.StdoutLines[0] != "out1" || outcome.StdoutLines[1] != "out2" {
			t.Errorf("Expected stdout [out1 out2], got %v", outcome.StdoutLines)
		}
		if len(outcome.StderrLines) != 1 || outcome.StderrLines[0] != "err1" {
			t.Errorf("Expected stderr [err1], got %v", outcome.StderrLines)
		}
		if outcome.ExitCode != 0 {
			t.Errorf("Expected exit code 0, got %d", outcome.ExitCode)
		}
		if outcome.Duration <= 0 {
			t.Error("Expected a positive duration")
		}
	})

	t.Run("preserves order within a stream", func(t *testing.T) {
		script := `i=1; while [ $i -le 2000 ]; do echo "line $i"; i=$((i+1)); done`
		outcome, err := c.Collect(context.Background(), shCommand(script))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if len(outcome.StdoutLines) != 2000 {
			t.Fatalf("Expected 2000 lines, got %d", len(outcome.StdoutLines))
		}
		if outcome.StdoutLines[0] != "line 1" || outcome.StdoutLines[1999] != "line 2000" {
			t.Errorf("Expected ordered lines, got first %q last %q",
				outcome.StdoutLines[0], outcome.StdoutLines[1999])
		}
	})

	t.Run("handles lines larger than the initial buffer", func(t *testing.T) {
		outcome, err := c.Collect(context.Background(), shCommand(`head -c 300000 /dev/zero | tr '\0' 'a'; echo`))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if len(outcome.StdoutLines) != 1 {
			t.Fatalf("Expected a single line, got %d", len(outcome.StdoutLines))
		}
		if len(outcome.StdoutLines[0]) != 300000 {
			t.Errorf("Expected 300000 bytes on one line, got %d", len(outcome.StdoutLines[0]))
		}
	})

	t.Run("skips empty lines", func(t *testing.T) {
		outcome, err := c.Collect(context.Background(), shCommand(`printf 'a\n\nb\n'`))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if len(outcome.StdoutLines) != 2 || outcome.StdoutLines[0] != "a" || outcome.StdoutLines[1] != "b" {
			t.Errorf("Expected [a b], got %v", outcome.StdoutLines)
		}
	})

	t.Run("reports non-zero exit with the outcome attached", func(t *testing.T) {
		outcome, err := c.Collect(context.Background(), shCommand(`echo partial; echo oops 1>&2; exit 3`))
		if err == nil {
			t.Fatal("Expected an error for exit 3")
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("Expected *exec.ExitError in chain, got %v", err)
		}
		if outcome == nil {
			t.Fatal("Expected outcome alongside the error")
		}
		if outcome.ExitCode != 3 {
			t.Errorf("Expected exit code 3, got %d", outcome.ExitCode)
		}
		if !strings.Contains(outcome.Stderr(), "oops") {
			t.Errorf("Expected stderr detail, got %q", outcome.Stderr())
		}
		if len(outcome.StdoutLines) != 1 || outcome.StdoutLines[0] != "partial" {
			t.Errorf("Expected partial stdout retained, got %v", outcome.StdoutLines)
		}
	})

	t.Run("kills the process on context expiry", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		start := time.Now()
		outcome, err := c.Collect(ctx, shCommand(`sleep 10`))
		elapsed := time.Since(start)

		if err == nil {
			t.Fatal("Expected an error for a killed process")
		}
		if elapsed > 5*time.Second {
			t.Errorf("Expected prompt termination, took %s", elapsed)
		}
		if outcome == nil {
			t.Fatal("Expected outcome for a started process")
		}
		if outcome.ExitCode != -1 {
			t.Errorf("Expected exit code -1 for a signal death, got %d", outcome.ExitCode)
		}
	})
}

func TestProcessOutcomeJoins(t *testing.T) {
	outcome := &ProcessOutcome{
		StdoutLines: []string{"a", "b"},
		StderrLines: []string{"x"},
	}
	if outcome.Stdout() != "a\nb" {
		t.Errorf("Expected joined stdout, got %q", outcome.Stdout())
	}
	if outcome.Stderr() != "x" {
		t.Errorf("Expected joined stderr, got %q", outcome.Stderr())
	}
}

func TestCollectStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress run in short mode")
	}
	c := NewCollector(nil)
	script := `i=1; while [ $i -le 500 ]; do echo "out $i"; echo "err $i" 1>&2; i=$((i+1)); done`

	for run := 0; run < 4; run++ {
		outcome, err := c.Collect(context.Background(), shCommand(script))
		if err != nil {
			t.Fatalf("run %d: Collect failed: %v", run, err)
		}
		if len(outcome.StdoutLines) != 500 || len(outcome.StderrLines) != 500 {
			t.Fatalf("run %d: expected 500 lines per stream, got %d/%d",
				run, len(outcome.StdoutLines), len(outcome.StderrLines))
		}
		for i, line := range outcome.StdoutLines {
			if line != fmt.Sprintf("out %d", i+1) {
				t.Fatalf("run %d: stdout out of order at %d: %q", run, i, line)
			}
		}
	}
}
