package qcli

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"time"

	"github.com/entrhq/qbridge/pkg/logging"
)

// Runner drives CLI attempts to completion or exhaustion. Retries and
// backoff are entirely internal: callers see either one successful outcome
// or one aggregated InvocationError.
type Runner struct {
	invoker   *Invoker
	collector *Collector
	logger    *logging.Logger

	// sleep is replaceable in tests to record backoff without waiting.
	sleep func(time.Duration)
}

// NewRunner creates a Runner. logger may be nil.
func NewRunner(invoker *Invoker, collector *Collector, logger *logging.Logger) *Runner {
	return &Runner{
		invoker:   invoker,
		collector: collector,
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// Run executes req, retrying recoverable failures with exponential backoff
// (1s, 2s, 4s). Prompt content is never logged, only its length.
func (r *Runner) Run(ctx context.Context, req CommandRequest) (*ProcessOutcome, error) {
	var lastErr error

	for attempt := 1; attempt <= req.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if attempt > 1 {
			r.infof("retry attempt %d/%d for amazon q cli command", attempt, req.MaxRetries)
		} else {
			r.infof("running amazon q cli command (model %s, prompt %d chars) [prompt hidden]", req.Model, len(req.Prompt))
		}

		outcome, err := r.attempt(ctx, req)
		if err == nil {
			r.infof("cli command completed on attempt %d: %d stdout lines in %s",
				attempt, len(outcome.StdoutLines), outcome.Duration.Round(time.Millisecond))
			return outcome, nil
		}

		lastErr = err
		if attempt < req.MaxRetries {
			delay := backoffDelay(attempt)
			r.warnf("cli command failed (attempt %d/%d): %v: retrying in %s", attempt, req.MaxRetries, err, delay)
			r.sleep(delay)
		} else {
			r.warnf("cli command failed after %d attempts: %v", req.MaxRetries, err)
		}
	}

	return nil, &InvocationError{
		Path:     r.invoker.Path(),
		Attempts: req.MaxRetries,
		LastErr:  lastErr,
	}
}

// backoffDelay returns the pause after a failed attempt: 2^(attempt-1)
// seconds, so 1s, 2s, 4s across a default three-attempt cycle.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

// attempt runs one deadline-bounded invocation and classifies its failure.
func (r *Runner) attempt(ctx context.Context, req CommandRequest) (*ProcessOutcome, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	cmd := r.invoker.Command(attemptCtx, req.Prompt, req.Model)
	outcome, err := r.collector.Collect(attemptCtx, cmd)
	if err == nil {
		return outcome, nil
	}
	return nil, r.classify(attemptCtx, req, outcome, err)
}

// classify maps a raw attempt failure onto the retry taxonomy. Deadline
// expiry wins over the exit error the kill itself produces.
func (r *Runner) classify(ctx context.Context, req CommandRequest, outcome *ProcessOutcome, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Timeout: req.Timeout}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := ""
		if outcome != nil {
			stderr = outcome.Stderr()
		}
		return &ExitError{ExitCode: exitErr.ExitCode(), Stderr: stderr}
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return &NotFoundError{Path: r.invoker.Path()}
	}

	return err
}

func (r *Runner) infof(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Infof(format, args...)
	}
}

func (r *Runner) warnf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warnf(format, args...)
	}
}
