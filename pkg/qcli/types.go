package qcli

import (
	"strings"
	"time"
)

// CommandRequest describes one CLI invocation. It is built once per call and
// never mutated; concurrent invocations each carry their own request.
type CommandRequest struct {
	// Prompt is the full text handed to the CLI, guardrail preamble included.
	Prompt string

	// Model is the identifier passed to the CLI's --model flag.
	Model string

	// Timeout bounds one attempt's entire process lifetime.
	Timeout time.Duration

	// MaxRetries is the total number of attempts before giving up.
	MaxRetries int
}

// ProcessOutcome is the raw result of a single completed attempt. It is owned
// by that attempt and discarded once a ParsedResponse has been produced.
type ProcessOutcome struct {
	// ExitCode is the process exit status (0 on success).
	ExitCode int

	// StdoutLines holds non-empty stdout lines in arrival order.
	StdoutLines []string

	// StderrLines holds non-empty stderr lines in arrival order. No ordering
	// is implied between the two streams.
	StderrLines []string

	// Duration is the wall-clock time from spawn to exit.
	Duration time.Duration
}

// Stdout returns the collected stdout lines joined as a transcript.
func (o *ProcessOutcome) Stdout() string {
	return strings.Join(o.StdoutLines, "\n")
}

// Stderr returns the collected stderr lines joined as a transcript.
func (o *ProcessOutcome) Stderr() string {
	return strings.Join(o.StderrLines, "\n")
}

// ParsedResponse is the structured result handed to callers.
type ParsedResponse struct {
	// Response is the recovered assistant answer.
	Response string `json:"response"`

	// ConversationID is always empty: the CLI is stateless per call.
	ConversationID string `json:"conversation_id"`

	// SourceAttributions is always empty under this transport.
	SourceAttributions []string `json:"source_attributions"`

	// RawOutput is the untouched transcript, retained for diagnostics even
	// when heuristic parsing degrades to a fallback tier.
	RawOutput string `json:"raw_output"`
}
