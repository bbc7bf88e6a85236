// Package summarizer turns raw analysis transcripts into structured cost
// optimization recommendations by driving an agent backend.
//
// The Summarizer owns the orchestration: it chunks oversized inputs, sends
// one provider invocation per chunk, consolidates multi-chunk results, and
// builds the second-stage dashboard summary. The actual model call lives
// behind the Provider interface so Bedrock agents and OpenAI-compatible
// APIs are interchangeable.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/qbridge/pkg/config"
	"github.com/entrhq/qbridge/pkg/logging"
)

// Provider is an agent backend that completes a processing prompt.
type Provider interface {
	// Invoke sends inputText to the backend under the given session and
	// returns the accumulated completion text.
	Invoke(ctx context.Context, sessionID, inputText string) (string, error)

	// Name identifies the backend in logs and response metadata.
	Name() string
}

// Processing status values reported in Result.Status.
const (
	// StatusCompleted marks a normal pass where the provider produced output.
	StatusCompleted = "completed"

	// StatusRawDataPreservation marks a pass where the provider returned
	// nothing useful and Response carries the unprocessed input instead, so
	// downstream consumers never lose the collected data.
	StatusRawDataPreservation = "raw_data_preservation"
)

// Result carries the outcome of one processing pass.
type Result struct {
	// Response is the provider's accumulated completion text, or the raw
	// input when Status is StatusRawDataPreservation.
	Response string `json:"response"`

	// SessionID is the provider conversation the pass ran under.
	SessionID string `json:"session_id"`

	// ProcessingType echoes the caller's requested processing mode.
	ProcessingType string `json:"processing_type"`

	// Chunks is the number of extraction calls the input was split into.
	Chunks int `json:"chunks"`

	// Status is StatusCompleted or StatusRawDataPreservation.
	Status string `json:"status"`

	// Provider names the backend that served the pass.
	Provider string `json:"provider"`

	// Duration is the wall-clock time spent across provider calls.
	Duration time.Duration `json:"duration"`
}

// Summarizer orchestrates provider invocations over collected data objects.
type Summarizer struct {
	provider     Provider
	tokens       *TokenCounter
	maxChunkSize int
	tokenBudget  int
	logger       *logging.Logger

	// now is swapped in tests for deterministic session identifiers.
	now func() time.Time
}

// New creates a Summarizer backed by the given provider. A nil logger
// disables logging.
func New(provider Provider, cfg config.SummarizerConfig, logger *logging.Logger) *Summarizer {
	maxChunk := cfg.MaxChunkSize
	if maxChunk <= 0 {
		maxChunk = config.DefaultMaxChunkSize
	}

	return &Summarizer{
		provider:     provider,
		tokens:       NewTokenCounter(),
		maxChunkSize: maxChunk,
		tokenBudget:  cfg.TokenBudget,
		logger:       logger,
		now:          time.Now,
	}
}

// ProcessDataObjects runs the extraction pass over the collected analysis
// objects. Inputs whose serialized size exceeds the chunk limit are split on
// object boundaries, processed chunk by chunk, and consolidated with a final
// provider call. processingType is echoed into the Result for response
// envelopes; it does not change the extraction behavior.
func (s *Summarizer) ProcessDataObjects(ctx context.Context, objects []map[string]any, processingType string) (*Result, error) {
	if len(objects) == 0 {
		return nil, fmt.Errorf("no data objects to process")
	}

	start := s.now()
	sessionID := fmt.Sprintf("session-%d", start.Unix())
	chunks := s.chunkObjects(objects)

	s.logf("Processing %d data objects in %d chunk(s), session %s", len(objects), len(chunks), sessionID)

	var response string
	if len(chunks) == 1 {
		text, err := s.invoke(ctx, sessionID, extractionPrompt(chunks[0]))
		if err != nil {
			return nil, err
		}
		response = text
	} else {
		chunkResults := make([]string, 0, len(chunks))
		for i, chunk := range chunks {
			s.logf("Processing chunk %d/%d with %d objects", i+1, len(chunks), len(chunk))
			text, err := s.invoke(ctx, fmt.Sprintf("%s-chunk-%d", sessionID, i), chunkExtractionPrompt(chunk, i+1, len(chunks)))
			if err != nil {
				return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			chunkResults = append(chunkResults, text)
		}

		text, err := s.invoke(ctx, sessionID+"-consolidation", consolidationPrompt(chunkResults))
		if err != nil {
			return nil, fmt.Errorf("consolidation: %w", err)
		}
		response = text
	}

	result := &Result{
		Response:       response,
		SessionID:      sessionID,
		ProcessingType: processingType,
		Chunks:         len(chunks),
		Status:         StatusCompleted,
		Provider:       s.provider.Name(),
		Duration:       time.Since(start),
	}

	if strings.TrimSpace(response) == "" {
		s.logf("Provider returned empty output, preserving raw input for session %s", sessionID)
		result.Response = preserveRaw(objects)
		result.Status = StatusRawDataPreservation
	}

	return result, nil
}

// CreateDashboardSummary runs the second-stage pass that reshapes an
// extraction result into dashboard-ready JSON.
func (s *Summarizer) CreateDashboardSummary(ctx context.Context, processedData string) (*Result, error) {
	if strings.TrimSpace(processedData) == "" {
		return nil, fmt.Errorf("no processed data to summarize")
	}

	start := s.now()
	sessionID := fmt.Sprintf("dashboard-session-%d", start.Unix())

	response, err := s.invoke(ctx, sessionID, dashboardSummaryPrompt(processedData))
	if err != nil {
		return nil, err
	}

	result := &Result{
		Response:       response,
		SessionID:      sessionID,
		ProcessingType: "dashboard_summary",
		Chunks:         1,
		Status:         StatusCompleted,
		Provider:       s.provider.Name(),
		Duration:       time.Since(start),
	}

	if strings.TrimSpace(response) == "" {
		s.logf("Provider returned empty dashboard summary, preserving input for session %s", sessionID)
		result.Response = processedData
		result.Status = StatusRawDataPreservation
	}

	return result, nil
}

// invoke applies the token budget and performs one provider call.
func (s *Summarizer) invoke(ctx context.Context, sessionID, prompt string) (string, error) {
	if s.tokenBudget > 0 {
		trimmed := s.tokens.Truncate(prompt, s.tokenBudget)
		if len(trimmed) < len(prompt) {
			s.logf("Prompt truncated from %d to %d chars to fit token budget %d", len(prompt), len(trimmed), s.tokenBudget)
		}
		prompt = trimmed
	}

	start := time.Now()
	text, err := s.provider.Invoke(ctx, sessionID, prompt)
	if err != nil {
		return "", fmt.Errorf("%s invocation failed: %w", s.provider.Name(), err)
	}

	s.logf("Provider %s responded in %v (%d chars, session %s)", s.provider.Name(), time.Since(start).Round(time.Millisecond), len(text), sessionID)
	return text, nil
}

// preserveRaw renders the input objects as indented JSON so nothing is lost
// when a pass falls back to raw-data preservation.
func preserveRaw(objects []map[string]any) string {
	return jsonBody(objects)
}

func (s *Summarizer) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Infof(format, args...)
	}
}

// jsonBody renders v as indented JSON for prompt embedding. Inputs are
// decoded JSON, so marshaling does not fail in practice; a failure falls
// back to fmt formatting.
func jsonBody(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
