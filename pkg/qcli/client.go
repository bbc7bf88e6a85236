// Package qcli wraps the Amazon Q developer CLI for programmatic use: it
// validates prompts against the read-only guardrail, spawns the CLI with a
// controlled environment and literal argument vector, drains both output
// streams concurrently, retries recoverable failures with exponential
// backoff, and recovers the assistant's answer from the interactive
// transcript.
//
// The CLI is stateless per call: no conversation state survives an
// invocation, and each in-flight call owns exactly one child process.
package qcli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/entrhq/qbridge/pkg/config"
	"github.com/entrhq/qbridge/pkg/logging"
	"github.com/entrhq/qbridge/pkg/safety"
)

// defaultTimeRange is used when a caller leaves the analysis window empty.
const defaultTimeRange = "30d"

// probeTimeout bounds the health-check invocation of the CLI.
const probeTimeout = 10 * time.Second

// Client is the facade over the invocation engine. Construct it once and
// share it: every method is safe for concurrent use, with each call paying
// the cost of one child process.
type Client struct {
	cfg       config.CLIConfig
	validator *safety.Validator
	runner    *Runner
	parser    *Parser
	logger    *logging.Logger
}

// NewClient wires the engine components from cfg. validator must be
// non-nil: prompt validation is the blocking half of the read-only policy.
// logger may be nil.
func NewClient(cfg config.CLIConfig, validator *safety.Validator, logger *logging.Logger) *Client {
	invoker := NewInvoker(cfg)
	collector := NewCollector(logger)
	return &Client{
		cfg:       cfg,
		validator: validator,
		runner:    NewRunner(invoker, collector, logger),
		parser:    NewParser(),
		logger:    logger,
	}
}

// Chat sends a free-form message and returns the parsed response.
func (c *Client) Chat(ctx context.Context, message string) (*ParsedResponse, error) {
	return c.execute(ctx, message)
}

// QueryCostOptimization asks for raw cost data gathering scoped by query.
func (c *Client) QueryCostOptimization(ctx context.Context, query string) (*ParsedResponse, error) {
	return c.execute(ctx, costOptimizationPrompt(query))
}

// QueryUnderutilization asks for underutilization data for one resource
// type over timeRange (defaults to 30d).
func (c *Client) QueryUnderutilization(ctx context.Context, resourceType, timeRange string) (*ParsedResponse, error) {
	if timeRange == "" {
		timeRange = defaultTimeRange
	}
	return c.execute(ctx, underutilizationPrompt(resourceType, timeRange))
}

// AnalyzeEC2Underutilization runs the EC2 data-collection analysis.
func (c *Client) AnalyzeEC2Underutilization(ctx context.Context, timeRange string) (*ParsedResponse, error) {
	if timeRange == "" {
		timeRange = defaultTimeRange
	}
	return c.execute(ctx, ec2AnalysisPrompt(timeRange))
}

// AnalyzeEBSUnderutilization runs the EBS volume analysis.
func (c *Client) AnalyzeEBSUnderutilization(ctx context.Context) (*ParsedResponse, error) {
	return c.execute(ctx, ebsAnalysisPrompt)
}

// AnalyzeS3Underutilization runs the S3 bucket analysis.
func (c *Client) AnalyzeS3Underutilization(ctx context.Context) (*ParsedResponse, error) {
	return c.execute(ctx, s3AnalysisPrompt)
}

// AnalyzeLambdaUnderutilization runs the Lambda function analysis.
func (c *Client) AnalyzeLambdaUnderutilization(ctx context.Context) (*ParsedResponse, error) {
	return c.execute(ctx, lambdaAnalysisPrompt)
}

// AnalyzeRDSUnderutilization runs the RDS instance analysis.
func (c *Client) AnalyzeRDSUnderutilization(ctx context.Context) (*ParsedResponse, error) {
	return c.execute(ctx, rdsAnalysisPrompt)
}

// ComprehensiveCostAnalysis analyzes the named services (all five major
// services when none are given).
func (c *Client) ComprehensiveCostAnalysis(ctx context.Context, services []string) (*ParsedResponse, error) {
	return c.execute(ctx, comprehensivePrompt(services))
}

// CheckAvailability probes the configured executable with --help. Used by
// the health endpoint to distinguish "installed" from "missing".
func (c *Client) CheckAvailability(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, c.cfg.Path, "--help")
	cmd.Env = buildEnv(os.Environ(), c.cfg.Profile, c.cfg.Region)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cli availability probe failed: %w", err)
	}
	return nil
}

// execute runs the full pipeline for one prompt: blocking validation,
// guardrail preamble, retried invocation, advisory output audit, parsing.
func (c *Client) execute(ctx context.Context, prompt string) (*ParsedResponse, error) {
	if err := c.validator.ValidatePrompt(prompt); err != nil {
		return nil, err
	}

	req := CommandRequest{
		Prompt:     withGuardrails(prompt),
		Model:      c.cfg.Model,
		Timeout:    c.cfg.Timeout,
		MaxRetries: c.cfg.MaxRetries,
	}

	outcome, err := c.runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	transcript := outcome.Stdout()

	// A match here is a recommendation mentioning the command, not an
	// execution, so it is logged and the response flows on.
	for _, violation := range c.validator.ValidateOutput(transcript) {
		c.warnf("response mentions guarded operation: %s", violation)
	}

	return c.parser.Parse(transcript), nil
}

func (c *Client) warnf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warnf(format, args...)
	}
}
