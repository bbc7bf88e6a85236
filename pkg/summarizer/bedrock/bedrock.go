// Package bedrock invokes an Amazon Bedrock agent as the summarizer backend.
//
// The provider wraps the bedrock-agent-runtime InvokeAgent API and drains
// the completion event stream into a single response string. Agent sessions
// map one-to-one onto summarizer session identifiers, so multi-chunk passes
// keep their chunk isolation on the agent side.
package bedrock

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	bratypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	"github.com/entrhq/qbridge/pkg/config"
)

// agentAPI is the slice of the bedrock-agent-runtime client the provider
// uses.
type agentAPI interface {
	InvokeAgent(ctx context.Context, params *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// Provider invokes a configured Bedrock agent.
type Provider struct {
	client       agentAPI
	agentID      string
	agentAliasID string
}

// NewProvider builds a Bedrock provider from the summarizer configuration.
// The underlying client uses adaptive retries and separate connect and read
// timeouts; agent invocations routinely run for minutes, so the read timeout
// is much longer than the connect timeout.
func NewProvider(ctx context.Context, cfg config.SummarizerConfig) (*Provider, error) {
	if cfg.AgentID == "" {
		return nil, fmt.Errorf("bedrock agent ID is required")
	}

	httpClient := awshttp.NewBuildableClient().
		WithTimeout(cfg.ReadTimeout).
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = cfg.ConnectTimeout
		})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewAdaptiveMode(), cfg.MaxRetries)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Provider{
		client:       bedrockagentruntime.NewFromConfig(awsCfg),
		agentID:      cfg.AgentID,
		agentAliasID: cfg.AgentAliasID,
	}, nil
}

// Name implements summarizer.Provider.
func (p *Provider) Name() string {
	return "bedrock"
}

// Invoke sends inputText to the agent under sessionID and returns the
// accumulated completion text.
func (p *Provider) Invoke(ctx context.Context, sessionID, inputText string) (string, error) {
	out, err := p.client.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(p.agentID),
		AgentAliasId: aws.String(p.agentAliasID),
		SessionId:    aws.String(sessionID),
		InputText:    aws.String(inputText),
	})
	if err != nil {
		return "", fmt.Errorf("bedrock agent invocation failed: %w", err)
	}

	stream := out.GetStream()
	if stream == nil {
		return "", fmt.Errorf("bedrock agent returned no completion stream")
	}
	return drainCompletion(stream)
}

// completionStream matches the event stream surface of InvokeAgentOutput.
type completionStream interface {
	Events() <-chan bratypes.ResponseStream
	Close() error
	Err() error
}

// drainCompletion accumulates chunk payload bytes in arrival order. Trace
// and control events are skipped; only chunk events carry completion text.
func drainCompletion(stream completionStream) (string, error) {
	defer stream.Close()

	var b strings.Builder
	for event := range stream.Events() {
		chunk, ok := event.(*bratypes.ResponseStreamMemberChunk)
		if !ok {
			continue
		}
		b.Write(chunk.Value.Bytes)
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("bedrock completion stream failed: %w", err)
	}
	return b.String(), nil
}
