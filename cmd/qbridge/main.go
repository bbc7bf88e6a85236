// Package main provides the qbridge API server, exposing Amazon Q CLI
// analysis, agent data processing, and dashboard publishing over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/qbridge/pkg/config"
	"github.com/entrhq/qbridge/pkg/dashboard"
	"github.com/entrhq/qbridge/pkg/logging"
	"github.com/entrhq/qbridge/pkg/publisher"
	"github.com/entrhq/qbridge/pkg/qcli"
	"github.com/entrhq/qbridge/pkg/safety"
	"github.com/entrhq/qbridge/pkg/server"
	"github.com/entrhq/qbridge/pkg/summarizer"
	"github.com/entrhq/qbridge/pkg/summarizer/bedrock"
	"github.com/entrhq/qbridge/pkg/summarizer/openai"
)

const version = "1.0.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Addr        string
	ShowVersion bool
}

func main() {
	// Parse command line flags
	cliConfig := parseFlags()

	// Show version if requested
	if cliConfig.ShowVersion {
		fmt.Printf("qbridge v%s\n", version)
		return
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	// Run the server
	if err := run(ctx, cliConfig); err != nil {
		cancel() // Cancel context before exiting
		log.Printf("Execution failed: %v", err)
		os.Exit(1)
	}
	cancel() // Clean up context on success
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cliConfig := &CLIConfig{}

	flag.StringVar(&cliConfig.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cliConfig.Addr, "addr", "", "Listen address (overrides config file)")
	flag.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "qbridge - Amazon Q Wrapper API\n\n")
		fmt.Fprintf(os.Stderr, "Usage: qbridge [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Run with defaults (Bedrock processing, listen on :8000)\n")
		fmt.Fprintf(os.Stderr, "  qbridge\n\n")
		fmt.Fprintf(os.Stderr, "  # Run with a config file\n")
		fmt.Fprintf(os.Stderr, "  qbridge -config qbridge.yaml\n\n")
		fmt.Fprintf(os.Stderr, "  # Override the listen address\n")
		fmt.Fprintf(os.Stderr, "  qbridge -addr :9000\n\n")
	}

	flag.Parse()
	return cliConfig
}

// run wires the API dependencies and serves until the context is cancelled.
func run(ctx context.Context, cliConfig *CLIConfig) error {
	// Load configuration (defaults, then file, then environment)
	cfg, err := config.Load(cliConfig.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cliConfig.Addr != "" {
		cfg.Server.Addr = cliConfig.Addr
	}

	// Session logger falls back to stderr when the log directory is
	// unavailable, so startup continues either way.
	logger, err := logging.NewLogger("qbridge")
	if err != nil {
		log.Printf("Session log unavailable, logging to stderr: %v", err)
	}
	defer logger.Close()

	validator, err := safety.NewValidator(cfg.Safety)
	if err != nil {
		return fmt.Errorf("failed to create safety validator: %w", err)
	}

	engine := qcli.NewClient(cfg.CLI, validator, logger)

	// Processing and publishing degrade to disabled instead of failing
	// startup: their endpoints answer 503 and /health reports the gap.
	var processor server.Processor
	if p, buildErr := buildProcessor(ctx, cfg, logger); buildErr != nil {
		log.Printf("Data processing disabled: %v", buildErr)
	} else {
		processor = p
	}

	var sitePublisher server.SitePublisher
	if cfg.Publisher.Bucket == "" {
		log.Printf("Dashboard publishing disabled: no S3 bucket configured")
	} else if pub, pubErr := publisher.New(ctx, cfg.Publisher, logger); pubErr != nil {
		log.Printf("Dashboard publishing disabled: %v", pubErr)
	} else {
		sitePublisher = pub
	}

	renderer, err := dashboard.NewGenerator()
	if err != nil {
		return fmt.Errorf("failed to create dashboard generator: %w", err)
	}

	srv := server.New(cfg.Server, engine, processor, sitePublisher, renderer, logger)

	log.Printf("Starting qbridge v%s on %s", version, cfg.Server.Addr)
	log.Printf("CLI: %s (model %s)", cfg.CLI.Path, cfg.CLI.Model)
	if path := logger.LogPath(); path != "" {
		log.Printf("Session log: %s", path)
	}

	return srv.Start(ctx)
}

// buildProcessor constructs the summarizer for the configured provider.
// It returns the concrete type so callers can keep a nil interface when
// construction fails.
func buildProcessor(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*summarizer.Summarizer, error) {
	var provider summarizer.Provider

	switch cfg.Summarizer.Provider {
	case "openai":
		var opts []openai.ProviderOption
		if cfg.Summarizer.OpenAIModel != "" {
			opts = append(opts, openai.WithModel(cfg.Summarizer.OpenAIModel))
		}
		if cfg.Summarizer.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Summarizer.OpenAIBaseURL))
		}
		p, err := openai.NewProvider(cfg.Summarizer.OpenAIAPIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI provider: %w", err)
		}
		provider = p
	default:
		p, err := bedrock.NewProvider(ctx, cfg.Summarizer)
		if err != nil {
			return nil, fmt.Errorf("failed to create Bedrock provider: %w", err)
		}
		provider = p
	}

	return summarizer.New(provider, cfg.Summarizer, logger), nil
}
