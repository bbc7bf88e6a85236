// Package main provides qbridge-query, a one-shot terminal client that
// runs a single analysis query through the Amazon Q CLI engine and
// prints the styled response.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/entrhq/qbridge/pkg/config"
	"github.com/entrhq/qbridge/pkg/logging"
	"github.com/entrhq/qbridge/pkg/qcli"
	"github.com/entrhq/qbridge/pkg/safety"
)

const version = "1.0.0"

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// CLIConfig holds command-line configuration
type CLIConfig struct {
	Query       string
	QueryType   string
	ConfigFile  string
	Model       string
	Timeout     time.Duration
	Copy        bool
	Plain       bool
	ShowVersion bool
}

func main() {
	// Parse command line flags
	cliConfig := parseFlags()

	// Show version if requested
	if cliConfig.ShowVersion {
		fmt.Printf("qbridge-query v%s\n", version)
		return
	}

	// Validate configuration
	if err := cliConfig.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Run the query
	if runErr := run(ctx, cliConfig); runErr != nil {
		cancel()
		log.Fatalf("Query failed: %v", runErr)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cliConfig := &CLIConfig{}

	flag.StringVar(&cliConfig.Query, "query", "", "Query text (interpretation depends on -type; see examples)")
	flag.StringVar(&cliConfig.QueryType, "type", "chat", "Query type: chat, cost-optimization, underutilization, ec2, ebs, s3, lambda, rds, comprehensive")
	flag.StringVar(&cliConfig.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cliConfig.Model, "model", "", "CLI model (overrides config file)")
	flag.DurationVar(&cliConfig.Timeout, "timeout", 0, "Per-attempt CLI timeout (overrides config file)")
	flag.BoolVar(&cliConfig.Copy, "copy", false, "Copy the response text to the clipboard")
	flag.BoolVar(&cliConfig.Plain, "plain", false, "Plain output without spinner or styling (automatic when stdout is not a terminal)")
	flag.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "qbridge-query - One-shot Amazon Q analysis query\n\n")
		fmt.Fprintf(os.Stderr, "Usage: qbridge-query [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Free-form chat\n")
		fmt.Fprintf(os.Stderr, "  qbridge-query -query \"Which services cost the most this month?\"\n\n")
		fmt.Fprintf(os.Stderr, "  # Cost optimization data gathering\n")
		fmt.Fprintf(os.Stderr, "  qbridge-query -type cost-optimization -query \"Identify unattached EBS volumes\"\n\n")
		fmt.Fprintf(os.Stderr, "  # EC2 underutilization over the last 7 days (-query is the time range)\n")
		fmt.Fprintf(os.Stderr, "  qbridge-query -type ec2 -query 7d\n\n")
		fmt.Fprintf(os.Stderr, "  # Underutilization for one resource type (-query is \"RESOURCE [RANGE]\")\n")
		fmt.Fprintf(os.Stderr, "  qbridge-query -type underutilization -query \"RDS 30d\"\n\n")
		fmt.Fprintf(os.Stderr, "  # Comprehensive analysis for selected services, copied to clipboard\n")
		fmt.Fprintf(os.Stderr, "  qbridge-query -type comprehensive -query EC2,RDS -copy\n")
	}

	flag.Parse()
	return cliConfig
}

// validate checks that the configuration is valid
func (c *CLIConfig) validate() error {
	switch c.QueryType {
	case "chat", "cost-optimization", "underutilization":
		if strings.TrimSpace(c.Query) == "" {
			return fmt.Errorf("-query is required for type %q", c.QueryType)
		}
	case "ec2", "ebs", "s3", "lambda", "rds", "comprehensive":
		// Query is optional: these analyses carry their own prompts.
	default:
		return fmt.Errorf("unknown query type %q (expected chat, cost-optimization, underutilization, ec2, ebs, s3, lambda, rds, or comprehensive)", c.QueryType)
	}
	return nil
}

// run wires the engine and executes the query in TUI or plain mode.
func run(ctx context.Context, cliConfig *CLIConfig) error {
	cfg, err := config.Load(cliConfig.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cliConfig.Model != "" {
		cfg.CLI.Model = cliConfig.Model
	}
	if cliConfig.Timeout > 0 {
		cfg.CLI.Timeout = cliConfig.Timeout
	}

	logger, err := logging.NewLogger("qbridge-query")
	if err != nil {
		log.Printf("Session log unavailable, logging to stderr: %v", err)
	}
	defer logger.Close()

	validator, err := safety.NewValidator(cfg.Safety)
	if err != nil {
		return fmt.Errorf("failed to create safety validator: %w", err)
	}

	engine := qcli.NewClient(cfg.CLI, validator, logger)

	if cliConfig.Plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runPlain(ctx, engine, cliConfig)
	}
	return runSpinner(ctx, engine, cliConfig)
}

// runPlain executes the query without a TUI, keeping stdout clean for
// pipes: the response goes to stdout, timing to stderr.
func runPlain(ctx context.Context, engine *qcli.Client, cliConfig *CLIConfig) error {
	start := time.Now()
	response, err := dispatch(ctx, engine, cliConfig.QueryType, cliConfig.Query)
	if err != nil {
		return err
	}

	fmt.Println(response.Response)
	fmt.Fprintf(os.Stderr, "Completed in %s\n", time.Since(start).Round(time.Millisecond))

	return copyResponse(cliConfig, response.Response)
}

// runSpinner executes the query behind the waiting spinner and renders
// the styled result once the program exits.
func runSpinner(ctx context.Context, engine *qcli.Client, cliConfig *CLIConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newQueryModel(loadingLabel(cliConfig.QueryType), func() tea.Msg {
		start := time.Now()
		response, err := dispatch(ctx, engine, cliConfig.QueryType, cliConfig.Query)
		return queryDoneMsg{response: response, duration: time.Since(start), err: err}
	})

	program := tea.NewProgram(m)
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("failed to run TUI program: %w", err)
	}

	final := finalModel.(queryModel)
	switch {
	case final.cancelled:
		cancel()
		return fmt.Errorf("query cancelled")
	case final.err != nil:
		return final.err
	}

	printResult(cliConfig.QueryType, final.response, final.duration)
	return copyResponse(cliConfig, final.response.Response)
}

// dispatch maps the query type onto an engine call. The -query flag is
// overloaded per type: free text for chat and cost-optimization, the
// resource type (plus optional time range) for underutilization, the
// time range for ec2, and a comma-separated service list for
// comprehensive.
func dispatch(ctx context.Context, engine *qcli.Client, queryType, query string) (*qcli.ParsedResponse, error) {
	switch queryType {
	case "chat":
		return engine.Chat(ctx, query)
	case "cost-optimization":
		return engine.QueryCostOptimization(ctx, query)
	case "underutilization":
		fields := strings.Fields(query)
		resourceType := fields[0]
		timeRange := ""
		if len(fields) > 1 {
			timeRange = fields[1]
		}
		return engine.QueryUnderutilization(ctx, resourceType, timeRange)
	case "ec2":
		return engine.AnalyzeEC2Underutilization(ctx, strings.TrimSpace(query))
	case "ebs":
		return engine.AnalyzeEBSUnderutilization(ctx)
	case "s3":
		return engine.AnalyzeS3Underutilization(ctx)
	case "lambda":
		return engine.AnalyzeLambdaUnderutilization(ctx)
	case "rds":
		return engine.AnalyzeRDSUnderutilization(ctx)
	case "comprehensive":
		var services []string
		for _, s := range strings.Split(query, ",") {
			if s = strings.TrimSpace(s); s != "" {
				services = append(services, s)
			}
		}
		return engine.ComprehensiveCostAnalysis(ctx, services)
	default:
		return nil, fmt.Errorf("unknown query type: %s", queryType)
	}
}

// loadingLabel returns the spinner message for a query type.
func loadingLabel(queryType string) string {
	switch queryType {
	case "chat":
		return "Waiting for Amazon Q..."
	case "cost-optimization":
		return "Gathering cost optimization data..."
	case "comprehensive":
		return "Running comprehensive cost analysis..."
	default:
		return fmt.Sprintf("Running %s underutilization analysis...", queryType)
	}
}

// printResult renders the styled response block.
func printResult(queryType string, response *qcli.ParsedResponse, duration time.Duration) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("Amazon Q - %s", queryType)))
	fmt.Println()
	fmt.Println(responseStyle.Render(response.Response))
	fmt.Println()
	fmt.Println(labelStyle.Render(fmt.Sprintf("Completed in %s", duration.Round(time.Millisecond))))
}

// copyResponse copies the response text when -copy is set.
func copyResponse(cliConfig *CLIConfig, response string) error {
	if !cliConfig.Copy {
		return nil
	}
	if err := clipboardWriteAll(response); err != nil {
		return fmt.Errorf("failed to copy response to clipboard: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Response copied to clipboard")
	return nil
}
