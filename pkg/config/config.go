// Package config defines the explicit configuration surface for qbridge.
//
// A Config is constructed with DefaultConfig or Load and passed into component
// constructors. There is no process-global settings object: each component
// receives exactly the section it needs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMaxChunkSize is the serialized size in characters at which collected
// data objects are split into separate summarizer chunks.
const DefaultMaxChunkSize = 50000

// Config is the root configuration for all qbridge components.
type Config struct {
	// CLI configures the wrapped Amazon Q developer CLI invocation engine.
	CLI CLIConfig `yaml:"cli" json:"cli"`

	// Safety configures the read-only guardrail pattern tables.
	Safety SafetyConfig `yaml:"safety" json:"safety"`

	// Summarizer configures the downstream agent-processing step.
	Summarizer SummarizerConfig `yaml:"summarizer" json:"summarizer"`

	// Publisher configures S3 static-site dashboard publishing.
	Publisher PublisherConfig `yaml:"publisher" json:"publisher"`

	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server" json:"server"`
}

// CLIConfig holds the invocation settings for the external CLI.
type CLIConfig struct {
	// Path to the CLI executable. Defaults to "q" (resolved via PATH).
	Path string `yaml:"path" json:"path"`

	// Model identifier passed to the CLI's --model flag.
	Model string `yaml:"model" json:"model"`

	// Timeout bounds one attempt's entire process lifetime.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// MaxRetries is the number of attempts before giving up.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// Profile is the AWS profile exported to the child process.
	Profile string `yaml:"profile" json:"profile"`

	// Region is the AWS region exported to the child process.
	Region string `yaml:"region" json:"region"`

	// WorkingDir is an optional working directory for CLI commands.
	WorkingDir string `yaml:"working_dir" json:"working_dir"`
}

// SummarizerConfig holds agent-processing settings.
type SummarizerConfig struct {
	// Provider selects the processing backend: "bedrock" or "openai".
	Provider string `yaml:"provider" json:"provider"`

	// Bedrock agent settings.
	AgentID      string `yaml:"agent_id" json:"agent_id"`
	AgentAliasID string `yaml:"agent_alias_id" json:"agent_alias_id"`
	Region       string `yaml:"region" json:"region"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`

	// OpenAI-compatible provider settings.
	OpenAIAPIKey  string `yaml:"openai_api_key" json:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url" json:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model" json:"openai_model"`

	// MaxChunkSize caps the character size of one processing chunk.
	MaxChunkSize int `yaml:"max_chunk_size" json:"max_chunk_size"`

	// TokenBudget caps the token count of one provider invocation's input.
	TokenBudget int `yaml:"token_budget" json:"token_budget"`
}

// PublisherConfig holds S3 static-site settings.
type PublisherConfig struct {
	Bucket             string `yaml:"bucket" json:"bucket"`
	Region             string `yaml:"region" json:"region"`
	UseWebsiteEndpoint bool   `yaml:"use_website_endpoint" json:"use_website_endpoint"`
	ForcePathStyle     bool   `yaml:"force_path_style" json:"force_path_style"`
	EndpointURL        string `yaml:"endpoint_url" json:"endpoint_url"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr" json:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins" json:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// DefaultConfig returns a configuration suitable for most deployments.
func DefaultConfig() *Config {
	return &Config{
		CLI: CLIConfig{
			Path:       "q",
			Model:      "claude-3.5-sonnet",
			Timeout:    300 * time.Second,
			MaxRetries: 3,
			Region:     "us-east-1",
		},
		Safety: DefaultSafetyConfig(),
		Summarizer: SummarizerConfig{
			Provider:       "bedrock",
			AgentAliasID:   "TSTALIASID",
			Region:         "us-east-1",
			ConnectTimeout: 60 * time.Second,
			ReadTimeout:    600 * time.Second,
			MaxRetries:     3,
			OpenAIModel:    "gpt-4o",
			MaxChunkSize:   DefaultMaxChunkSize,
			TokenBudget:    100000,
		},
		Publisher: PublisherConfig{
			Region: "us-east-1",
		},
		Server: ServerConfig{
			Addr: ":8000",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			},
			RequestTimeout: 300 * time.Second,
		},
	}
}

// Load builds a Config from defaults, an optional YAML file, and environment
// variable overrides, in that order of precedence (later wins).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays well-known environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("QBRIDGE_CLI_PATH"); v != "" {
		c.CLI.Path = v
	}
	if v := os.Getenv("QBRIDGE_CLI_MODEL"); v != "" {
		c.CLI.Model = v
	}
	if v := os.Getenv("QBRIDGE_CLI_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.CLI.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("QBRIDGE_CLI_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CLI.MaxRetries = n
		}
	}
	if v := os.Getenv("AWS_PROFILE"); v != "" && c.CLI.Profile == "" {
		c.CLI.Profile = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.CLI.Region = v
	}
	if v := os.Getenv("QBRIDGE_BEDROCK_AGENT_ID"); v != "" {
		c.Summarizer.AgentID = v
	}
	if v := os.Getenv("QBRIDGE_BEDROCK_AGENT_ALIAS_ID"); v != "" {
		c.Summarizer.AgentAliasID = v
	}
	if v := os.Getenv("QBRIDGE_SUMMARIZER_PROVIDER"); v != "" {
		c.Summarizer.Provider = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.Summarizer.OpenAIAPIKey == "" {
		c.Summarizer.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" && c.Summarizer.OpenAIBaseURL == "" {
		c.Summarizer.OpenAIBaseURL = v
	}
	if v := os.Getenv("QBRIDGE_S3_BUCKET"); v != "" {
		c.Publisher.Bucket = v
	}
	if v := os.Getenv("QBRIDGE_S3_REGION"); v != "" {
		c.Publisher.Region = v
	}
	if v := os.Getenv("QBRIDGE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("QBRIDGE_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		c.Server.AllowedOrigins = origins
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.CLI.Path == "" {
		return fmt.Errorf("cli path is required")
	}
	if len(c.CLI.Path) > 255 {
		return fmt.Errorf("cli path exceeds 255 characters")
	}
	if c.CLI.Model == "" {
		return fmt.Errorf("cli model is required")
	}
	if len(c.CLI.Model) > 100 {
		return fmt.Errorf("cli model exceeds 100 characters")
	}
	if c.CLI.Timeout <= 0 {
		return fmt.Errorf("cli timeout must be positive")
	}
	if c.CLI.MaxRetries < 1 {
		return fmt.Errorf("cli max_retries must be at least 1")
	}

	if err := c.Safety.Validate(); err != nil {
		return fmt.Errorf("safety config: %w", err)
	}

	switch c.Summarizer.Provider {
	case "bedrock", "openai":
	case "":
		return fmt.Errorf("summarizer provider is required")
	default:
		return fmt.Errorf("invalid summarizer provider: %s (must be 'bedrock' or 'openai')", c.Summarizer.Provider)
	}
	if c.Summarizer.MaxChunkSize <= 0 {
		return fmt.Errorf("summarizer max_chunk_size must be positive")
	}
	if c.Summarizer.TokenBudget < 0 {
		return fmt.Errorf("summarizer token_budget cannot be negative")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server request_timeout cannot be negative")
	}

	return nil
}
