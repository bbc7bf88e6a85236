package safety

import (
	"errors"
	"strings"
	"testing"

	"github.com/entrhq/qbridge/pkg/config"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(config.DefaultSafetyConfig())
	if err != nil {
		t.Fatalf("NewValidator failed: %v", err)
	}
	return v
}

func TestNewValidator(t *testing.T) {
	t.Run("compiles default tables", func(t *testing.T) {
		v := newTestValidator(t)
		if len(v.forbidden) == 0 {
			t.Error("Expected forbidden rules to be compiled")
		}
		if len(v.dangerous) == 0 {
			t.Error("Expected dangerous rules to be compiled")
		}
		if len(v.readOnly) == 0 {
			t.Error("Expected read-only globs to be compiled")
		}
	})

	t.Run("rejects invalid regex", func(t *testing.T) {
		cfg := config.DefaultSafetyConfig()
		cfg.DangerousPatterns = append(cfg.DangerousPatterns, config.PatternRule{Pattern: `[bad`})

		if _, err := NewValidator(cfg); err == nil {
			t.Error("Expected error for invalid regex pattern")
		}
	})

	t.Run("rejects invalid glob", func(t *testing.T) {
		cfg := config.DefaultSafetyConfig()
		cfg.ReadOnlyCommands = append(cfg.ReadOnlyCommands, config.PatternRule{Pattern: "["})

		if _, err := NewValidator(cfg); err == nil {
			t.Error("Expected error for invalid glob pattern")
		}
	})
}

func TestValidatePrompt(t *testing.T) {
	v := newTestValidator(t)

	t.Run("allows read-only prompts", func(t *testing.T) {
		prompts := []string{
			"Analyze my EC2 utilization for the last 30 days",
			"Show a cost breakdown using get-cost-and-usage",
			"List all S3 buckets and describe-instances output",
			"What are my top 5 most expensive services this month?",
		}
		for _, prompt := range prompts {
			if err := v.ValidatePrompt(prompt); err != nil {
				t.Errorf("Expected prompt to pass, got error: %v\nprompt: %s", err, prompt)
			}
		}
	})

	t.Run("flag parameters do not trip verb rules", func(t *testing.T) {
		prompts := []string{
			"Get CloudWatch metrics --start-time 2024-01-01T00:00:00 --end-time 2024-01-02T00:00:00",
			"List snapshots --filter start-date descending",
			"Query usage --stop-signal none please",
		}
		for _, prompt := range prompts {
			if err := v.ValidatePrompt(prompt); err != nil {
				t.Errorf("Expected flag parameter to be stripped, got error: %v\nprompt: %s", err, prompt)
			}
		}
	})

	t.Run("blocks forbidden operations", func(t *testing.T) {
		tests := []struct {
			prompt      string
			wantPattern string
		}{
			{"aws ec2 terminate-instances --instance-ids i-123", "terminate-"},
			{"delete-bucket my-bucket", "delete-"},
			{"please run update-function-code for my lambda", "update-"},
			{"rm everything in /tmp", "rm"},
			{"aws s3 sync ./local s3://bucket", "sync"},
			{"now modify-instance-attribute to fix it", "modify-"},
		}

		for _, tt := range tests {
			err := v.ValidatePrompt(tt.prompt)
			if err == nil {
				t.Errorf("Expected prompt to be blocked: %s", tt.prompt)
				continue
			}

			var ve *ViolationError
			if !errors.As(err, &ve) {
				t.Errorf("Expected ViolationError, got %T: %v", err, err)
				continue
			}
			if ve.Pattern != tt.wantPattern {
				t.Errorf("Expected pattern '%s', got '%s' for prompt: %s", tt.wantPattern, ve.Pattern, tt.prompt)
			}
		}
	})

	t.Run("rejects empty prompt", func(t *testing.T) {
		if err := v.ValidatePrompt(""); err == nil {
			t.Error("Expected error for empty prompt")
		}
		if err := v.ValidatePrompt("   \n\t"); err == nil {
			t.Error("Expected error for whitespace-only prompt")
		}
	})

	t.Run("rejects oversized prompt", func(t *testing.T) {
		err := v.ValidatePrompt(strings.Repeat("a", config.DefaultMaxPromptLength+1))
		if err == nil {
			t.Fatal("Expected error for oversized prompt")
		}
		if !strings.Contains(err.Error(), "prompt too long") {
			t.Errorf("Expected length error, got: %v", err)
		}
	})

	t.Run("respects configured prompt cap", func(t *testing.T) {
		cfg := config.DefaultSafetyConfig()
		cfg.MaxPromptLength = 20
		small, err := NewValidator(cfg)
		if err != nil {
			t.Fatalf("NewValidator failed: %v", err)
		}

		if err := small.ValidatePrompt("short prompt"); err != nil {
			t.Errorf("Expected short prompt to pass, got: %v", err)
		}
		if err := small.ValidatePrompt("this prompt exceeds twenty characters"); err == nil {
			t.Error("Expected error for prompt over configured cap")
		}
	})
}

func TestValidateOutput(t *testing.T) {
	v := newTestValidator(t)

	t.Run("prose without commands is skipped", func(t *testing.T) {
		output := "Your EC2 instances are underutilized. Consider rightsizing to t3.medium."
		if violations := v.ValidateOutput(output); violations != nil {
			t.Errorf("Expected nil for prose output, got %v", violations)
		}
	})

	t.Run("read-only script is clean", func(t *testing.T) {
		output := "$ aws ec2 describe-instances --region us-east-1"
		if violations := v.ValidateOutput(output); len(violations) != 0 {
			t.Errorf("Expected no violations, got %v", violations)
		}
	})

	t.Run("forbidden and dangerous rules both fire", func(t *testing.T) {
		output := "$ aws s3 rm s3://bucket/key"
		violations := v.ValidateOutput(output)

		if len(violations) != 2 {
			t.Fatalf("Expected 2 violations, got %d: %v", len(violations), violations)
		}
		if violations[0].Table != TableForbiddenCommands || violations[0].Pattern != "rm" {
			t.Errorf("Expected forbidden rm violation first, got %v", violations[0])
		}
		if violations[1].Table != TableDangerousPatterns {
			t.Errorf("Expected dangerous violation second, got %v", violations[1])
		}
	})

	t.Run("dryrun copy is exempt from dangerous table", func(t *testing.T) {
		violations := v.ValidateOutput("$ cp --dryrun s3://a s3://b")

		for _, violation := range violations {
			if violation.Table == TableDangerousPatterns {
				t.Errorf("Expected no dangerous violation for dryrun copy, got %v", violation)
			}
		}
	})

	t.Run("plain copy trips dangerous table", func(t *testing.T) {
		violations := v.ValidateOutput("$ cp s3://a s3://b")

		found := false
		for _, violation := range violations {
			if violation.Table == TableDangerousPatterns && violation.Pattern == `\bcp\s+` {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected dangerous cp violation, got %v", violations)
		}
	})

	t.Run("write redirection detected", func(t *testing.T) {
		violations := v.ValidateOutput("$ aws ec2 describe-instances > instances.json")

		if len(violations) != 1 {
			t.Fatalf("Expected 1 violation, got %d: %v", len(violations), violations)
		}
		if violations[0].Table != TableWritePatterns {
			t.Errorf("Expected write violation, got %v", violations[0])
		}
	})

	t.Run("privilege escalation detected", func(t *testing.T) {
		violations := v.ValidateOutput("$ sudo systemctl status nginx")

		if len(violations) != 1 {
			t.Fatalf("Expected 1 violation, got %d: %v", len(violations), violations)
		}
		if violations[0].Pattern != `\bsudo\b` {
			t.Errorf("Expected sudo violation, got %v", violations[0])
		}
	})

	t.Run("infrastructure mutation detected", func(t *testing.T) {
		violations := v.ValidateOutput("run this bash script: terraform apply -auto-approve")

		found := false
		for _, violation := range violations {
			if violation.Pattern == `\bterraform\s+apply` {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected terraform apply violation, got %v", violations)
		}
	})

	t.Run("empty output yields nil", func(t *testing.T) {
		if violations := v.ValidateOutput(""); violations != nil {
			t.Errorf("Expected nil for empty output, got %v", violations)
		}
	})
}

func TestLooksExecutable(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"shebang", "#!/bin/bash\necho hi", true},
		{"aws invocation", "aws ec2 describe-instances", true},
		{"shell prompt", "$ ls -la", true},
		{"bash mention", "Run this in bash", true},
		{"sh -c", "sh -c 'true'", true},
		{"prose", "Your costs increased 12% month over month.", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksExecutable(tt.output); got != tt.want {
				t.Errorf("LooksExecutable(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}

func TestIsReadOnly(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		command string
		want    bool
	}{
		{"describe-instances", true},
		{"describe-instances --region us-east-1", true},
		{"list-buckets", true},
		{"get-cost-and-usage --granularity MONTHLY", true},
		{"ls", true},
		{"ls s3://bucket", true},
		{"sync --dryrun s3://a s3://b", true},
		{"sync s3://a s3://b", false},
		{"terminate-instances", false},
		{"delete-bucket", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			if got := v.IsReadOnly(tt.command); got != tt.want {
				t.Errorf("IsReadOnly(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}
