package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultMaxPromptLength caps the prompt size accepted for CLI invocation.
const DefaultMaxPromptLength = 10000

// PatternRule pairs a matching pattern with a human-readable description.
// The description surfaces in violation errors and logs so an operator can
// tell which rule fired.
type PatternRule struct {
	Pattern     string `yaml:"pattern" json:"pattern"`
	Description string `yaml:"description" json:"description"`

	// Exempt optionally holds a regular expression that suppresses a match.
	// When the rule's Pattern matches at a position where Exempt also
	// matches, the rule does not fire. Used for carve-outs such as
	// "cp --dryrun".
	Exempt string `yaml:"exempt,omitempty" json:"exempt,omitempty"`
}

// SafetyConfig holds the pattern tables that enforce the read-only policy.
//
// Four tables drive validation:
//   - ForbiddenCommands: AWS CLI verb prefixes that must never appear, in
//     prompts (blocking) or in CLI output scripts (advisory)
//   - ReadOnlyCommands: glob patterns naming verbs considered read-only
//   - DangerousPatterns: regular expressions for shell idioms that mutate
//     state (rm, sudo, terraform apply, ...)
//   - WritePatterns: regular expressions for file-write idioms (redirection,
//     tee, ...)
//
// All tables ship with defaults from DefaultSafetyConfig and can be replaced
// wholesale through YAML configuration.
type SafetyConfig struct {
	ForbiddenCommands []PatternRule `yaml:"forbidden_commands" json:"forbidden_commands"`
	ReadOnlyCommands  []PatternRule `yaml:"read_only_commands" json:"read_only_commands"`
	DangerousPatterns []PatternRule `yaml:"dangerous_patterns" json:"dangerous_patterns"`
	WritePatterns     []PatternRule `yaml:"write_patterns" json:"write_patterns"`

	// MaxPromptLength caps prompt size before invocation.
	// Zero means DefaultMaxPromptLength.
	MaxPromptLength int `yaml:"max_prompt_length" json:"max_prompt_length"`
}

// DefaultSafetyConfig returns the built-in read-only policy tables.
func DefaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		ForbiddenCommands: []PatternRule{
			{Pattern: "create-", Description: "Resource creation"},
			{Pattern: "delete-", Description: "Resource deletion"},
			{Pattern: "update-", Description: "Resource updates"},
			{Pattern: "modify-", Description: "Resource modification"},
			{Pattern: "put-", Description: "Object or attribute writes"},
			{Pattern: "post-", Description: "POST-style writes"},
			{Pattern: "patch-", Description: "Partial updates"},
			{Pattern: "terminate-", Description: "Instance termination"},
			{Pattern: "stop-", Description: "Stopping resources"},
			{Pattern: "start-", Description: "Starting resources"},
			{Pattern: "reboot-", Description: "Rebooting resources"},
			{Pattern: "restart-", Description: "Restarting resources"},
			{Pattern: "associate-", Description: "Creating associations"},
			{Pattern: "disassociate-", Description: "Removing associations"},
			{Pattern: "attach-", Description: "Creating attachments"},
			{Pattern: "detach-", Description: "Removing attachments"},
			{Pattern: "enable-", Description: "Enabling features"},
			{Pattern: "disable-", Description: "Disabling features"},
			{Pattern: "activate-", Description: "Activating features"},
			{Pattern: "deactivate-", Description: "Deactivating features"},
			{Pattern: "add-", Description: "Additive writes"},
			{Pattern: "remove-", Description: "Removals"},
			{Pattern: "replace-", Description: "Replacements"},
			{Pattern: "reset-", Description: "Resets"},
			{Pattern: "restore-", Description: "Restores"},
			{Pattern: "copy-", Description: "Server-side copies"},
			{Pattern: "move-", Description: "Server-side moves"},
			{Pattern: "upload-", Description: "Uploads"},
			{Pattern: "sync", Description: "S3 sync without --dryrun"},
			{Pattern: "cp", Description: "S3 copy without --dryrun"},
			{Pattern: "mv", Description: "S3 move"},
			{Pattern: "rm", Description: "S3 delete"},
		},
		ReadOnlyCommands: []PatternRule{
			{Pattern: "describe-*", Description: "Describe operations"},
			{Pattern: "list-*", Description: "List operations"},
			{Pattern: "get-*", Description: "Get operations"},
			{Pattern: "show-*", Description: "Show operations"},
			{Pattern: "select-*", Description: "Select queries"},
			{Pattern: "query-*", Description: "Query operations"},
			{Pattern: "scan-*", Description: "Table scans"},
			{Pattern: "head-*", Description: "Head requests"},
			{Pattern: "download-*", Description: "Downloads"},
			{Pattern: "ls", Description: "S3 listing"},
			{Pattern: "sync --dryrun*", Description: "Sync dry runs"},
			{Pattern: "cp --dryrun*", Description: "Copy dry runs"},
			{Pattern: "mb --dryrun*", Description: "Bucket-creation dry runs"},
		},
		DangerousPatterns: []PatternRule{
			{Pattern: `\brm\s+`, Description: "File removal"},
			{Pattern: `\bmv\s+`, Description: "File moves"},
			{Pattern: `\bcp\s+`, Exempt: `\bcp\s+--dryrun`, Description: "File copies"},
			{Pattern: `\bchmod\s+\+x`, Description: "Making files executable"},
			{Pattern: `\bsudo\b`, Description: "Privilege escalation"},
			{Pattern: `\bcurl\s+-X\s+POST`, Description: "HTTP POST via curl"},
			{Pattern: `\bcurl\s+-X\s+PUT`, Description: "HTTP PUT via curl"},
			{Pattern: `\bcurl\s+-X\s+DELETE`, Description: "HTTP DELETE via curl"},
			{Pattern: `\bcurl\s+-X\s+PATCH`, Description: "HTTP PATCH via curl"},
			{Pattern: `\bwget\s+--post`, Description: "HTTP POST via wget"},
			{Pattern: `\bterraform\s+apply`, Description: "Terraform apply"},
			{Pattern: `\bterraform\s+destroy`, Description: "Terraform destroy"},
			{Pattern: `\bkubectl\s+apply`, Description: "Kubernetes apply"},
			{Pattern: `\bkubectl\s+delete`, Description: "Kubernetes delete"},
			{Pattern: `\bdocker\s+run\s+-d`, Description: "Detached containers"},
		},
		WritePatterns: []PatternRule{
			{Pattern: `\s>\s`, Description: "Output redirection"},
			{Pattern: `\s>>`, Description: "Append redirection"},
			{Pattern: `\btee\s+`, Description: "Write via tee"},
			{Pattern: `\becho\s+>`, Description: "Write via echo"},
			{Pattern: `\bprintf\s+>`, Description: "Write via printf"},
			{Pattern: `\bcat\s+>`, Description: "Write via cat"},
			{Pattern: `\bwrite\b`, Description: "Write keyword"},
			{Pattern: `\bmodify\b`, Description: "Modify keyword"},
		},
		MaxPromptLength: DefaultMaxPromptLength,
	}
}

// Validate checks that every table entry is non-empty and that regex and
// glob patterns compile.
func (c SafetyConfig) Validate() error {
	for i, rule := range c.ForbiddenCommands {
		if strings.TrimSpace(rule.Pattern) == "" {
			return fmt.Errorf("forbidden_commands[%d]: pattern is empty", i)
		}
	}
	for i, rule := range c.ReadOnlyCommands {
		if strings.TrimSpace(rule.Pattern) == "" {
			return fmt.Errorf("read_only_commands[%d]: pattern is empty", i)
		}
		if _, err := glob.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("read_only_commands[%d]: invalid glob %q: %w", i, rule.Pattern, err)
		}
	}
	if err := validateRegexRules("dangerous_patterns", c.DangerousPatterns); err != nil {
		return err
	}
	if err := validateRegexRules("write_patterns", c.WritePatterns); err != nil {
		return err
	}
	if c.MaxPromptLength < 0 {
		return fmt.Errorf("max_prompt_length cannot be negative")
	}
	return nil
}

func validateRegexRules(table string, rules []PatternRule) error {
	for i, rule := range rules {
		if strings.TrimSpace(rule.Pattern) == "" {
			return fmt.Errorf("%s[%d]: pattern is empty", table, i)
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("%s[%d]: invalid pattern %q: %w", table, i, rule.Pattern, err)
		}
		if rule.Exempt != "" {
			if _, err := regexp.Compile(rule.Exempt); err != nil {
				return fmt.Errorf("%s[%d]: invalid exempt pattern %q: %w", table, i, rule.Exempt, err)
			}
		}
	}
	return nil
}

// EffectiveMaxPromptLength resolves the prompt cap, falling back to the
// default when unset.
func (c SafetyConfig) EffectiveMaxPromptLength() int {
	if c.MaxPromptLength > 0 {
		return c.MaxPromptLength
	}
	return DefaultMaxPromptLength
}
