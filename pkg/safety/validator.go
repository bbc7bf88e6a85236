// Package safety enforces the read-only policy for prompts sent to the
// Amazon Q CLI and audits the responses it returns.
//
// Prompt validation is blocking: a prompt that names a forbidden mutating
// operation is rejected before any process is spawned. Output validation is
// advisory: CLI responses are analysis text that may legitimately mention
// mutating commands, so matches are reported for logging but never block.
package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/qbridge/pkg/config"
)

// Table identifiers carried on Violation so log lines name the rule source.
const (
	TableForbiddenCommands = "forbidden_commands"
	TableDangerousPatterns = "dangerous_patterns"
	TableWritePatterns     = "write_patterns"
)

// flagPattern strips CLI flags and their values from a prompt before
// forbidden-command matching, so parameters like "--start-time" do not
// trip the "start-" rule.
var flagPattern = regexp.MustCompile(`--[\w-]+(?:\s+[^\s-][^\s]*)?`)

// executableHints are substrings whose presence suggests CLI output contains
// runnable commands rather than prose. Output validation only applies when
// one of these is present.
var executableHints = []string{"#!/", "aws ", "$ ", "bash", "sh -c"}

// ViolationError reports a prompt that failed read-only validation.
type ViolationError struct {
	Pattern     string
	Description string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("forbidden operation detected in prompt: %s", e.Pattern)
}

// Violation describes a single policy rule match found in CLI output.
type Violation struct {
	Table       string
	Pattern     string
	Description string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.Table, v.Pattern, v.Description)
}

type forbiddenRule struct {
	rule config.PatternRule

	// promptRes match actual CLI invocations in prompts: an aws service
	// subcommand, or the verb standing alone at a word boundary.
	promptRes []*regexp.Regexp

	// outputRes match the looser script forms found in CLI responses.
	outputRes []*regexp.Regexp
}

type regexRule struct {
	rule   config.PatternRule
	re     *regexp.Regexp
	exempt *regexp.Regexp
}

type globRule struct {
	rule config.PatternRule
	g    glob.Glob
}

// Validator applies the configured pattern tables to prompts and outputs.
// It is safe for concurrent use once constructed.
type Validator struct {
	cfg       config.SafetyConfig
	forbidden []forbiddenRule
	dangerous []regexRule
	write     []regexRule
	readOnly  []globRule
}

// NewValidator compiles the pattern tables in cfg into a Validator.
func NewValidator(cfg config.SafetyConfig) (*Validator, error) {
	v := &Validator{cfg: cfg}

	for _, rule := range cfg.ForbiddenCommands {
		verb := regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(rule.Pattern)))
		if verb == "" {
			return nil, fmt.Errorf("forbidden command pattern is empty")
		}

		prompts, err := compileAll(
			`\baws\s+\w+\s+`+verb,
			`^`+verb+`\b`,
			`\s`+verb+`\b`,
		)
		if err != nil {
			return nil, fmt.Errorf("forbidden command %q: %w", rule.Pattern, err)
		}

		outputs, err := compileAll(
			`\baws\s+\S*`+verb,
			`\b`+verb+`\b`,
		)
		if err != nil {
			return nil, fmt.Errorf("forbidden command %q: %w", rule.Pattern, err)
		}

		v.forbidden = append(v.forbidden, forbiddenRule{
			rule:      rule,
			promptRes: prompts,
			outputRes: outputs,
		})
	}

	var err error
	if v.dangerous, err = compileRegexRules(cfg.DangerousPatterns); err != nil {
		return nil, fmt.Errorf("dangerous pattern: %w", err)
	}
	if v.write, err = compileRegexRules(cfg.WritePatterns); err != nil {
		return nil, fmt.Errorf("write pattern: %w", err)
	}

	for _, rule := range cfg.ReadOnlyCommands {
		g, err := glob.Compile(strings.ToLower(rule.Pattern))
		if err != nil {
			return nil, fmt.Errorf("read-only pattern %q: %w", rule.Pattern, err)
		}
		v.readOnly = append(v.readOnly, globRule{rule: rule, g: g})
	}

	return v, nil
}

func compileAll(patterns ...string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		res = append(res, re)
	}
	return res, nil
}

func compileRegexRules(rules []config.PatternRule) ([]regexRule, error) {
	compiled := make([]regexRule, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", rule.Pattern, err)
		}
		rr := regexRule{rule: rule, re: re}
		if rule.Exempt != "" {
			ex, err := regexp.Compile(rule.Exempt)
			if err != nil {
				return nil, fmt.Errorf("%q exempt: %w", rule.Pattern, err)
			}
			rr.exempt = ex
		}
		compiled = append(compiled, rr)
	}
	return compiled, nil
}

// ValidatePrompt rejects prompts that are empty, oversized, or that name a
// forbidden mutating operation. CLI flags and their values are stripped
// before matching so "--start-time" style parameters never trip verb rules.
// A policy match is returned as *ViolationError.
func (v *Validator) ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt must be a non-empty string")
	}
	if max := v.cfg.EffectiveMaxPromptLength(); len(prompt) > max {
		return fmt.Errorf("prompt too long: %d characters (limit %d)", len(prompt), max)
	}

	cleaned := flagPattern.ReplaceAllString(strings.ToLower(prompt), "")

	for _, fr := range v.forbidden {
		for _, re := range fr.promptRes {
			if re.MatchString(cleaned) {
				return &ViolationError{
					Pattern:     fr.rule.Pattern,
					Description: fr.rule.Description,
				}
			}
		}
	}
	return nil
}

// ValidateOutput audits CLI output for policy matches and returns every rule
// that fired. It never blocks: responses are analysis text, and a mention of
// "terminate-instances" in a recommendation is not an execution. Callers log
// the violations and continue.
//
// Output that does not look executable (see LooksExecutable) yields nil.
func (v *Validator) ValidateOutput(output string) []Violation {
	if output == "" || !LooksExecutable(output) {
		return nil
	}

	lowered := strings.ToLower(output)
	var violations []Violation

	for _, fr := range v.forbidden {
		for _, re := range fr.outputRes {
			if re.MatchString(lowered) {
				violations = append(violations, Violation{
					Table:       TableForbiddenCommands,
					Pattern:     fr.rule.Pattern,
					Description: fr.rule.Description,
				})
				break
			}
		}
	}

	for _, rr := range v.dangerous {
		if matchesWithExempt(rr, lowered) {
			violations = append(violations, Violation{
				Table:       TableDangerousPatterns,
				Pattern:     rr.rule.Pattern,
				Description: rr.rule.Description,
			})
		}
	}

	for _, rr := range v.write {
		if matchesWithExempt(rr, lowered) {
			violations = append(violations, Violation{
				Table:       TableWritePatterns,
				Pattern:     rr.rule.Pattern,
				Description: rr.rule.Description,
			})
		}
	}

	return violations
}

// matchesWithExempt reports whether rr's pattern matches text at a position
// not covered by its exempt pattern. Go's regexp has no negative lookahead,
// so exemptions are checked per match position instead.
func matchesWithExempt(rr regexRule, text string) bool {
	if rr.exempt == nil {
		return rr.re.MatchString(text)
	}
	for _, loc := range rr.re.FindAllStringIndex(text, -1) {
		ex := rr.exempt.FindStringIndex(text[loc[0]:])
		if ex == nil || ex[0] != 0 {
			return true
		}
	}
	return false
}

// LooksExecutable reports whether output appears to contain runnable
// commands (shebangs, aws invocations, shell prompts) rather than prose.
func LooksExecutable(output string) bool {
	lowered := strings.ToLower(output)
	for _, hint := range executableHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}

// IsReadOnly reports whether a candidate command matches the read-only
// allow-list. Globs are tried against the full command and against its
// first token, so "ls" covers "ls s3://bucket" while "sync --dryrun*"
// requires the flag to be present.
func (v *Validator) IsReadOnly(command string) bool {
	candidate := strings.ToLower(strings.TrimSpace(command))
	if candidate == "" {
		return false
	}

	token := candidate
	if i := strings.IndexByte(candidate, ' '); i >= 0 {
		token = candidate[:i]
	}

	for _, gr := range v.readOnly {
		if gr.g.Match(candidate) || gr.g.Match(token) {
			return true
		}
	}
	return false
}
