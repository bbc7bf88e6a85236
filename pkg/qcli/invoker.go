package qcli

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/entrhq/qbridge/pkg/config"
)

// toolPathDirs are the install directories the child's PATH must include so
// both the Q CLI and the AWS CLI resolve regardless of the host's shell setup.
var toolPathDirs = []string{"/root/.local/bin", "/usr/local/bin", "/usr/bin", "/bin"}

// Invoker constructs the child process for one CLI attempt: a literal,
// pre-tokenized argument vector (never a shell) and a controlled environment
// derived from the host's.
type Invoker struct {
	path       string
	profile    string
	region     string
	workingDir string
}

// NewInvoker builds an Invoker from the CLI section of the configuration.
func NewInvoker(cfg config.CLIConfig) *Invoker {
	return &Invoker{
		path:       cfg.Path,
		profile:    cfg.Profile,
		region:     cfg.Region,
		workingDir: cfg.WorkingDir,
	}
}

// Path returns the configured executable path.
func (inv *Invoker) Path() string {
	return inv.path
}

// Command returns the exec.Cmd for a single attempt. The prompt travels as
// one argv element, so no shell metacharacter in it can ever be interpreted.
func (inv *Invoker) Command(ctx context.Context, prompt, model string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, inv.path,
		"chat",
		"--model", model,
		"--no-interactive",
		"--trust-all-tools",
		prompt,
	)
	cmd.Env = buildEnv(os.Environ(), inv.profile, inv.region)
	if inv.workingDir != "" {
		cmd.Dir = inv.workingDir
	}
	return cmd
}

// buildEnv returns base with the invocation overrides applied: stable HOME
// and USER for the root container, AWS identity and region, pager and
// auto-prompt disabled so the CLI never blocks on a TTY, and the tool
// install directories prepended to PATH.
func buildEnv(base []string, profile, region string) []string {
	env := make([]string, len(base))
	copy(env, base)

	set := func(key, value string) {
		prefix := key + "="
		for i, kv := range env {
			if strings.HasPrefix(kv, prefix) {
				env[i] = prefix + value
				return
			}
		}
		env = append(env, prefix+value)
	}
	get := func(key string) string {
		prefix := key + "="
		for _, kv := range env {
			if strings.HasPrefix(kv, prefix) {
				return kv[len(prefix):]
			}
		}
		return ""
	}

	set("HOME", "/root")
	set("USER", "root")
	if profile != "" {
		set("AWS_PROFILE", profile)
	}
	if region != "" {
		set("AWS_REGION", region)
	}
	set("AWS_CLI_AUTO_PROMPT", "off")
	set("AWS_PAGER", "")
	set("PATH", ensureToolPath(get("PATH")))

	return env
}

// ensureToolPath prepends any tool directory missing from path, preserving
// the declared order and the existing entries.
func ensureToolPath(path string) string {
	existing := make(map[string]bool)
	for _, dir := range strings.Split(path, ":") {
		existing[dir] = true
	}

	var missing []string
	for _, dir := range toolPathDirs {
		if !existing[dir] {
			missing = append(missing, dir)
		}
	}
	if len(missing) == 0 {
		return path
	}
	if path == "" {
		return strings.Join(missing, ":")
	}
	return strings.Join(missing, ":") + ":" + path
}
