// Package shell implements the bash tool of spec §4.2: OS shell execution
// with an enforced timeout and a working-directory override.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"grok-cli/internal/logging"
	"grok-cli/internal/tools"
)

const (
	defaultTimeout = 30 * time.Second
	maxTimeout     = 5 * time.Minute
	maxOutputBytes = 64 * 1024
)

// BashTool returns a tool that runs a command through /bin/sh -c,
// capturing combined stdout/stderr and truncating past maxOutputBytes.
func BashTool() *tools.Tool {
	return &tools.Tool{
		Name:        "bash",
		Description: "Run a shell command and return its combined stdout/stderr",
		Category:    tools.CategoryShell,
		Priority:    40,
		Schema: tools.ToolSchema{
			Required: []string{"command"},
			Properties: map[string]tools.Property{
				"command":   {Type: "string", Description: "The shell command to run"},
				"cwd":       {Type: "string", Description: "Working directory for the command, default current"},
				"timeoutMs": {Type: "integer", Description: "Timeout in milliseconds, default 30000, max 300000"},
			},
		},
		Execute: executeBash,
	}
}

func executeBash(ctx context.Context, args map[string]any) (string, error) {
	command, _ := args["command"].(string)
	if command == "" {
		return "", fmt.Errorf("command is required")
	}
	cwd, _ := args["cwd"].(string)

	timeout := defaultTimeout
	if ms, ok := intArg(args["timeoutMs"]); ok && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
		if timeout > maxTimeout {
			timeout = maxTimeout
		}
	}

	logging.ToolsDebug("bash: command=%q cwd=%q timeout=%s", command, cwd, timeout)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", command)
	if cwd != "" {
		cmd.Dir = cwd
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()

	output := out.String()
	truncated := false
	if len(output) > maxOutputBytes {
		output = output[:maxOutputBytes]
		truncated = true
	}
	if truncated {
		output += "\n... (output truncated)"
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return output, &tools.SelfCorrectError{
			Message:            fmt.Sprintf("command timed out after %s", timeout),
			OriginalTool:       "bash",
			SuggestedFallbacks: []string{"bash"},
			Hint:               "pass a longer timeoutMs, or split the command into smaller steps",
		}
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return output, fmt.Errorf("command exited with status %d: %s", exitErr.ExitCode(), output)
		}
		return output, fmt.Errorf("failed to run command: %w", runErr)
	}

	logging.ToolsLog("bash completed: %q (%d bytes)", command, len(output))
	return output, nil
}

func intArg(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
