package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// RunCommandTool executes a shell command with a bounded timeout. Timeouts
// and execution failures come back as result text so the model can react.
type RunCommandTool struct {
	timeout         time.Duration
	allowedCommands []string
}

// NewRunCommandTool creates a RunCommandTool. A non-positive timeout falls
// back to 15 seconds. An empty allowlist permits any command.
func NewRunCommandTool(timeout time.Duration, allowedCommands []string) *RunCommandTool {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RunCommandTool{timeout: timeout, allowedCommands: allowedCommands}
}

func (t *RunCommandTool) Name() string { return "run_terminal_command" }

func (t *RunCommandTool) Description() string {
	return "Run a shell command."
}

func (t *RunCommandTool) Parameters() Schema {
	return ObjectSchema(map[string]interface{}{
		"command": map[string]interface{}{"type": "string"},
	}, "command")
}

func (t *RunCommandTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	command := stringArg(args, "command")

	if !isCommandAllowed(command, t.allowedCommands) {
		return fmt.Sprintf("Error: Command '%s' is not in the list of allowed commands.", command), nil
	}

	cmdCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if cmdCtx.Err() == context.DeadlineExceeded {
		return "Error: Command timed out.", nil
	}
	// A non-zero exit is still a result the model should see; only failures
	// to run the command at all are reported as execution errors.
	if err != nil {
		if _, isExit := err.(*exec.ExitError); !isExit {
			return fmt.Sprintf("Error executing command: %v", err), nil
		}
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += fmt.Sprintf("\nSTDERR:\n%s", stderr.String())
	}
	output = strings.TrimSpace(output)
	if output == "" {
		return "(No output)", nil
	}
	return output, nil
}
