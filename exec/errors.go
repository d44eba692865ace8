package exec

import (
	"fmt"
	"strings"
)

// ExecError represents an error that occurred during command execution.
// It includes the exit code, the command that was run, and any captured output.
type ExecError struct {
	// Command is the full command that was executed (including arguments)
	Command []string

	// ExitCode is the exit code returned by the command, -1 if the command
	// could not be started or was killed
	ExitCode int

	// TimedOut is set when the command was killed because its timeout or
	// context deadline expired
	TimedOut bool

	// Stdout is the captured standard output
	Stdout string

	// Stderr is the captured standard error
	Stderr string

	// Err is the underlying error from the execution
	Err error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("command %v timed out", e.Command)
	}
	if e.Err != nil {
		return fmt.Sprintf("command %v failed with exit code %d: %v", e.Command, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("command %v failed with exit code %d", e.Command, e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// Detail returns the most useful single line describing the failure. For
// tools like git that is the last "fatal:" or "error:" line; otherwise the
// last non-empty stderr line that is not a "hint:", falling back to the
// underlying error.
func (e *ExecError) Detail() string {
	var fallback string
	lines := strings.Split(strings.TrimSpace(e.Stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "", strings.HasPrefix(line, "hint:"):
			continue
		case strings.HasPrefix(line, "fatal:"), strings.HasPrefix(line, "error:"):
			return line
		case fallback == "":
			fallback = line
		}
	}
	if fallback != "" {
		return fallback
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.ExitCode)
}
