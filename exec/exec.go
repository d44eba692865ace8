package exec

import (
	"context"
	"io"
	"time"
)

// Executor runs external commands. Settings applied through the With*
// methods are local to the next Run call and reset afterwards.
type Executor interface {
	// WithEnv sets environment variables for the command.
	WithEnv(env map[string]string) Executor

	// WithDir sets the working directory for the command.
	WithDir(dir string) Executor

	// WithContext sets the context for the command.
	// The command is killed if the context is canceled.
	WithContext(ctx context.Context) Executor

	// WithTimeout bounds the command's run time. Zero means no bound.
	WithTimeout(timeout time.Duration) Executor

	// WithInheritEnv inherits environment variables from the parent process.
	WithInheritEnv() Executor

	// WithNonInteractive prevents the command from prompting for input and
	// forces plain, untranslated output. Used for git so credential prompts
	// fail fast and stderr can be matched reliably.
	WithNonInteractive() Executor

	// WithStdout sets the writer used when passthrough is enabled.
	WithStdout(w io.Writer) Executor

	// WithStderr sets the writer used when passthrough is enabled.
	WithStderr(w io.Writer) Executor

	// WithPassthrough streams output to the configured writers while also
	// capturing it.
	WithPassthrough() Executor

	// Run executes the command with the given arguments.
	Run(args ...string) (*Result, error)

	// Clone creates a copy of the executor with the same global configuration.
	Clone() Executor
}

// Result represents the result of a command execution.
type Result struct {
	// Stdout is the captured standard output
	Stdout string

	// Stderr is the captured standard error
	Stderr string

	// Combined is stdout and stderr interleaved in write order
	Combined string

	// ExitCode is the exit code returned by the command, or -1 if it never
	// exited normally
	ExitCode int
}
