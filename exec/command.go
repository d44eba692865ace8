package exec

import (
	"context"
	"errors"
	"io"
	"os"
	osexec "os/exec"
	"time"
)

// Command is the concrete implementation of the Executor interface.
// A Command is not safe for concurrent use; Clone it per goroutine.
type Command struct {
	config *config
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
}

// New creates a new Command with the given options.
func New(opts ...Option) *Command {
	cmd := &Command{
		config: newConfig(),
		ctx:    context.Background(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(cmd)
	}

	return cmd
}

// WithEnv sets environment variables for the command.
func (c *Command) WithEnv(env map[string]string) Executor {
	for k, v := range env {
		c.config.localEnv[k] = v
	}
	return c
}

// WithDir sets the working directory for the command.
func (c *Command) WithDir(dir string) Executor {
	c.config.localDir = dir
	return c
}

// WithContext sets the context for the command.
func (c *Command) WithContext(ctx context.Context) Executor {
	c.ctx = ctx
	return c
}

// WithTimeout sets a timeout for the command.
func (c *Command) WithTimeout(timeout time.Duration) Executor {
	c.config.localTimeout = &timeout
	return c
}

// WithInheritEnv enables environment inheritance.
func (c *Command) WithInheritEnv() Executor {
	val := true
	c.config.localInheritEnv = &val
	return c
}

// WithNonInteractive disables prompts for the command.
func (c *Command) WithNonInteractive() Executor {
	val := true
	c.config.localNonInteractive = &val
	return c
}

// WithStdout sets the stdout writer.
func (c *Command) WithStdout(w io.Writer) Executor {
	c.stdout = w
	return c
}

// WithStderr sets the stderr writer.
func (c *Command) WithStderr(w io.Writer) Executor {
	c.stderr = w
	return c
}

// WithPassthrough enables output passthrough.
func (c *Command) WithPassthrough() Executor {
	val := true
	c.config.localPassthrough = &val
	return c
}

// Run executes args[0] with the remaining arguments and waits for it. A
// non-zero exit, a start failure or a timeout is returned as *ExecError
// alongside the partial Result.
func (c *Command) Run(args ...string) (*Result, error) {
	defer c.config.resetLocal()

	if len(args) == 0 {
		return nil, &ExecError{Command: args, ExitCode: -1, Err: osexec.ErrNotFound}
	}

	ctx := c.ctx
	if timeout := c.config.effectiveTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := c.build(ctx, args)

	var out streams
	if c.config.effectivePassthrough() {
		out.attach(cmd, c.stdout, c.stderr)
	} else {
		out.attach(cmd, nil, nil)
	}

	err := cmd.Run()
	// ProcessState is nil when the process never started; ExitCode reports
	// -1 in that case.
	result := out.result(cmd.ProcessState.ExitCode())
	if err == nil {
		return result, nil
	}

	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
	if timedOut {
		result.ExitCode = -1
	}
	return result, &ExecError{
		Command:  args,
		ExitCode: result.ExitCode,
		TimedOut: timedOut,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		Err:      err,
	}
}

func (c *Command) build(ctx context.Context, args []string) *osexec.Cmd {
	cmd := osexec.CommandContext(ctx, args[0], args[1:]...)
	// A grandchild holding stdout open must not block Run past cancellation.
	cmd.WaitDelay = 2 * time.Second
	cmd.Dir = c.config.effectiveDir()

	if c.config.effectiveInheritEnv() {
		cmd.Env = os.Environ()
	}
	for k, v := range c.config.effectiveEnv() {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	return cmd
}

// Clone creates a copy of the executor with the same global configuration.
func (c *Command) Clone() Executor {
	return &Command{
		config: c.config.clone(),
		ctx:    c.ctx,
		stdout: c.stdout,
		stderr: c.stderr,
	}
}
