package hooks

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"time"

	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/exec"
	"github.com/worktree-io/worktree/logging"
)

// DefaultTimeout bounds a single hook run.
const DefaultTimeout = 10 * time.Minute

// DefaultShell runs rendered scripts.
const DefaultShell = "sh"

// Runner executes hooks.
type Runner struct {
	shell   string
	timeout time.Duration
	stdout  io.Writer
	stderr  io.Writer
	logger  *logging.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell sets the interpreter the script file is passed to. An empty
// shell keeps DefaultShell.
func WithShell(shell string) Option {
	return func(r *Runner) {
		if shell != "" {
			r.shell = shell
		}
	}
}

// WithTimeout bounds each run. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithStdout sets where the script's standard output is streamed.
func WithStdout(w io.Writer) Option {
	return func(r *Runner) {
		r.stdout = w
	}
}

// WithStderr sets where the script's standard error is streamed.
func WithStderr(w io.Writer) Option {
	return func(r *Runner) {
		r.stderr = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner. Output is streamed to the process's own
// stdout and stderr unless redirected.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		shell:   DefaultShell,
		timeout: DefaultTimeout,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNopLogger()
	}
	return r
}

// Run renders script with hctx and executes it in the worktree directory.
// An empty script is Skipped. Failures of any kind are reported in the
// Outcome; Run never returns an error.
func (r *Runner) Run(ctx context.Context, name, script string, hctx Context) Outcome {
	if script == "" {
		return Outcome{Hook: name, Status: Skipped}
	}

	logger := r.logger.WithOperation(logging.OpHook).With("hook", name)
	rendered := Render(script, hctx.Vars())

	file, err := writeScript(rendered)
	if err != nil {
		return r.warn(ctx, logger, Outcome{Hook: name, ExitCode: -1,
			Err: errors.Wrap(err, errors.CodeExecutionFailed, "failed to write hook script")})
	}
	defer os.Remove(file)

	cmd := exec.New(exec.WithInheritEnv(), exec.WithStdout(r.stdout), exec.WithStderr(r.stderr)).
		WithPassthrough().
		WithContext(ctx).
		WithDir(hctx.WorktreePath).
		WithEnv(hctx.env(name)).
		WithTimeout(r.timeout)

	start := time.Now()
	res, err := cmd.Run(r.shell, file)
	logging.LogOperation(ctx, logger, logging.OpHook, time.Since(start), err)

	if err == nil {
		return Outcome{Hook: name, Status: Succeeded, ExitCode: res.ExitCode}
	}

	out := Outcome{Hook: name, ExitCode: -1}
	var execErr *exec.ExecError
	if stderrors.As(err, &execErr) {
		out.ExitCode = execErr.ExitCode
		out.TimedOut = execErr.TimedOut
	}

	switch {
	case out.TimedOut:
		out.Err = errors.Wrapf(err, errors.CodeTimeout, "hook %s timed out after %s", name, r.timeout)
	case out.ExitCode > 0:
		out.Err = errors.Wrapf(err, errors.CodeExecutionFailed, "hook %s exited with status %d", name, out.ExitCode)
	default:
		out.Err = errors.Wrapf(err, errors.CodeExecutionFailed, "hook %s could not be run", name)
	}
	return r.warn(ctx, logger, out)
}

func (r *Runner) warn(ctx context.Context, logger *logging.Logger, out Outcome) Outcome {
	out.Status = Warning
	logger.Warn(ctx, "hook failed", "exit_code", out.ExitCode, "timed_out", out.TimedOut, "error", out.Err)
	return out
}

// writeScript stores the rendered script in a temporary file.
func writeScript(script string) (string, error) {
	f, err := os.CreateTemp("", "worktree-hook-*.sh")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
