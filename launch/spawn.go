package launch

import (
	"context"
	"os"
	osexec "os/exec"

	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/internal/pathenv"
	"github.com/worktree-io/worktree/logging"
)

// Spawner starts actions without waiting for them.
type Spawner struct {
	logger *logging.Logger
	start  func(*osexec.Cmd) error
}

// SpawnerOption configures a Spawner.
type SpawnerOption func(*Spawner)

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) SpawnerOption {
	return func(s *Spawner) {
		s.logger = logger
	}
}

// NewSpawner creates a Spawner.
func NewSpawner(opts ...SpawnerOption) *Spawner {
	s := &Spawner{start: startDetached}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	return s
}

// Spawn starts the action's program detached from the current process. The
// program is looked up in, and run with, the augmented PATH.
func (s *Spawner) Spawn(ctx context.Context, a Action) error {
	path := pathenv.Current()

	program, err := pathenv.LookPath(a.Program, path)
	if err != nil {
		err = errors.Wrapf(err, errors.CodeExecutionFailed, "failed to start %s", a.Kind)
		return errors.WithContext(err, "command", a.String())
	}

	cmd := osexec.Command(program, a.Args...)
	cmd.Args[0] = a.Program
	cmd.Dir = a.Dir
	cmd.Env = append(os.Environ(), "PATH="+path)

	if err := s.start(cmd); err != nil {
		err = errors.Wrapf(err, errors.CodeExecutionFailed, "failed to start %s", a.Kind)
		return errors.WithContext(err, "command", a.String())
	}

	s.logger.WithOperation(logging.OpLaunch).Info(ctx, "started", "kind", a.Kind.String(), "command", a.String())
	return nil
}

func startDetached(cmd *osexec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
