package git

import (
	"context"
	"path/filepath"
	"time"

	"github.com/worktree-io/worktree/exec"
)

// RemoteOperations defines the network operations performed on a cached bare
// repository. The default implementation shells out to the git CLI so the
// user's credential helpers and SSH configuration apply; tests substitute
// their own implementation to count clones or inject failures.
type RemoteOperations interface {
	// CloneBare creates a bare repository at path whose origin is url and
	// fetches every branch into refs/remotes/origin/*. No local branches
	// are created.
	CloneBare(ctx context.Context, url, path string) error

	// Fetch refreshes refs/remotes/origin/* in the bare repository at path,
	// pruning branches deleted upstream.
	Fetch(ctx context.Context, path string) error

	// UpdateRemoteHead records the remote's default branch as
	// refs/remotes/origin/HEAD.
	UpdateRemoteHead(ctx context.Context, path string) error
}

// OpsOption configures the git CLI backed operations.
type OpsOption func(*opsConfig)

type opsConfig struct {
	executor exec.Executor
	timeout  time.Duration
}

// WithExecutor sets the executor used to run git. It is cloned per call.
func WithExecutor(e exec.Executor) OpsOption {
	return func(c *opsConfig) {
		c.executor = e
	}
}

// WithCommandTimeout bounds every git invocation. Zero disables the bound.
func WithCommandTimeout(d time.Duration) OpsOption {
	return func(c *opsConfig) {
		c.timeout = d
	}
}

func newOpsConfig(opts []OpsOption) *opsConfig {
	c := &opsConfig{
		executor: exec.New(exec.WithInheritEnv(), exec.WithNonInteractive()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// git returns a fresh git command bound to dir and ctx.
func (c *opsConfig) git(ctx context.Context, dir string) exec.Executor {
	cmd := exec.NewWrapper(c.executor.Clone(), "git").WithContext(ctx)
	if dir != "" {
		cmd = cmd.WithDir(dir)
	}
	if c.timeout > 0 {
		cmd = cmd.WithTimeout(c.timeout)
	}
	return cmd
}

// cliRemoteOps implements RemoteOperations with the git CLI.
type cliRemoteOps struct {
	cfg *opsConfig
}

// NewRemoteOperations returns the git CLI implementation of RemoteOperations.
func NewRemoteOperations(opts ...OpsOption) RemoteOperations {
	return &cliRemoteOps{cfg: newOpsConfig(opts)}
}

// CloneBare runs init --bare, remote add and fetch. This leaves every remote
// branch under refs/remotes/origin/ so issue branches can later be told
// apart from default-branch starts.
func (o *cliRemoteOps) CloneBare(ctx context.Context, url, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return wrapError(err, "failed to resolve clone path")
	}

	if _, err := o.cfg.git(ctx, filepath.Dir(abs)).Run("init", "--bare", "--quiet", abs); err != nil {
		return mapExecError(err, "failed to initialize bare repository")
	}
	if _, err := o.cfg.git(ctx, abs).Run("remote", "add", DefaultRemote, url); err != nil {
		return mapExecError(err, "failed to add remote")
	}
	if _, err := o.cfg.git(ctx, abs).Run("fetch", "--quiet", DefaultRemote); err != nil {
		return mapExecError(err, "failed to fetch from remote")
	}
	return nil
}

// Fetch runs fetch --prune against origin.
func (o *cliRemoteOps) Fetch(ctx context.Context, path string) error {
	if _, err := o.cfg.git(ctx, path).Run("fetch", "--quiet", "--prune", DefaultRemote); err != nil {
		return mapExecError(err, "failed to fetch from remote")
	}
	return nil
}

// UpdateRemoteHead runs remote set-head --auto, which asks the remote for
// its HEAD.
func (o *cliRemoteOps) UpdateRemoteHead(ctx context.Context, path string) error {
	if _, err := o.cfg.git(ctx, path).Run("remote", "set-head", DefaultRemote, "--auto"); err != nil {
		return mapExecError(err, "failed to update remote HEAD")
	}
	return nil
}
