package git

import (
	"context"
	"strings"
)

// WorktreeOperations defines operations for managing linked worktrees of a
// repository. The default implementation uses the git CLI, since go-git
// cannot create linked worktrees.
type WorktreeOperations interface {
	// Add creates a new worktree at path checked out at ref. When
	// opts.CreateBranch is set, a new branch is created at ref.
	Add(ctx context.Context, repoPath, path, ref string, opts AddOptions) error

	// List returns every worktree registered with the repository, including
	// the main entry.
	List(ctx context.Context, repoPath string) ([]WorktreeInfo, error)

	// Prune removes registrations of worktrees whose directories are gone.
	Prune(ctx context.Context, repoPath string) error

	// SetUpstream sets the upstream of branch to upstream, run from inside
	// the worktree at path.
	SetUpstream(ctx context.Context, path, branch, upstream string) error
}

// cliWorktreeOps is the default implementation of WorktreeOperations.
type cliWorktreeOps struct {
	cfg *opsConfig
}

// NewWorktreeOperations returns the git CLI implementation of WorktreeOperations.
func NewWorktreeOperations(opts ...OpsOption) WorktreeOperations {
	return &cliWorktreeOps{cfg: newOpsConfig(opts)}
}

// Add creates a new worktree using 'git worktree add'.
func (w *cliWorktreeOps) Add(ctx context.Context, repoPath, path, ref string, opts AddOptions) error {
	args := []string{"worktree", "add", "--quiet"}

	if opts.CreateBranch != "" {
		if opts.Track {
			args = append(args, "--track")
		} else {
			args = append(args, "--no-track")
		}
		args = append(args, "-b", opts.CreateBranch)
	}

	args = append(args, path)
	if ref != "" {
		args = append(args, ref)
	}

	if _, err := w.cfg.git(ctx, repoPath).Run(args...); err != nil {
		return mapExecError(err, "failed to add worktree")
	}
	return nil
}

// List returns information about all worktrees using 'git worktree list --porcelain'.
func (w *cliWorktreeOps) List(ctx context.Context, repoPath string) ([]WorktreeInfo, error) {
	result, err := w.cfg.git(ctx, repoPath).Run("worktree", "list", "--porcelain")
	if err != nil {
		return nil, mapExecError(err, "failed to list worktrees")
	}
	return parseWorktreeListPorcelain(result.Stdout), nil
}

// Prune removes stale worktree data using 'git worktree prune'.
func (w *cliWorktreeOps) Prune(ctx context.Context, repoPath string) error {
	if _, err := w.cfg.git(ctx, repoPath).Run("worktree", "prune"); err != nil {
		return mapExecError(err, "failed to prune worktrees")
	}
	return nil
}

// SetUpstream runs 'git branch --set-upstream-to'.
func (w *cliWorktreeOps) SetUpstream(ctx context.Context, path, branch, upstream string) error {
	if _, err := w.cfg.git(ctx, path).Run("branch", "--quiet", "--set-upstream-to="+upstream, branch); err != nil {
		return mapExecError(err, "failed to set upstream")
	}
	return nil
}

// parseWorktreeListPorcelain parses the output of 'git worktree list --porcelain'.
//
// The porcelain format looks like:
//
//	worktree /path/to/bare
//	bare
//
//	worktree /path/to/bare/issue-7
//	HEAD abc123def456...
//	branch refs/heads/issue-7
//
//	worktree /path/to/gone
//	HEAD def456abc123...
//	detached
//	prunable gitdir file points to non-existent location
//
// Locked worktrees have a "locked" line, optionally followed by a reason.
func parseWorktreeListPorcelain(output string) []WorktreeInfo {
	var worktrees []WorktreeInfo
	var current *WorktreeInfo

	flush := func() {
		if current != nil {
			worktrees = append(worktrees, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimRight(line, "\r")

		if line == "" {
			flush()
			continue
		}

		if strings.HasPrefix(line, "worktree ") {
			flush()
			current = &WorktreeInfo{Path: strings.TrimPrefix(line, "worktree ")}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "HEAD "):
			current.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "bare":
			current.Bare = true
		case line == "detached":
			current.Branch = ""
		case line == "locked" || strings.HasPrefix(line, "locked "):
			current.IsLocked = true
			current.Reason = strings.TrimSpace(strings.TrimPrefix(line, "locked"))
		case line == "prunable" || strings.HasPrefix(line, "prunable "):
			current.Prunable = true
		}
	}
	flush()

	return worktrees
}
