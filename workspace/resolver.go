package workspace

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/git"
	"github.com/worktree-io/worktree/git/cache"
	"github.com/worktree-io/worktree/internal/lockfile"
	"github.com/worktree-io/worktree/issue"
	"github.com/worktree-io/worktree/logging"
)

// Resolver maps issues to worktrees. It is safe for concurrent use;
// resolutions of the same issue are serialized by a file lock, so they are
// also safe across processes.
type Resolver struct {
	ops         git.WorktreeOperations
	lockTimeout time.Duration
	logger      *logging.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWorktreeOperations replaces the git CLI worktree operations.
func WithWorktreeOperations(ops git.WorktreeOperations) Option {
	return func(r *Resolver) {
		r.ops = ops
	}
}

// WithLockTimeout bounds the wait for the per-issue and config locks.
// Non-positive values keep the default, cache.DefaultLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.lockTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		lockTimeout: cache.DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ops == nil {
		r.ops = git.NewWorktreeOperations()
	}
	if r.logger == nil {
		r.logger = logging.NewNopLogger()
	}
	return r
}

// Resolve returns the worktree for ref inside the clone h, creating it if
// needed.
//
// An existing directory at the worktree path is only accepted if it is a
// registered worktree of h checked out on the issue branch, and, when the
// remote has that branch, the two have not diverged. Anything else is
// WORKTREE_PATH_CONFLICT, reported before the repository is modified.
//
// Other errors are BRANCH_RESOLUTION_FAILED, WORKTREE_CREATION_FAILED and
// CACHE_LOCK_TIMEOUT. No partial Workspace is returned with an error.
func (r *Resolver) Resolve(ctx context.Context, h *cache.Handle, ref issue.Reference) (Workspace, error) {
	branch := ref.BranchName()
	path := h.WorktreePath(branch)

	errCtx := ref.ErrorContext()
	errCtx["branch"] = branch
	errCtx["path"] = path

	logger := r.logger.WithRepository(ref.Owner, ref.Repo).WithIssue(ref.Number).WithOperation(logging.OpResolve)

	lock, err := lockfile.Acquire(ctx, h.LockPath(branch), r.lockTimeout)
	if err != nil {
		return Workspace{}, errors.WithContextMap(r.lockError(err), errCtx)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn(ctx, "failed to release issue lock", "path", lock.Path(), "error", err)
		}
	}()

	repo, err := h.Open()
	if err != nil {
		err = errors.Wrap(err, errors.CodeBranchResolutionFailed, "failed to open cached repository")
		return Workspace{}, errors.WithContextMap(err, errCtx)
	}

	plan, err := planBranch(repo, branch, h.DefaultBranch)
	if err != nil {
		return Workspace{}, errors.WithContextMap(err, errCtx)
	}
	logger.Debug(ctx, "planned branch", "plan", plan.String())

	ws := Workspace{
		Path:   path,
		Branch: branch,
		Issue:  ref,
		Plan:   plan,
	}

	exists, err := pathExists(h.Filesystem(), path)
	if err != nil {
		err = errors.Wrap(err, errors.CodeWorktreeCreationFailed, "failed to inspect worktree path")
		return Workspace{}, errors.WithContextMap(err, errCtx)
	}

	if exists {
		if err := r.verifyExisting(ctx, h, repo, ws); err != nil {
			return Workspace{}, errors.WithContextMap(err, errCtx)
		}
		logger.Info(ctx, "reusing existing worktree", "path", path)
		return ws, nil
	}

	if err := r.create(ctx, h, repo, ws, logger); err != nil {
		return Workspace{}, errors.WithContextMap(err, errCtx)
	}
	ws.Created = true
	logger.Info(ctx, "created worktree", "path", path, "plan", plan.String())
	return ws, nil
}

// planBranch picks Track when origin has the issue branch and CreateFrom the
// default branch otherwise.
func planBranch(repo *git.Repository, branch, defaultBranch string) (BranchPlan, error) {
	remote, err := repo.HasRemoteBranch(git.DefaultRemote, branch)
	if err != nil {
		return BranchPlan{}, errors.Wrap(err, errors.CodeBranchResolutionFailed, "failed to look up remote branch")
	}
	if remote {
		return BranchPlan{Kind: Track, Ref: branch}, nil
	}

	if defaultBranch == "" {
		return BranchPlan{}, errors.New(errors.CodeBranchResolutionFailed, "no default branch to start the issue branch from")
	}
	return BranchPlan{Kind: CreateFrom, Ref: defaultBranch}, nil
}

// verifyExisting accepts an existing path only if it is the issue's
// worktree in a usable state. It never modifies the repository.
func (r *Resolver) verifyExisting(ctx context.Context, h *cache.Handle, repo *git.Repository, ws Workspace) error {
	worktrees, err := r.ops.List(ctx, h.Path)
	if err != nil {
		return errors.Wrap(err, errors.CodeWorktreeCreationFailed, "failed to list worktrees")
	}

	info := findWorktree(worktrees, ws.Path)
	switch {
	case info == nil || info.Bare:
		return errors.New(errors.CodeWorktreePathConflict, "path exists but is not a worktree of the cached repository")
	case info.Prunable:
		return errors.New(errors.CodeWorktreePathConflict, "path exists but its worktree registration is stale")
	case info.Branch == "":
		return errors.Newf(errors.CodeWorktreePathConflict, "worktree is in detached HEAD state, expected branch %s", ws.Branch)
	case info.Branch != ws.Branch:
		return errors.Newf(errors.CodeWorktreePathConflict, "worktree is checked out on %s, expected %s", info.Branch, ws.Branch)
	}

	if ws.Plan.Kind == Track {
		diverged, err := repo.Diverged(
			plumbing.NewBranchReferenceName(ws.Branch),
			plumbing.NewRemoteReferenceName(git.DefaultRemote, ws.Branch),
		)
		if err != nil {
			return errors.Wrap(err, errors.CodeBranchResolutionFailed, "failed to compare local and remote branch")
		}
		if diverged {
			return errors.Newf(errors.CodeWorktreePathConflict,
				"local branch %s has diverged from %s/%s", ws.Branch, git.DefaultRemote, ws.Branch)
		}
	}

	return nil
}

// configLockName names the lock serializing writes to the bare clone's
// shared config file. Branch upstreams live there, and concurrent git
// processes writing it fail on config.lock.
const configLockName = "config"

// create adds the worktree according to the plan. New branches are always
// added without tracking; the upstream of a Track branch is set afterwards
// under the config lock.
func (r *Resolver) create(ctx context.Context, h *cache.Handle, repo *git.Repository, ws Workspace, logger *logging.Logger) error {
	// Drop registrations of worktree directories deleted by hand, which
	// would otherwise keep the branch marked as checked out.
	if err := r.ops.Prune(ctx, h.Path); err != nil {
		logger.Debug(ctx, "worktree prune failed", "error", errors.Describe(err))
	}

	local, err := repo.HasBranch(ws.Branch)
	if err != nil {
		return errors.Wrap(err, errors.CodeBranchResolutionFailed, "failed to look up local branch")
	}

	upstream := git.DefaultRemote + "/" + ws.Plan.Ref

	switch {
	case local:
		// An earlier worktree for this issue was removed; keep its branch.
		if err := r.add(ctx, h, ws, ws.Branch, git.AddOptions{}, logger); err != nil {
			return err
		}
		if ws.Plan.Kind == Track {
			if err := r.setUpstream(ctx, h, ws, upstream); err != nil {
				logger.Warn(ctx, "failed to set upstream", "upstream", upstream, "error", errors.Describe(err))
			}
		}
		return nil

	case ws.Plan.Kind == Track:
		if err := r.add(ctx, h, ws, upstream, git.AddOptions{CreateBranch: ws.Branch}, logger); err != nil {
			return err
		}
		if err := r.setUpstream(ctx, h, ws, upstream); err != nil {
			err = errors.Wrapf(err, errors.CodeWorktreeCreationFailed, "worktree created but tracking %s failed", upstream)
			return errors.WithContext(err, "upstream", upstream)
		}
		return nil

	default:
		ok, err := repo.HasRemoteBranch(git.DefaultRemote, ws.Plan.Ref)
		if err != nil {
			return errors.Wrap(err, errors.CodeBranchResolutionFailed, "failed to look up default branch")
		}
		if !ok {
			return errors.WithContext(
				errors.Newf(errors.CodeBranchResolutionFailed, "start point %s does not exist", upstream),
				"start_point", upstream,
			)
		}
		return r.add(ctx, h, ws, upstream, git.AddOptions{CreateBranch: ws.Branch}, logger)
	}
}

// add runs worktree add. git can report failure after the worktree is
// already registered, for example when a trailing step loses a lock race;
// such a worktree on the right branch counts as created.
func (r *Resolver) add(ctx context.Context, h *cache.Handle, ws Workspace, ref string, opts git.AddOptions, logger *logging.Logger) error {
	addErr := r.ops.Add(ctx, h.Path, ws.Path, ref, opts)
	if addErr == nil {
		return nil
	}

	worktrees, err := r.ops.List(ctx, h.Path)
	if err == nil {
		if info := findWorktree(worktrees, ws.Path); info != nil && !info.Prunable && info.Branch == ws.Branch {
			logger.Warn(ctx, "worktree add reported failure but the worktree is registered", "error", errors.Describe(addErr))
			return nil
		}
	}
	return errors.Wrap(addErr, errors.CodeWorktreeCreationFailed, "failed to create worktree")
}

// setUpstream sets the branch upstream while holding the config lock.
func (r *Resolver) setUpstream(ctx context.Context, h *cache.Handle, ws Workspace, upstream string) error {
	lock, err := lockfile.Acquire(ctx, h.LockPath(configLockName), r.lockTimeout)
	if err != nil {
		return r.lockError(err)
	}
	defer lock.Unlock()

	return r.ops.SetUpstream(ctx, ws.Path, ws.Branch, upstream)
}

func (r *Resolver) lockError(err error) error {
	if errors.Is(err, lockfile.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(err, errors.CodeCacheLockTimeout, "timed out after %s waiting for a worktree lock", r.lockTimeout)
	}
	return errors.Wrap(err, errors.CodeInternal, "failed to take a worktree lock")
}

// pathExists reports whether anything exists at path.
func pathExists(fs billy.Filesystem, path string) (bool, error) {
	if fs == nil {
		fs = osfs.New("/")
	}
	_, err := fs.Lstat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// findWorktree returns the entry registered at path, comparing paths with
// symlinks resolved.
func findWorktree(worktrees []git.WorktreeInfo, path string) *git.WorktreeInfo {
	want := canonical(path)
	for i := range worktrees {
		if canonical(worktrees[i].Path) == want {
			return &worktrees[i]
		}
	}
	return nil
}

func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}
