package cache

import (
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/singleflight"

	"github.com/worktree-io/worktree/git"
	"github.com/worktree-io/worktree/logging"
	"github.com/worktree-io/worktree/remote"
)

const (
	// hostDir groups clones by hosting service below the cache root.
	hostDir = "github"

	// locksDir holds every lock file below the cache root.
	locksDir = ".locks"

	// DefaultLockTimeout bounds how long Acquire waits for another holder of
	// the repository lock.
	DefaultLockTimeout = 5 * time.Minute
)

// RepositoryCache manages bare clones below a root directory.
//
// A RepositoryCache is safe for concurrent use. Separate RepositoryCache
// values, including ones in other processes, may share a root.
type RepositoryCache struct {
	root        string
	fs          billy.Filesystem
	resolver    remote.Resolver
	ops         git.RemoteOperations
	lockTimeout time.Duration
	logger      *logging.Logger

	group singleflight.Group
	now   func() time.Time
}

// Handle describes a bare clone ready for use.
type Handle struct {
	// Owner and Repo identify the repository.
	Owner string
	Repo  string

	// Root is the cache root the clone lives under.
	Root string

	// Path is the bare clone directory, <root>/github/<owner>/<repo>.
	Path string

	// DefaultBranch is the branch the remote's HEAD points at.
	DefaultBranch string

	// Created is true when this acquisition performed the clone.
	Created bool

	// FetchErr is set when refreshing an existing clone failed. The clone is
	// still usable, but its remote branches may be stale.
	FetchErr error

	fs billy.Filesystem
}

// Open opens the bare clone for ref inspection.
func (h *Handle) Open() (*git.Repository, error) {
	if h.fs == nil {
		return git.Open(h.Path)
	}
	return git.Open(h.Path, git.WithFilesystem(h.fs))
}

// Filesystem returns the filesystem the clone was created through.
func (h *Handle) Filesystem() billy.Filesystem {
	return h.fs
}

// WorktreePath returns where the worktree for branch is placed.
func (h *Handle) WorktreePath(branch string) string {
	return filepath.Join(h.Path, branch)
}

// LockPath returns the path of a lock file scoped to this repository, for
// example the per-issue lock named "issue-42".
func (h *Handle) LockPath(name string) string {
	return filepath.Join(h.Root, locksDir, hostDir, h.Owner, h.Repo, name+".lock")
}
