package git

import (
	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
)

// DefaultRemote is the remote name used for every cached repository.
const DefaultRemote = "origin"

// Repository wraps a go-git repository opened from disk. It is used for
// read-only ref inspection; mutations go through RemoteOperations and
// WorktreeOperations.
type Repository struct {
	path string
	repo *gogit.Repository
	fs   billy.Filesystem
}

// WorktreeInfo contains information about a worktree returned by List.
type WorktreeInfo struct {
	// Path is the absolute filesystem path to the worktree
	Path string

	// Head is the commit hash that the worktree is currently at
	Head string

	// Branch is the name of the checked out branch (empty if detached HEAD)
	Branch string

	// Bare is set for the main entry of a bare repository
	Bare bool

	// IsLocked indicates if the worktree is locked
	IsLocked bool

	// Reason contains the lock reason if the worktree is locked
	Reason string

	// Prunable is set when git considers the worktree directory missing
	Prunable bool
}

// AddOptions configures worktree creation.
type AddOptions struct {
	// CreateBranch creates a new branch with this name at the start point.
	CreateBranch string

	// Track sets the upstream of the new branch to the start point
	// (--track). When false and CreateBranch is set, --no-track is passed.
	Track bool
}

// RepositoryOption configures Open.
type RepositoryOption func(*repositoryOptions)

type repositoryOptions struct {
	fs billy.Filesystem
}

// WithFilesystem sets the billy filesystem used to read the repository.
// If not provided, defaults to osfs.New("/").
func WithFilesystem(fs billy.Filesystem) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.fs = fs
	}
}
