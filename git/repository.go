package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Open opens an existing Git repository at the specified path.
//
// Both bare repositories and repositories with a .git directory are
// supported. The repository is read through a billy filesystem, by default
// the host filesystem.
//
// Returns ErrNotFound (wrapped) if no repository exists at the path.
//
// Example:
//
//	repo, err := git.Open("/home/me/worktrees/github/acme/api")
func Open(path string, opts ...RepositoryOption) (*Repository, error) {
	options := &repositoryOptions{
		fs: osfs.New("/"),
	}
	for _, opt := range opts {
		opt(options)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, wrapError(err, "failed to resolve repository path")
	}

	scopedFs, err := options.fs.Chroot(abs)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	// Standard repository (.git directory) or bare (objects in the root).
	storageFs := scopedFs
	var worktreeFs billy.Filesystem
	if stat, err := scopedFs.Stat(".git"); err == nil && stat.IsDir() {
		storageFs, err = scopedFs.Chroot(".git")
		if err != nil {
			return nil, wrapError(err, "failed to scope filesystem to .git")
		}
		worktreeFs = scopedFs
	}

	storage := filesystem.NewStorage(storageFs, cache.NewObjectLRUDefault())
	repo, err := gogit.Open(storage, worktreeFs)
	if err != nil {
		return nil, wrapError(err, "failed to open repository")
	}

	return &Repository{
		path: abs,
		repo: repo,
		fs:   scopedFs,
	}, nil
}

// Path returns the absolute path the repository was opened from.
func (r *Repository) Path() string {
	return r.path
}

// Underlying returns the underlying go-git Repository for operations not
// covered by this wrapper.
func (r *Repository) Underlying() *gogit.Repository {
	return r.repo
}

// Filesystem returns the billy.Filesystem scoped to the repository directory.
func (r *Repository) Filesystem() billy.Filesystem {
	return r.fs
}

// IsBare reports whether the repository is configured as bare.
func (r *Repository) IsBare() (bool, error) {
	cfg, err := r.repo.Config()
	if err != nil {
		return false, wrapError(err, "failed to read repository config")
	}
	return cfg.Core.IsBare, nil
}

// RemoteURL returns the first URL configured for the named remote.
func (r *Repository) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", wrapError(err, fmt.Sprintf("failed to get remote %s", name))
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", wrapError(gogit.ErrRemoteNotFound, fmt.Sprintf("remote %s has no URL", name))
	}
	return urls[0], nil
}

// RemoteHead returns the branch name that refs/remotes/<remote>/HEAD points
// at, for example "main". It returns ErrNotFound (wrapped) if the symbolic
// ref has not been recorded.
func (r *Repository) RemoteHead(remote string) (string, error) {
	ref, err := r.repo.Reference(plumbing.NewRemoteHEADReferenceName(remote), false)
	if err != nil {
		return "", wrapError(err, "failed to read remote HEAD")
	}
	if ref.Type() != plumbing.SymbolicReference {
		return "", wrapError(plumbing.ErrReferenceNotFound, "remote HEAD is not a symbolic reference")
	}

	prefix := "refs/remotes/" + remote + "/"
	target := ref.Target().String()
	if !strings.HasPrefix(target, prefix) {
		return "", wrapError(plumbing.ErrReferenceNotFound, fmt.Sprintf("remote HEAD points outside %s: %s", prefix, target))
	}
	return strings.TrimPrefix(target, prefix), nil
}

// HasRemoteBranch reports whether refs/remotes/<remote>/<branch> exists.
func (r *Repository) HasRemoteBranch(remote, branch string) (bool, error) {
	return r.hasReference(plumbing.NewRemoteReferenceName(remote, branch))
}

// HasBranch reports whether the local branch refs/heads/<branch> exists.
func (r *Repository) HasBranch(branch string) (bool, error) {
	return r.hasReference(plumbing.NewBranchReferenceName(branch))
}

func (r *Repository) hasReference(name plumbing.ReferenceName) (bool, error) {
	_, err := r.repo.Reference(name, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrapError(err, fmt.Sprintf("failed to read %s", name))
	}
	return true, nil
}

// Diverged reports whether two references point at commits where neither is
// an ancestor of the other. Identical or fast-forwardable references are not
// diverged.
func (r *Repository) Diverged(a, b plumbing.ReferenceName) (bool, error) {
	ca, err := r.commitAt(a)
	if err != nil {
		return false, err
	}
	cb, err := r.commitAt(b)
	if err != nil {
		return false, err
	}

	if ca.Hash == cb.Hash {
		return false, nil
	}
	if ok, err := ca.IsAncestor(cb); err != nil || ok {
		return false, wrapError(err, "failed to compare history")
	}
	if ok, err := cb.IsAncestor(ca); err != nil || ok {
		return false, wrapError(err, "failed to compare history")
	}
	return true, nil
}

func (r *Repository) commitAt(name plumbing.ReferenceName) (*object.Commit, error) {
	ref, err := r.repo.Reference(name, true)
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to resolve %s", name))
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to load commit for %s", name))
	}
	return commit, nil
}
