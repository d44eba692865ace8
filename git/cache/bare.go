package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/util"

	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/git"
	"github.com/worktree-io/worktree/internal/lockfile"
	"github.com/worktree-io/worktree/logging"
)

// acquire does the work of Acquire while holding the repository lock.
//
// This method:
//  1. Waits for the cross-process repository lock
//  2. Clones the repository if the cache path is absent
//  3. Otherwise fetches, unless another process fetched while we waited
//  4. Determines the default branch and records it in the metadata
func (c *RepositoryCache) acquire(ctx context.Context, owner, repo string) (*Handle, error) {
	logger := c.logger.WithRepository(owner, repo)
	errCtx := map[string]interface{}{"owner": owner, "repo": repo}
	waitStart := c.now()

	lock, err := lockfile.Acquire(ctx, c.lockPath(owner, repo), c.lockTimeout)
	if err != nil {
		return nil, errors.WithContextMap(c.lockError(err), errCtx)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn(ctx, "failed to release cache lock", "path", lock.Path(), "error", err)
		}
	}()
	logger.WithOperation(logging.OpLock).Debug(ctx, "acquired cache lock",
		"waited_ms", c.now().Sub(waitStart).Milliseconds())

	h := &Handle{
		Owner: owner,
		Repo:  repo,
		Root:  c.root,
		Path:  c.Path(owner, repo),
		fs:    c.fs,
	}

	var (
		meta *metadata
		hint string
	)

	if _, err := c.fs.Stat(h.Path); os.IsNotExist(err) {
		meta, hint, err = c.clone(ctx, h, logger)
		if err != nil {
			return nil, errors.WithContextMap(err, errCtx)
		}
	} else if err != nil {
		err = errors.Wrap(err, errors.CodeCloneFailed, "failed to inspect cache path")
		return nil, errors.WithContextMap(err, errCtx)
	} else {
		meta, err = c.refresh(ctx, h, waitStart, logger)
		if err != nil {
			return nil, errors.WithContextMap(err, errCtx)
		}
	}

	branch, err := c.defaultBranch(ctx, h, hint, meta)
	if err != nil {
		return nil, errors.WithContextMap(err, errCtx)
	}
	h.DefaultBranch = branch
	meta.DefaultBranch = branch

	if err := meta.save(c.fs, metadataPath(h.Path)); err != nil {
		logger.Warn(ctx, "failed to save cache metadata", "error", err)
	}

	return h, nil
}

// clone creates the bare clone in a temporary sibling directory and moves
// it into place, so an interrupted clone never leaves a half-populated
// cache path behind.
func (c *RepositoryCache) clone(ctx context.Context, h *Handle, logger *logging.Logger) (*metadata, string, error) {
	rem, err := c.resolver.Resolve(ctx, h.Owner, h.Repo)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CodeCloneFailed, "failed to resolve clone URL")
	}

	parent := filepath.Dir(h.Path)
	if err := c.fs.MkdirAll(parent, 0o755); err != nil {
		return nil, "", errors.Wrap(err, errors.CodeCloneFailed, "failed to create cache directory")
	}

	tmp := filepath.Join(parent, "."+h.Repo+".partial")
	if err := util.RemoveAll(c.fs, tmp); err != nil {
		return nil, "", errors.Wrap(err, errors.CodeCloneFailed, "failed to remove leftover partial clone")
	}

	start := c.now()
	err = c.ops.CloneBare(ctx, rem.URL, tmp)
	logging.LogOperation(ctx, logger, logging.OpClone, c.now().Sub(start), err)
	if err != nil {
		_ = util.RemoveAll(c.fs, tmp)
		err = errors.Wrap(err, errors.CodeCloneFailed, "failed to clone repository")
		return nil, "", errors.WithContext(err, "url", rem.URL)
	}

	if err := c.ops.UpdateRemoteHead(ctx, tmp); err != nil {
		logger.Debug(ctx, "could not record remote HEAD", "error", errors.Describe(err))
	}

	if err := c.fs.Rename(tmp, h.Path); err != nil {
		_ = util.RemoveAll(c.fs, tmp)
		return nil, "", errors.Wrap(err, errors.CodeCloneFailed, "failed to move clone into place")
	}

	now := c.now()
	meta := newMetadata()
	meta.URL = rem.URL
	meta.ClonedAt = now
	meta.LastFetch = now

	h.Created = true
	logger.Info(ctx, "cloned repository", "path", h.Path)
	return meta, rem.DefaultBranch, nil
}

// refresh fetches an existing clone. A fetch failure is recorded on the
// handle rather than returned.
func (c *RepositoryCache) refresh(ctx context.Context, h *Handle, waitStart time.Time, logger *logging.Logger) (*metadata, error) {
	r, err := h.Open()
	if err != nil {
		err = errors.Wrap(err, errors.CodeCloneFailed, "cache path is occupied by something that is not a git repository")
		return nil, errors.WithContext(err, "path", h.Path)
	}
	if bare, err := r.IsBare(); err != nil || !bare {
		err = errors.New(errors.CodeCloneFailed, "cache path is occupied by a repository that is not bare")
		return nil, errors.WithContext(err, "path", h.Path)
	}

	meta, err := loadMetadata(c.fs, metadataPath(h.Path))
	if err != nil {
		logger.Warn(ctx, "ignoring unreadable cache metadata", "error", err)
	}
	if url, err := r.RemoteURL(git.DefaultRemote); err == nil {
		meta.URL = url
	}

	if meta.LastFetch.After(waitStart) {
		logger.Debug(ctx, "reusing fetch completed while waiting for the lock",
			"last_fetch", meta.LastFetch)
		return meta, nil
	}

	start := c.now()
	err = c.ops.Fetch(ctx, h.Path)
	logging.LogOperation(ctx, logger, logging.OpFetch, c.now().Sub(start), err)
	if err != nil {
		h.FetchErr = errors.WithContextMap(
			errors.Wrap(err, errors.CodeFetchFailed, "failed to refresh cached repository"),
			map[string]interface{}{"owner": h.Owner, "repo": h.Repo},
		)
		meta.LastFetchError = err.Error()
		return meta, nil
	}

	meta.LastFetch = c.now()
	meta.LastFetchError = ""

	if err := c.ops.UpdateRemoteHead(ctx, h.Path); err != nil {
		logger.Debug(ctx, "could not update remote HEAD", "error", errors.Describe(err))
	}

	return meta, nil
}

// defaultBranch picks the default branch from, in order: the recorded
// remote HEAD, the resolver's hint, and the value cached by an earlier
// acquisition.
func (c *RepositoryCache) defaultBranch(ctx context.Context, h *Handle, hint string, meta *metadata) (string, error) {
	if r, err := h.Open(); err == nil {
		if branch, err := r.RemoteHead(git.DefaultRemote); err == nil && branch != "" {
			return branch, nil
		}
	}

	if hint == "" && !h.Created && h.FetchErr == nil {
		if rem, err := c.resolver.Resolve(ctx, h.Owner, h.Repo); err == nil {
			hint = rem.DefaultBranch
		}
	}
	if hint != "" {
		return hint, nil
	}

	if meta.DefaultBranch != "" {
		return meta.DefaultBranch, nil
	}

	return "", errors.New(errors.CodeNoDefaultBranch, "could not determine the repository's default branch")
}

// lockError classifies a failure to take the repository lock.
func (c *RepositoryCache) lockError(err error) error {
	if errors.Is(err, lockfile.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return errors.WithContext(
			errors.Wrapf(err, errors.CodeCacheLockTimeout, "timed out after %s waiting for the repository lock", c.lockTimeout),
			"timeout", c.lockTimeout.String(),
		)
	}
	return errors.Wrap(err, errors.CodeInternal, "failed to take the repository lock")
}
