package cache

import (
	"context"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/git"
	"github.com/worktree-io/worktree/logging"
	"github.com/worktree-io/worktree/remote"
)

// New creates a repository cache rooted at root. The directory is created
// if missing.
//
// Example:
//
//	c, err := cache.New("/home/me/worktrees")
//
//	// With a custom resolver and a shorter lock wait
//	c, err := cache.New(root,
//	    cache.WithResolver(resolver),
//	    cache.WithLockTimeout(30*time.Second))
func New(root string, opts ...Option) (*RepositoryCache, error) {
	if root == "" {
		err := errors.New(errors.CodeInvalidInput, "cache root cannot be empty")
		return nil, errors.WithContext(err, "field", "root")
	}

	options := &options{
		fs:          osfs.New("/"),
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.resolver == nil {
		static, err := remote.NewStatic(remote.DefaultHost, remote.ProtocolHTTPS)
		if err != nil {
			return nil, err
		}
		options.resolver = static
	}
	if options.ops == nil {
		options.ops = git.NewRemoteOperations()
	}
	if options.logger == nil {
		options.logger = logging.NewNopLogger()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to resolve cache root")
	}

	if err := options.fs.MkdirAll(abs, 0o755); err != nil {
		err = errors.Wrap(err, errors.CodeInternal, "failed to create cache root")
		return nil, errors.WithContext(err, "path", abs)
	}

	return &RepositoryCache{
		root:        abs,
		fs:          options.fs,
		resolver:    options.resolver,
		ops:         options.ops,
		lockTimeout: options.lockTimeout,
		logger:      options.logger,
		now:         time.Now,
	}, nil
}

// Root returns the absolute cache root.
func (c *RepositoryCache) Root() string {
	return c.root
}

// Path returns where the bare clone of owner/repo lives. The path depends
// only on the root and the names.
func (c *RepositoryCache) Path(owner, repo string) string {
	return filepath.Join(c.root, hostDir, owner, repo)
}

func (c *RepositoryCache) lockPath(owner, repo string) string {
	return filepath.Join(c.root, locksDir, hostDir, owner, repo+".lock")
}

// Acquire returns a ready bare clone of owner/repo, cloning it on first use
// and fetching it on later ones.
//
// A failed fetch of an existing clone is not an error: the returned
// Handle's FetchErr is set instead. Errors are CLONE_FAILED,
// NO_DEFAULT_BRANCH or CACHE_LOCK_TIMEOUT.
func (c *RepositoryCache) Acquire(ctx context.Context, owner, repo string) (*Handle, error) {
	if owner == "" || repo == "" {
		return nil, errors.WithContextMap(
			errors.New(errors.CodeInvalidInput, "owner and repo are required"),
			map[string]interface{}{"owner": owner, "repo": repo},
		)
	}

	v, err, shared := c.group.Do(c.Path(owner, repo), func() (interface{}, error) {
		return c.acquire(ctx, owner, repo)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		c.logger.WithRepository(owner, repo).Debug(ctx, "joined concurrent acquisition")
	}

	// Callers own their copy.
	h := *v.(*Handle)
	return &h, nil
}
