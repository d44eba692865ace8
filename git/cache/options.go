package cache

import (
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/worktree-io/worktree/git"
	"github.com/worktree-io/worktree/logging"
	"github.com/worktree-io/worktree/remote"
)

// Option configures a RepositoryCache.
type Option func(*options)

type options struct {
	fs          billy.Filesystem
	resolver    remote.Resolver
	ops         git.RemoteOperations
	lockTimeout time.Duration
	logger      *logging.Logger
}

// WithFilesystem sets the billy filesystem used for cache bookkeeping.
// If not provided, defaults to osfs.New("/"). Clones and fetches run the git
// CLI, so the filesystem must expose the host paths unchanged.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(opts *options) {
		opts.fs = fs
	}
}

// WithResolver sets how clone URLs are found. If not provided, repositories
// are cloned from https://github.com.
//
// Example:
//
//	r, _ := remote.NewStatic("git.example.com", remote.ProtocolSSH)
//	c, err := cache.New(root, cache.WithResolver(r))
func WithResolver(r remote.Resolver) Option {
	return func(opts *options) {
		opts.resolver = r
	}
}

// WithRemoteOperations replaces the git CLI operations used to clone and
// fetch.
func WithRemoteOperations(ops git.RemoteOperations) Option {
	return func(opts *options) {
		opts.ops = ops
	}
}

// WithLockTimeout bounds how long Acquire waits for the repository lock
// before failing with CACHE_LOCK_TIMEOUT. Non-positive values keep the
// default, DefaultLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(opts *options) {
		if d > 0 {
			opts.lockTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}
