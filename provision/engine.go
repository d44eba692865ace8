package provision

import (
	"context"
	"time"

	"github.com/worktree-io/worktree/config"
	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/git/cache"
	"github.com/worktree-io/worktree/hooks"
	"github.com/worktree-io/worktree/issue"
	"github.com/worktree-io/worktree/logging"
	"github.com/worktree-io/worktree/remote"
	"github.com/worktree-io/worktree/workspace"
)

// Engine provisions workspaces. It is safe for concurrent use.
type Engine struct {
	cache    *cache.RepositoryCache
	resolver *workspace.Resolver
	hooks    *hooks.Runner
	logger   *logging.Logger
}

type options struct {
	cache    *cache.RepositoryCache
	resolver *workspace.Resolver
	hooks    *hooks.Runner
	logger   *logging.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithCache sets the repository cache.
func WithCache(c *cache.RepositoryCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithResolver sets the worktree resolver.
func WithResolver(r *workspace.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithHooks sets the hook runner.
func WithHooks(r *hooks.Runner) Option {
	return func(o *options) {
		o.hooks = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates an Engine. A cache is required; the resolver and hook runner
// default to their zero configuration.
func New(opts ...Option) (*Engine, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return newEngine(o)
}

func newEngine(o *options) (*Engine, error) {
	if o.cache == nil {
		return nil, errors.New(errors.CodeInvalidInput, "repository cache is required")
	}
	if o.logger == nil {
		o.logger = logging.NewNopLogger()
	}
	if o.resolver == nil {
		o.resolver = workspace.NewResolver(workspace.WithLogger(o.logger))
	}
	if o.hooks == nil {
		o.hooks = hooks.NewRunner(hooks.WithLogger(o.logger))
	}

	return &Engine{
		cache:    o.cache,
		resolver: o.resolver,
		hooks:    o.hooks,
		logger:   o.logger,
	}, nil
}

// FromConfig builds an Engine and its components from resolved settings.
// Components passed in opts take precedence. Zero timeouts and an empty hook
// shell take the config package defaults.
func FromConfig(cfg config.Resolved, opts ...Option) (*Engine, error) {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = config.DefaultLockTimeout
	}
	if cfg.HookTimeout <= 0 {
		cfg.HookTimeout = config.DefaultHookTimeout
	}
	if cfg.HookShell == "" {
		cfg.HookShell = config.DefaultHookShell
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNopLogger()
	}

	if o.cache == nil {
		resolver, err := newRemoteResolver(cfg.Remote, o.logger)
		if err != nil {
			return nil, err
		}
		o.cache, err = cache.New(cfg.CacheRoot,
			cache.WithResolver(resolver),
			cache.WithLockTimeout(cfg.LockTimeout),
			cache.WithLogger(o.logger),
		)
		if err != nil {
			return nil, err
		}
	}
	if o.resolver == nil {
		o.resolver = workspace.NewResolver(
			workspace.WithLockTimeout(cfg.LockTimeout),
			workspace.WithLogger(o.logger),
		)
	}
	if o.hooks == nil {
		o.hooks = hooks.NewRunner(
			hooks.WithShell(cfg.HookShell),
			hooks.WithTimeout(cfg.HookTimeout),
			hooks.WithLogger(o.logger),
		)
	}

	return newEngine(o)
}

func newRemoteResolver(s config.RemoteSettings, logger *logging.Logger) (remote.Resolver, error) {
	static, err := remote.NewStatic(s.Host, s.Protocol)
	if err != nil {
		return nil, err
	}
	if !s.UseAPI {
		return static, nil
	}

	ghOpts := []remote.GitHubOption{
		remote.WithHost(s.Host),
		remote.WithFallback(static),
		remote.WithLogger(logger),
	}
	if s.Token != "" {
		ghOpts = append(ghOpts, remote.WithToken(s.Token))
	}
	gh, err := remote.NewGitHub(ghOpts...)
	if err != nil {
		return nil, err
	}
	return gh, nil
}

// Cache returns the engine's repository cache.
func (e *Engine) Cache() *cache.RepositoryCache {
	return e.cache
}

// Open provisions the workspace for input. Re-opening an existing
// workspace returns it unchanged with Created false.
func (e *Engine) Open(ctx context.Context, input string, cfg config.Resolved) (*Result, error) {
	ref, linkOpts, err := issue.ParseWithOptions(input)
	if err != nil {
		return nil, err
	}

	logger := e.logger.WithRepository(ref.Owner, ref.Repo).WithIssue(ref.Number)
	start := time.Now()

	h, err := e.cache.Acquire(ctx, ref.Owner, ref.Repo)
	if err != nil {
		logger.Error(ctx, "failed to acquire repository", "error", err)
		return nil, errors.WithContextMap(err, ref.ErrorContext())
	}

	res := &Result{Options: linkOpts}
	if h.FetchErr != nil {
		logger.Warn(ctx, "using stale cache", "error", h.FetchErr)
		res.Warnings = append(res.Warnings, Warning{Kind: FetchFailed, Err: h.FetchErr})
	}

	ws, err := e.resolver.Resolve(ctx, h, ref)
	if err != nil {
		logger.Error(ctx, "failed to resolve worktree", "error", err)
		return nil, errors.WithContextMap(err, ref.ErrorContext())
	}
	res.Workspace = ws
	res.Hook = hooks.NewContext(ref, ws.Branch, ws.Path)

	out := e.hooks.Run(ctx, hooks.PreOpen, cfg.Hook(hooks.PreOpen), res.Hook)
	if w, ok := hookWarning(out); ok {
		res.Warnings = append(res.Warnings, w)
	}

	logger.Info(ctx, "workspace ready",
		"path", ws.Path,
		"created", ws.Created,
		"plan", ws.Plan.String(),
		"warnings", len(res.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// PostOpen runs the post:open hook for a result returned by Open. Callers
// invoke it after their launch actions.
func (e *Engine) PostOpen(ctx context.Context, res *Result, cfg config.Resolved) []Warning {
	if res == nil {
		return nil
	}
	out := e.hooks.Run(ctx, hooks.PostOpen, cfg.Hook(hooks.PostOpen), res.Hook)
	if w, ok := hookWarning(out); ok {
		return []Warning{w}
	}
	return nil
}
