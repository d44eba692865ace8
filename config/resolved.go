package config

import (
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/hooks"
)

// Defaults.
const (
	DefaultCacheRoot   = "~/worktrees"
	DefaultLockTimeout = 5 * time.Minute
	DefaultHookTimeout = 10 * time.Minute
	DefaultHookShell   = "sh"
	DefaultHost        = "github.com"
	DefaultProtocol    = "https"
)

// TokenEnv names the environment variable holding the GitHub API token.
const TokenEnv = "GITHUB_TOKEN"

// Resolved is the validated configuration snapshot. The provisioning engine
// only reads it.
type Resolved struct {
	EditorCommand   string
	TerminalCommand string

	OpenEditor   bool
	OpenExplorer bool
	OpenTerminal bool

	// Hooks maps hook names such as "pre:open" to scripts. Unset hooks are
	// absent.
	Hooks map[string]string

	// CacheRoot is an absolute directory with ~ expanded.
	CacheRoot string

	LockTimeout time.Duration
	HookTimeout time.Duration
	HookShell   string

	Remote RemoteSettings
}

// RemoteSettings selects and configures the remote resolver.
type RemoteSettings struct {
	Host     string
	Protocol string
	UseAPI   bool

	// Token is read from GITHUB_TOKEN, never from the file.
	Token string
}

// Hook returns the script for a hook, or "" if unset.
func (r Resolved) Hook(name string) string {
	return r.Hooks[name]
}

// Resolve validates the configuration and applies defaults for empty
// settings.
func (c *Config) Resolve() (Resolved, error) {
	root := c.Cache.Root
	if root == "" {
		root = DefaultCacheRoot
	}
	root, err := homedir.Expand(root)
	if err != nil {
		return Resolved{}, invalid(err, "cache.root", "failed to expand cache root")
	}

	lockTimeout, err := parseDuration(c.Cache.LockTimeout, DefaultLockTimeout)
	if err != nil {
		return Resolved{}, invalid(err, "cache.lock_timeout", "invalid duration")
	}
	hookTimeout, err := parseDuration(c.HookRunner.Timeout, DefaultHookTimeout)
	if err != nil {
		return Resolved{}, invalid(err, "hook_runner.timeout", "invalid duration")
	}

	protocol := strings.ToLower(c.Remote.Protocol)
	switch protocol {
	case "":
		protocol = DefaultProtocol
	case "https", "ssh":
	default:
		err := errors.Newf(errors.CodeInvalidConfig, "unsupported protocol %q, expected https or ssh", c.Remote.Protocol)
		return Resolved{}, errors.WithContext(err, "field", "remote.protocol")
	}

	host := c.Remote.Host
	if host == "" {
		host = DefaultHost
	}
	shell := c.HookRunner.Shell
	if shell == "" {
		shell = DefaultHookShell
	}

	hookScripts := map[string]string{}
	if c.Hooks.PreOpen != "" {
		hookScripts[hooks.PreOpen] = c.Hooks.PreOpen
	}
	if c.Hooks.PostOpen != "" {
		hookScripts[hooks.PostOpen] = c.Hooks.PostOpen
	}

	return Resolved{
		EditorCommand:   c.Editor.Command,
		TerminalCommand: c.Terminal.Command,
		OpenEditor:      c.Open.Editor,
		OpenExplorer:    c.Open.Explorer,
		OpenTerminal:    c.Open.Terminal,
		Hooks:           hookScripts,
		CacheRoot:       root,
		LockTimeout:     lockTimeout,
		HookTimeout:     hookTimeout,
		HookShell:       shell,
		Remote: RemoteSettings{
			Host:     host,
			Protocol: protocol,
			UseAPI:   c.Remote.UseAPI,
			Token:    os.Getenv(TokenEnv),
		},
	}, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.Newf(errors.CodeInvalidConfig, "duration %s must be positive", s)
	}
	return d, nil
}

func invalid(err error, field, msg string) error {
	return errors.WithContext(errors.Wrap(err, errors.CodeInvalidConfig, msg), "field", field)
}
