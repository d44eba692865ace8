// Package config loads the user's TOML configuration and resolves it into
// the settings the provisioning engine reads.
//
// The file lives at $XDG_CONFIG_HOME/worktree/config.toml, or
// ~/.config/worktree/config.toml when XDG_CONFIG_HOME is unset. A missing
// file means defaults.
//
//	[editor]
//	command = "code ."
//
//	[open]
//	editor = true
//
//	[hooks]
//	"pre:open" = "npm ci"
//
//	[cache]
//	root = "~/worktrees"
//	lock_timeout = "5m"
package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/worktree-io/worktree/errors"
)

// Config mirrors the configuration file.
type Config struct {
	Editor     EditorConfig     `toml:"editor"`
	Terminal   TerminalConfig   `toml:"terminal"`
	Open       OpenConfig       `toml:"open"`
	Hooks      HooksConfig      `toml:"hooks"`
	Cache      CacheConfig      `toml:"cache"`
	HookRunner HookRunnerConfig `toml:"hook_runner"`
	Remote     RemoteConfig     `toml:"remote"`
}

// EditorConfig configures the editor launched on open.
type EditorConfig struct {
	// Command launches the editor, e.g. "code ." or "nvim .". A standalone
	// "." is replaced by the worktree path; otherwise the path is appended.
	Command string `toml:"command,omitempty"`
}

// TerminalConfig configures the terminal launched on open.
type TerminalConfig struct {
	// Command launches a terminal. Empty means the platform default.
	Command string `toml:"command,omitempty"`
}

// OpenConfig selects what is launched after provisioning.
type OpenConfig struct {
	Editor   bool `toml:"editor"`
	Explorer bool `toml:"explorer"`
	Terminal bool `toml:"terminal"`
}

// HooksConfig holds the lifecycle scripts.
type HooksConfig struct {
	PreOpen  string `toml:"pre:open,omitempty"`
	PostOpen string `toml:"post:open,omitempty"`
}

// CacheConfig configures the repository cache.
type CacheConfig struct {
	Root        string `toml:"root,omitempty"`
	LockTimeout string `toml:"lock_timeout,omitempty"`
}

// HookRunnerConfig configures how hooks are executed.
type HookRunnerConfig struct {
	Shell   string `toml:"shell,omitempty"`
	Timeout string `toml:"timeout,omitempty"`
}

// RemoteConfig configures where repositories are cloned from.
type RemoteConfig struct {
	Host     string `toml:"host,omitempty"`
	Protocol string `toml:"protocol,omitempty"`

	// UseAPI asks the GitHub API for clone URLs and default branches.
	UseAPI bool `toml:"use_api"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Open: OpenConfig{Editor: true},
		Cache: CacheConfig{
			Root:        DefaultCacheRoot,
			LockTimeout: DefaultLockTimeout.String(),
		},
		HookRunner: HookRunnerConfig{
			Shell:   DefaultHookShell,
			Timeout: DefaultHookTimeout.String(),
		},
		Remote: RemoteConfig{
			Host:     DefaultHost,
			Protocol: DefaultProtocol,
		},
	}
}

// DefaultPath returns the configuration file location.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "worktree", "config.toml"), nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidConfig, "could not determine home directory")
	}
	return filepath.Join(home, ".config", "worktree", "config.toml"), nil
}

// Load reads the configuration from DefaultPath.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration at path. Settings absent from the file
// keep their defaults; a missing file yields Default().
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		err = errors.Wrap(err, errors.CodeInvalidConfig, "failed to read config")
		return nil, errors.WithContext(err, "path", path)
	}

	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		err = errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse config")
		return nil, errors.WithContext(err, "path", path)
	}

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		err = errors.Wrap(err, errors.CodeInvalidConfig, "failed to create config directory")
		return errors.WithContext(err, "path", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		err = errors.Wrap(err, errors.CodeInvalidConfig, "failed to write config")
		return errors.WithContext(err, "path", path)
	}
	return nil
}

// Marshal encodes the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode config")
	}
	return data, nil
}
