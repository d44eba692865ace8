package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/hooks"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Open.Editor)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[editor]
command = "cursor ."

[terminal]
command = "kitty --directory ."

[open]
editor = false
terminal = true

[hooks]
"pre:open" = "npm ci"
"post:open" = "echo {{ branch }}"

[cache]
root = "/srv/worktrees"
lock_timeout = "30s"

[hook_runner]
shell = "bash"
timeout = "2m"

[remote]
host = "git.example.com"
protocol = "ssh"
use_api = true
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cursor .", cfg.Editor.Command)
	assert.Equal(t, "npm ci", cfg.Hooks.PreOpen)

	t.Setenv(TokenEnv, "ghp_test")
	res, err := cfg.Resolve()
	require.NoError(t, err)

	assert.Equal(t, Resolved{
		EditorCommand:   "cursor .",
		TerminalCommand: "kitty --directory .",
		OpenEditor:      false,
		OpenExplorer:    false,
		OpenTerminal:    true,
		Hooks: map[string]string{
			hooks.PreOpen:  "npm ci",
			hooks.PostOpen: "echo {{ branch }}",
		},
		CacheRoot:   "/srv/worktrees",
		LockTimeout: 30 * time.Second,
		HookTimeout: 2 * time.Minute,
		HookShell:   "bash",
		Remote: RemoteSettings{
			Host:     "git.example.com",
			Protocol: "ssh",
			UseAPI:   true,
			Token:    "ghp_test",
		},
	}, res)
	assert.Equal(t, "npm ci", res.Hook(hooks.PreOpen))
	assert.Empty(t, Resolved{}.Hook(hooks.PreOpen))
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "[editor]\ncommand = \"zed .\"\n"))
	require.NoError(t, err)

	res, err := cfg.Resolve()
	require.NoError(t, err)
	assert.True(t, res.OpenEditor)
	assert.Equal(t, DefaultLockTimeout, res.LockTimeout)
	assert.Equal(t, DefaultHookTimeout, res.HookTimeout)
	assert.Equal(t, "sh", res.HookShell)
	assert.Equal(t, "https", res.Remote.Protocol)
	assert.Empty(t, res.Hooks)

	home, err := homedir.Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "worktrees"), res.CacheRoot)
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "[editor\ncommand ="))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"lock timeout", func(c *Config) { c.Cache.LockTimeout = "soon" }, "cache.lock_timeout"},
		{"zero lock timeout", func(c *Config) { c.Cache.LockTimeout = "0s" }, "cache.lock_timeout"},
		{"negative hook timeout", func(c *Config) { c.HookRunner.Timeout = "-1s" }, "hook_runner.timeout"},
		{"zero hook timeout", func(c *Config) { c.HookRunner.Timeout = "0" }, "hook_runner.timeout"},
		{"protocol", func(c *Config) { c.Remote.Protocol = "git" }, "remote.protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(cfg)

			_, err := cfg.Resolve()
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

			var pe errors.PlatformError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.field, pe.Context()["field"])
		})
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("editor.command", "nvim ."))
	require.NoError(t, cfg.Set("open.explorer", "true"))
	require.NoError(t, cfg.Set("hooks.pre:open", "make setup"))

	v, err := cfg.Get("editor.command")
	require.NoError(t, err)
	assert.Equal(t, "nvim .", v)

	v, err = cfg.Get("open.explorer")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
	assert.Equal(t, "make setup", cfg.Hooks.PreOpen)

	t.Run("unknown key", func(t *testing.T) {
		_, err := cfg.Get("editor.colour")
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(cfg.Set("editor.colour", "red")))
	})

	t.Run("bad value leaves config unchanged", func(t *testing.T) {
		assert.Error(t, cfg.Set("open.editor", "sometimes"))
		assert.Error(t, cfg.Set("cache.lock_timeout", "forever"))
		assert.True(t, cfg.Open.Editor)
		assert.Equal(t, DefaultLockTimeout.String(), cfg.Cache.LockTimeout)
	})
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "editor.command")
	assert.Contains(t, keys, "hooks.post:open")
	assert.IsIncreasing(t, keys)

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Editor.Command = "code ."
	cfg.Hooks.PostOpen = "echo {{issue}}"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "post:open")
}

func TestDefaultPath(t *testing.T) {
	t.Run("xdg", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		path, err := DefaultPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/xdg", "worktree", "config.toml"), path)
	})

	t.Run("home", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := homedir.Dir()
		require.NoError(t, err)

		path, err := DefaultPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "worktree", "config.toml"), path)
	})
}
