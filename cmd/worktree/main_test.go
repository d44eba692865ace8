package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktree-io/worktree/git/cache"
	"github.com/worktree-io/worktree/git/testutil"
	"github.com/worktree-io/worktree/remote"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestConfigPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	res := execute(t, "config", "path")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, filepath.Join(xdg, "worktree", "config.toml")+"\n", res.stdout)

	res = execute(t, "config", "path", "--config", "/etc/worktree.toml")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "/etc/worktree.toml\n", res.stdout)
}

func TestConfigInitGetSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worktree", "config.toml")

	res := execute(t, "config", "init", "--config", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, path)

	res = execute(t, "config", "init", "--config", path)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "already exists")

	res = execute(t, "config", "set", "editor.command", "zed .", "--config", path)
	require.Equal(t, 0, res.code, res.stderr)

	res = execute(t, "config", "get", "editor.command", "--config", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "zed .\n", res.stdout)

	res = execute(t, "config", "show", "--config", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "[editor]")
	assert.Contains(t, res.stdout, "zed .")

	res = execute(t, "config", "set", "cache.lock_timeout", "soon", "--config", path)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "field=cache.lock_timeout")

	res = execute(t, "config", "get", "editor.colour", "--config", path)
	assert.Equal(t, 1, res.code)
}

func TestOpen_InvalidReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, t.TempDir(), "", "")

	res := execute(t, "open", "acme/api", "--config", path)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "error:")
	assert.Contains(t, res.stderr, "input=acme/api")
	assert.Empty(t, res.stdout)
}

func TestOpen_RequiresReference(t *testing.T) {
	res := execute(t, "open")
	assert.Equal(t, 1, res.code)
}

// seedCache clones an upstream into root so open can run without network
// access; later fetches go to the local upstream recorded as origin.
func seedCache(t *testing.T, root string) *testutil.Upstream {
	t.Helper()
	testutil.RequireGit(t)

	u := testutil.NewUpstream(t, testutil.TestBranchMain)
	resolver := remote.ResolverFunc(func(context.Context, string, string) (remote.Remote, error) {
		return remote.Remote{URL: u.URL()}, nil
	})
	c, err := cache.New(root, cache.WithResolver(resolver))
	require.NoError(t, err)
	_, err = c.Acquire(context.Background(), "acme", "api")
	require.NoError(t, err)
	return u
}

func writeConfig(t *testing.T, path, root, preOpen, postOpen string) {
	t.Helper()
	content := fmt.Sprintf(`[open]
editor = false

[hooks]
"pre:open" = %q
"post:open" = %q

[cache]
root = %q
`, preOpen, postOpen, root)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOpen_EndToEnd(t *testing.T) {
	root := t.TempDir()
	seedCache(t, root)

	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, root, "touch pre-open-ran", "exit 3")

	res := execute(t, "open", "acme/api#7", "--print-path", "--config", path)
	require.Equal(t, 0, res.code, res.stderr)

	wt := strings.TrimSpace(res.stdout)
	assert.Equal(t, filepath.Join(root, "github", "acme", "api", "issue-7"), wt)
	assert.FileExists(t, filepath.Join(wt, "pre-open-ran"))
	assert.NotContains(t, res.stderr, "post:open")

	res = execute(t, "open", "https://github.com/acme/api/issues/7", "--config", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "Workspace already exists at "+wt)
	assert.Contains(t, res.stderr, "warning: hook post:open failed (exit code 3)")
	assert.Empty(t, res.stdout)
}

func TestOpen_PreOpenFailureKeepsExitCode(t *testing.T) {
	root := t.TempDir()
	seedCache(t, root)

	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, root, "cd {{worktree_path}} && exit 1", "")

	res := execute(t, "open", "acme/api#8", "--config", path)
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "Created workspace at")
	assert.Contains(t, res.stderr, "warning: hook pre:open failed (exit code 1)")
}
