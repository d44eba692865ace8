package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	platformerrors "github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/git/testutil"
)

func TestParseWorktreeListPorcelain(t *testing.T) {
	output := `worktree /cache/github/acme/api
bare

worktree /cache/github/acme/api/issue-7
HEAD 1111111111111111111111111111111111111111
branch refs/heads/issue-7

worktree /cache/github/acme/api/issue-8
HEAD 2222222222222222222222222222222222222222
detached
locked moving disks

worktree /cache/github/acme/api/issue-9
HEAD 3333333333333333333333333333333333333333
branch refs/heads/issue-9
prunable gitdir file points to non-existent location
`

	got := parseWorktreeListPorcelain(output)
	require.Len(t, got, 4)

	assert.True(t, got[0].Bare)
	assert.Equal(t, "/cache/github/acme/api", got[0].Path)

	assert.Equal(t, "issue-7", got[1].Branch)
	assert.Equal(t, "1111111111111111111111111111111111111111", got[1].Head)
	assert.False(t, got[1].Prunable)

	assert.Empty(t, got[2].Branch)
	assert.True(t, got[2].IsLocked)
	assert.Equal(t, "moving disks", got[2].Reason)

	assert.True(t, got[3].Prunable)
	assert.Equal(t, "issue-9", got[3].Branch)

	assert.Empty(t, parseWorktreeListPorcelain(""))
}

func TestWorktreeOperations(t *testing.T) {
	u := testutil.NewUpstream(t, testutil.TestBranchMain)
	u.CreateBranch("issue-3", testutil.TestBranchMain)
	u.Commit("issue-3", "work on 3")
	u.Checkout(testutil.TestBranchMain)
	bare := cloneUpstream(t, u)

	ctx := context.Background()
	ops := NewWorktreeOperations()

	t.Run("track remote branch", func(t *testing.T) {
		path := filepath.Join(bare, "issue-3")
		err := ops.Add(ctx, bare, path, "origin/issue-3", AddOptions{CreateBranch: "issue-3", Track: true})
		require.NoError(t, err)

		list, err := ops.List(ctx, bare)
		require.NoError(t, err)
		found := false
		for _, wt := range list {
			if wt.Branch == "issue-3" {
				found = true
				assert.Equal(t, u.Head("issue-3").String(), wt.Head)
			}
		}
		assert.True(t, found)
	})

	t.Run("create from default", func(t *testing.T) {
		path := filepath.Join(bare, "issue-4")
		err := ops.Add(ctx, bare, path, "origin/main", AddOptions{CreateBranch: "issue-4"})
		require.NoError(t, err)

		repo, err := Open(bare)
		require.NoError(t, err)
		ok, err := repo.HasBranch("issue-4")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("branch already checked out", func(t *testing.T) {
		err := ops.Add(ctx, bare, filepath.Join(bare, "other"), "issue-3", AddOptions{})
		require.Error(t, err)
		assert.NotEqual(t, platformerrors.CodeUnknown, platformerrors.GetCode(err))
	})

	t.Run("unknown start point", func(t *testing.T) {
		err := ops.Add(ctx, bare, filepath.Join(bare, "issue-5"), "origin/nope", AddOptions{CreateBranch: "issue-5"})
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	})

	t.Run("prune removes deleted worktrees", func(t *testing.T) {
		path := filepath.Join(bare, "issue-4")
		require.NoError(t, os.RemoveAll(path))
		require.NoError(t, ops.Prune(ctx, bare))

		list, err := ops.List(ctx, bare)
		require.NoError(t, err)
		for _, wt := range list {
			assert.NotEqual(t, "issue-4", wt.Branch)
		}
	})

	t.Run("set upstream", func(t *testing.T) {
		path := filepath.Join(bare, "issue-4b")
		require.NoError(t, ops.Add(ctx, bare, path, "issue-4", AddOptions{}))
		require.NoError(t, ops.SetUpstream(ctx, path, "issue-4", "origin/main"))
	})
}

func TestRemoteOperations_Failures(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()
	ops := NewRemoteOperations()

	t.Run("clone missing repository", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "does-not-exist")
		err := ops.CloneBare(ctx, missing, filepath.Join(t.TempDir(), "bare"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to fetch from remote")
	})

	t.Run("fetch after upstream removed", func(t *testing.T) {
		u := testutil.NewUpstream(t, testutil.TestBranchMain)
		bare := cloneUpstream(t, u)
		require.NoError(t, os.RemoveAll(u.URL()))

		err := ops.Fetch(ctx, bare)
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	})
}
