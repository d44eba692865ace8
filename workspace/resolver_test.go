package workspace

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/git"
	"github.com/worktree-io/worktree/git/cache"
	"github.com/worktree-io/worktree/git/testutil"
	"github.com/worktree-io/worktree/internal/lockfile"
	"github.com/worktree-io/worktree/issue"
	"github.com/worktree-io/worktree/remote"
)

type fixture struct {
	upstream *testutil.Upstream
	cache    *cache.RepositoryCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	testutil.RequireGit(t)

	u := testutil.NewUpstream(t, testutil.TestBranchMain)
	resolver := remote.ResolverFunc(func(context.Context, string, string) (remote.Remote, error) {
		return remote.Remote{URL: u.URL()}, nil
	})
	c, err := cache.New(t.TempDir(), cache.WithResolver(resolver))
	require.NoError(t, err)
	return &fixture{upstream: u, cache: c}
}

func (f *fixture) acquire(t *testing.T) *cache.Handle {
	t.Helper()
	h, err := f.cache.Acquire(context.Background(), "acme", "api")
	require.NoError(t, err)
	return h
}

func ref(n uint64) issue.Reference {
	return issue.Reference{Owner: "acme", Repo: "api", Number: n}
}

func TestResolve_CreateFromDefault(t *testing.T) {
	f := newFixture(t)
	h := f.acquire(t)

	ws, err := NewResolver().Resolve(context.Background(), h, ref(42))
	require.NoError(t, err)

	assert.True(t, ws.Created)
	assert.Equal(t, "issue-42", ws.Branch)
	assert.Equal(t, filepath.Join(h.Path, "issue-42"), ws.Path)
	assert.Equal(t, BranchPlan{Kind: CreateFrom, Ref: "main"}, ws.Plan)
	assert.Equal(t, ref(42), ws.Issue)

	assert.Equal(t, "issue-42", testutil.Git(t, ws.Path, "symbolic-ref", "--short", "HEAD"))
	assert.Equal(t, f.upstream.Head("main").String(), testutil.Git(t, ws.Path, "rev-parse", "HEAD"))
	assert.FileExists(t, filepath.Join(ws.Path, testutil.TestFilePath))
}

func TestResolve_Idempotent(t *testing.T) {
	f := newFixture(t)
	h := f.acquire(t)
	r := NewResolver()

	first, err := r.Resolve(context.Background(), h, ref(1))
	require.NoError(t, err)
	require.True(t, first.Created)

	marker := filepath.Join(first.Path, "scratch.txt")
	require.NoError(t, os.WriteFile(marker, []byte("wip"), 0o644))

	second, err := r.Resolve(context.Background(), f.acquire(t), ref(1))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, first.Branch, second.Branch)
	assert.FileExists(t, marker)
}

func TestResolve_TrackRemoteBranch(t *testing.T) {
	f := newFixture(t)
	tip := f.upstream.Commit("issue-7", "start work on 7")
	f.upstream.Checkout("main")
	h := f.acquire(t)

	ws, err := NewResolver().Resolve(context.Background(), h, ref(7))
	require.NoError(t, err)

	assert.True(t, ws.Created)
	assert.Equal(t, BranchPlan{Kind: Track, Ref: "issue-7"}, ws.Plan)
	assert.Equal(t, tip.String(), testutil.Git(t, ws.Path, "rev-parse", "HEAD"))
	assert.Equal(t, "origin/issue-7", testutil.Git(t, ws.Path, "rev-parse", "--abbrev-ref", "issue-7@{upstream}"))
}

func TestResolve_UnrelatedDirectoryConflicts(t *testing.T) {
	f := newFixture(t)
	h := f.acquire(t)

	path := h.WorktreePath("issue-5")
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "notes.txt"), []byte("mine"), 0o644))

	ws, err := NewResolver().Resolve(context.Background(), h, ref(5))
	require.Error(t, err)
	assert.Equal(t, Workspace{}, ws)
	assert.Equal(t, errors.CodeWorktreePathConflict, errors.GetCode(err))

	var pe errors.PlatformError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "acme", pe.Context()["owner"])
	assert.Equal(t, uint64(5), pe.Context()["issue"])

	repo, err := h.Open()
	require.NoError(t, err)
	exists, err := repo.HasBranch("issue-5")
	require.NoError(t, err)
	assert.False(t, exists, "no branch may be created on conflict")

	worktrees, err := git.NewWorktreeOperations().List(context.Background(), h.Path)
	require.NoError(t, err)
	assert.Len(t, worktrees, 1)
	assert.FileExists(t, filepath.Join(path, "notes.txt"))
}

func TestResolve_WrongBranchConflicts(t *testing.T) {
	f := newFixture(t)
	h := f.acquire(t)

	path := h.WorktreePath("issue-6")
	err := git.NewWorktreeOperations().Add(context.Background(), h.Path, path, "origin/main",
		git.AddOptions{CreateBranch: "something-else"})
	require.NoError(t, err)

	_, err = NewResolver().Resolve(context.Background(), h, ref(6))
	require.Error(t, err)
	assert.Equal(t, errors.CodeWorktreePathConflict, errors.GetCode(err))
	assert.Contains(t, err.Error(), "something-else")
}

func TestResolve_RecreatesDeletedWorktree(t *testing.T) {
	f := newFixture(t)
	h := f.acquire(t)
	r := NewResolver()

	first, err := r.Resolve(context.Background(), h, ref(3))
	require.NoError(t, err)
	testutil.Git(t, first.Path, "commit", "--allow-empty", "-m", "local work")
	local := testutil.Git(t, first.Path, "rev-parse", "HEAD")

	require.NoError(t, os.RemoveAll(first.Path))

	second, err := r.Resolve(context.Background(), h, ref(3))
	require.NoError(t, err)
	assert.True(t, second.Created)
	assert.Equal(t, local, testutil.Git(t, second.Path, "rev-parse", "HEAD"), "existing branch is reused")
}

func TestResolve_DivergedBranchConflicts(t *testing.T) {
	f := newFixture(t)
	f.upstream.Commit("issue-9", "upstream work")
	f.upstream.Checkout("main")

	r := NewResolver()
	ws, err := r.Resolve(context.Background(), f.acquire(t), ref(9))
	require.NoError(t, err)

	testutil.Git(t, ws.Path, "commit", "--allow-empty", "-m", "local work")
	f.upstream.Commit("issue-9", "more upstream work")
	f.upstream.Checkout("main")

	_, err = r.Resolve(context.Background(), f.acquire(t), ref(9))
	require.Error(t, err)
	assert.Equal(t, errors.CodeWorktreePathConflict, errors.GetCode(err))
	assert.Contains(t, err.Error(), "diverged")
}

func TestResolve_BehindRemoteIsNotConflict(t *testing.T) {
	f := newFixture(t)
	f.upstream.Commit("issue-8", "upstream work")
	f.upstream.Checkout("main")

	r := NewResolver()
	_, err := r.Resolve(context.Background(), f.acquire(t), ref(8))
	require.NoError(t, err)

	f.upstream.Commit("issue-8", "more upstream work")
	f.upstream.Checkout("main")

	ws, err := r.Resolve(context.Background(), f.acquire(t), ref(8))
	require.NoError(t, err)
	assert.False(t, ws.Created)
}

func TestResolve_BranchResolutionFailures(t *testing.T) {
	f := newFixture(t)

	t.Run("no default branch", func(t *testing.T) {
		h := f.acquire(t)
		h.DefaultBranch = ""
		_, err := NewResolver().Resolve(context.Background(), h, ref(11))
		require.Error(t, err)
		assert.Equal(t, errors.CodeBranchResolutionFailed, errors.GetCode(err))
	})

	t.Run("missing start point", func(t *testing.T) {
		h := f.acquire(t)
		h.DefaultBranch = "no-such-branch"
		_, err := NewResolver().Resolve(context.Background(), h, ref(12))
		require.Error(t, err)
		assert.Equal(t, errors.CodeBranchResolutionFailed, errors.GetCode(err))
		assert.NoDirExists(t, h.WorktreePath("issue-12"))
	})
}

func TestResolve_ConcurrentIssues(t *testing.T) {
	f := newFixture(t)
	h := f.acquire(t)
	r := NewResolver()

	var wg sync.WaitGroup
	results := make([]Workspace, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), h, ref(uint64(i+1)))
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.True(t, results[i].Created)
		assert.DirExists(t, results[i].Path)
	}
	assert.NotEqual(t, results[0].Path, results[1].Path)
}

func TestResolve_ConcurrentTrackedIssues(t *testing.T) {
	f := newFixture(t)
	const n = 12
	for i := 1; i <= n; i++ {
		f.upstream.CreateBranch(fmt.Sprintf("issue-%d", i), "main")
	}
	h := f.acquire(t)
	r := NewResolver()

	var wg sync.WaitGroup
	results := make([]Workspace, n)
	errs := make([]error, n)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), h, ref(uint64(i+1)))
		}(i)
	}
	wg.Wait()

	for i, ws := range results {
		require.NoError(t, errs[i], "issue %d", i+1)
		assert.True(t, ws.Created)
		assert.Equal(t, Track, ws.Plan.Kind)
		assert.Equal(t, "origin/"+ws.Branch,
			testutil.Git(t, ws.Path, "rev-parse", "--abbrev-ref", ws.Branch+"@{upstream}"))
	}
}

// flakyAdd reports failure from Add, optionally after the worktree was
// really created, the way git does when a trailing step fails.
type flakyAdd struct {
	git.WorktreeOperations
	create bool
}

func (o *flakyAdd) Add(ctx context.Context, repoPath, path, ref string, opts git.AddOptions) error {
	if o.create {
		if err := o.WorktreeOperations.Add(ctx, repoPath, path, ref, opts); err != nil {
			return err
		}
	}
	return stderrors.New("error: could not lock config file config: File exists")
}

func TestResolve_AddFailureAfterRegistration(t *testing.T) {
	f := newFixture(t)
	f.upstream.CreateBranch("issue-3", "main")
	h := f.acquire(t)

	ops := &flakyAdd{WorktreeOperations: git.NewWorktreeOperations(), create: true}
	ws, err := NewResolver(WithWorktreeOperations(ops)).Resolve(context.Background(), h, ref(3))
	require.NoError(t, err)

	assert.True(t, ws.Created)
	assert.Equal(t, "issue-3", testutil.Git(t, ws.Path, "symbolic-ref", "--short", "HEAD"))
	assert.Equal(t, "origin/issue-3", testutil.Git(t, ws.Path, "rev-parse", "--abbrev-ref", "issue-3@{upstream}"))
}

func TestResolve_AddFailure(t *testing.T) {
	f := newFixture(t)
	h := f.acquire(t)

	ops := &flakyAdd{WorktreeOperations: git.NewWorktreeOperations()}
	_, err := NewResolver(WithWorktreeOperations(ops)).Resolve(context.Background(), h, ref(3))
	require.Error(t, err)
	assert.Equal(t, errors.CodeWorktreeCreationFailed, errors.GetCode(err))
	assert.Contains(t, err.Error(), "could not lock config file")
}

func TestWithLockTimeout_NonPositiveKeepsDefault(t *testing.T) {
	assert.Equal(t, cache.DefaultLockTimeout, NewResolver(WithLockTimeout(0)).lockTimeout)
	assert.Equal(t, cache.DefaultLockTimeout, NewResolver(WithLockTimeout(-time.Second)).lockTimeout)
	assert.Equal(t, time.Second, NewResolver(WithLockTimeout(time.Second)).lockTimeout)
}

func TestResolve_LockTimeout(t *testing.T) {
	f := newFixture(t)
	h := f.acquire(t)

	held, err := lockfile.Acquire(context.Background(), h.LockPath("issue-4"), time.Second)
	require.NoError(t, err)
	defer held.Unlock()

	_, err = NewResolver(WithLockTimeout(50*time.Millisecond)).Resolve(context.Background(), h, ref(4))
	require.Error(t, err)
	assert.Equal(t, errors.CodeCacheLockTimeout, errors.GetCode(err))
	assert.NoDirExists(t, h.WorktreePath("issue-4"))
}

func TestPlanKindString(t *testing.T) {
	assert.Equal(t, "track", Track.String())
	assert.Equal(t, "create-from", CreateFrom.String())
	assert.Equal(t, "PlanKind(0)", PlanKind(0).String())
	assert.Equal(t, "track origin/issue-1", BranchPlan{Kind: Track, Ref: "issue-1"}.String())
}
