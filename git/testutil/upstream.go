package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Upstream is a non-bare repository on disk playing the part of a hosted
// remote. Its path is a valid clone URL for the git CLI.
type Upstream struct {
	t    testing.TB
	path string
	repo *gogit.Repository
	seq  int
}

// NewUpstream creates a repository whose default branch is defaultBranch
// and which holds a single initial commit.
func NewUpstream(t testing.TB, defaultBranch string) *Upstream {
	t.Helper()

	path := filepath.Join(t.TempDir(), "upstream")
	repo, err := gogit.PlainInitWithOptions(path, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(defaultBranch),
		},
	})
	if err != nil {
		t.Fatalf("failed to init upstream: %v", err)
	}

	u := &Upstream{t: t, path: path, repo: repo}
	u.commit(TestFilePath, TestFileContent, TestInitialCommit)
	return u
}

// URL returns the path used as the clone URL.
func (u *Upstream) URL() string {
	return u.path
}

// Repository returns the underlying go-git repository.
func (u *Upstream) Repository() *gogit.Repository {
	return u.repo
}

// Commit checks out branch, creating it from the current HEAD if needed,
// and records a commit touching a unique file. It returns the new hash.
func (u *Upstream) Commit(branch, message string) plumbing.Hash {
	u.t.Helper()
	u.checkout(branch)
	u.seq++
	return u.commit(filepath.Join("changes", fmt.Sprintf("%04d.txt", u.seq)), message+"\n", message)
}

// CreateBranch points a new branch at the tip of from without checking it out.
func (u *Upstream) CreateBranch(name, from string) {
	u.t.Helper()
	ref, err := u.repo.Reference(plumbing.NewBranchReferenceName(from), true)
	if err != nil {
		u.t.Fatalf("failed to resolve %s: %v", from, err)
	}
	if err := u.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), ref.Hash())); err != nil {
		u.t.Fatalf("failed to create branch %s: %v", name, err)
	}
}

// Head returns the tip of branch.
func (u *Upstream) Head(branch string) plumbing.Hash {
	u.t.Helper()
	ref, err := u.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		u.t.Fatalf("failed to resolve %s: %v", branch, err)
	}
	return ref.Hash()
}

// Checkout switches the upstream's HEAD, which is what clones report as the
// remote default branch.
func (u *Upstream) Checkout(branch string) {
	u.t.Helper()
	u.checkout(branch)
}

func (u *Upstream) checkout(branch string) {
	wt, err := u.repo.Worktree()
	if err != nil {
		u.t.Fatalf("failed to get worktree: %v", err)
	}

	name := plumbing.NewBranchReferenceName(branch)
	_, err = u.repo.Reference(name, true)
	if err := wt.Checkout(&gogit.CheckoutOptions{Branch: name, Create: err != nil}); err != nil {
		u.t.Fatalf("failed to checkout %s: %v", branch, err)
	}
}

func (u *Upstream) commit(file, content, message string) plumbing.Hash {
	u.t.Helper()

	full := filepath.Join(u.path, file)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		u.t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		u.t.Fatalf("failed to write file: %v", err)
	}

	wt, err := u.repo.Worktree()
	if err != nil {
		u.t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := wt.Add(filepath.ToSlash(file)); err != nil {
		u.t.Fatalf("failed to add file: %v", err)
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  TestAuthor,
			Email: TestEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		u.t.Fatalf("failed to commit: %v", err)
	}
	return hash
}
