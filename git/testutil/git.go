package testutil

import (
	"strings"
	"testing"

	"github.com/worktree-io/worktree/exec"
)

// Git runs the git CLI in dir and returns its trimmed stdout. The test
// fails if git exits non-zero. Commits made this way use the test identity.
func Git(t testing.TB, dir string, args ...string) string {
	t.Helper()
	RequireGit(t)

	full := append([]string{"git", "-c", "user.name=" + TestAuthor, "-c", "user.email=" + TestEmail}, args...)
	res, err := exec.New(exec.WithInheritEnv(), exec.WithNonInteractive()).WithDir(dir).Run(full...)
	if err != nil {
		t.Fatalf("git %s failed: %v", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(res.Stdout)
}
