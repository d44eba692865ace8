// Package exec runs external commands with captured output.
//
// It wraps os/exec behind the Executor interface so callers can be tested
// with a fake. Output is captured separately and combined, failures come back
// as *ExecError carrying the exit code and stderr, and timeouts are reported
// through ExecError.TimedOut.
//
// Global settings are passed to New; local settings set through the With*
// methods apply to the next Run only:
//
//	git := exec.NewWrapper(exec.New(exec.WithNonInteractive(), exec.WithInheritEnv()), "git")
//	res, err := git.WithDir(bare).WithContext(ctx).Run("fetch", "--prune", "origin")
//	if err != nil {
//		var execErr *exec.ExecError
//		if errors.As(err, &execErr) {
//			log.Printf("git failed: %s", execErr.Detail())
//		}
//	}
//
// Hooks use the same runner with a working directory, extra environment and
// a timeout:
//
//	res, err := exec.New(exec.WithInheritEnv()).
//		WithDir(worktree).
//		WithEnv(map[string]string{"WORKTREE_ISSUE": "42"}).
//		WithTimeout(10 * time.Minute).
//		Run("sh", script)
package exec
