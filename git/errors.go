package git

import (
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	platformerrors "github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/exec"
)

// wrapError wraps an error with context, classifying it as a platform error type.
// It preserves the original error chain for errors.Is/errors.As compatibility.
// If err is nil, returns nil.
func wrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", context, classifyError(err))
}

// classifyError maps go-git errors to platform error types. Unknown errors
// are passed through unchanged to preserve their original information.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var platformErr platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		return err
	}

	switch {
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "repository does not exist")
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "repository not found")
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "reference not found")
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "object not found")
	case errors.Is(err, gogit.ErrRemoteNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "remote not found")
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return platformerrors.Wrap(err, platformerrors.CodeUnauthorized, "authentication failed")
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "remote repository is empty")
	}

	return err
}

// stderrPatterns maps fragments of git's (LC_ALL=C) stderr to error codes.
// Order matters: the first match wins.
var stderrPatterns = []struct {
	fragment string
	code     platformerrors.ErrorCode
}{
	{"repository not found", platformerrors.CodeNotFound},
	{"does not appear to be a git repository", platformerrors.CodeNotFound},
	{"could not resolve host", platformerrors.CodeNetwork},
	{"could not read from remote repository", platformerrors.CodeNetwork},
	{"connection refused", platformerrors.CodeNetwork},
	{"connection timed out", platformerrors.CodeNetwork},
	{"unable to access", platformerrors.CodeNetwork},
	{"authentication failed", platformerrors.CodeUnauthorized},
	{"permission denied", platformerrors.CodeUnauthorized},
	{"terminal prompts disabled", platformerrors.CodeUnauthorized},
	{"not a valid object name", platformerrors.CodeNotFound},
	{"invalid reference", platformerrors.CodeNotFound},
	{"is not a working tree", platformerrors.CodeNotFound},
	{"already exists", platformerrors.CodeAlreadyExists},
	{"is already checked out", platformerrors.CodeConflict},
	{"is already used by worktree", platformerrors.CodeConflict},
	{"contains modified or untracked files", platformerrors.CodeConflict},
	{"is locked", platformerrors.CodeConflict},
}

// mapExecError converts an exec.ExecError from a git invocation into a
// platform error. The code is derived from git's stderr; the last stderr
// line becomes part of the message so the cause text survives re-wrapping.
func mapExecError(err error, context string) error {
	var execErr *exec.ExecError
	if !errors.As(err, &execErr) {
		return wrapError(err, context)
	}

	if execErr.TimedOut {
		return platformerrors.Wrapf(err, platformerrors.CodeTimeout, "%s: git timed out", context)
	}

	stderr := strings.ToLower(execErr.Stderr)
	code := platformerrors.CodeExecutionFailed
	for _, p := range stderrPatterns {
		if strings.Contains(stderr, p.fragment) {
			code = p.code
			break
		}
	}

	return platformerrors.WrapWithContext(
		err,
		code,
		fmt.Sprintf("%s: %s", context, execErr.Detail()),
		map[string]interface{}{"exit_code": execErr.ExitCode},
	)
}
