// Package provision turns an issue reference into a ready worktree.
//
// Open runs the fixed sequence parse, acquire cache, resolve worktree and
// run the pre:open hook. Fetch and hook failures are reported as warnings
// alongside a usable workspace; every other failure is returned as an error
// carrying the owner, repo and issue. Launching editors and running
// post:open are left to the caller, which uses PostOpen for the latter.
package provision

import (
	"fmt"

	"github.com/worktree-io/worktree/hooks"
	"github.com/worktree-io/worktree/issue"
	"github.com/worktree-io/worktree/workspace"
)

// WarningKind classifies a non-fatal problem.
type WarningKind int

const (
	// FetchFailed means the cache could not be refreshed and the workspace
	// was built from the previously fetched state.
	FetchFailed WarningKind = iota + 1

	// HookFailed means a hook exited non-zero, timed out or could not start.
	HookFailed
)

// String returns the kind name.
func (k WarningKind) String() string {
	switch k {
	case FetchFailed:
		return "fetch-failed"
	case HookFailed:
		return "hook-failed"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a problem reported alongside a successful result.
type Warning struct {
	Kind WarningKind

	// Hook and ExitCode are set for HookFailed. ExitCode is -1 when the hook
	// timed out or never started.
	Hook     string
	ExitCode int

	Err error
}

// String renders the warning for display.
func (w Warning) String() string {
	switch w.Kind {
	case FetchFailed:
		return fmt.Sprintf("fetch failed, using cached state: %v", w.Err)
	case HookFailed:
		return fmt.Sprintf("hook %s failed (exit code %d): %v", w.Hook, w.ExitCode, w.Err)
	default:
		return fmt.Sprintf("%s: %v", w.Kind, w.Err)
	}
}

// Result is a provisioned workspace.
type Result struct {
	Workspace workspace.Workspace

	// Warnings are in the order they occurred.
	Warnings []Warning

	// Options are overrides carried by a deep link.
	Options issue.DeepLinkOptions

	// Hook is the context hooks were rendered with; PostOpen reuses it.
	Hook hooks.Context
}

// hookWarning converts a failed outcome into a warning.
func hookWarning(out hooks.Outcome) (Warning, bool) {
	if out.Status != hooks.Warning {
		return Warning{}, false
	}
	return Warning{Kind: HookFailed, Hook: out.Hook, ExitCode: out.ExitCode, Err: out.Err}, true
}
