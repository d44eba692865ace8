// Package hooks renders and runs the user's lifecycle scripts.
//
// A hook is a shell script stored in configuration. Before it runs, every
// {{ name }} placeholder is replaced with the matching value from the hook
// Context; names without a value render as the empty string. A hook that
// fails produces a warning Outcome and never an error.
package hooks

import (
	"regexp"
	"strconv"

	"github.com/worktree-io/worktree/internal/pathenv"
	"github.com/worktree-io/worktree/issue"
)

// Hook names.
const (
	PreOpen  = "pre:open"
	PostOpen = "post:open"
)

// placeholder matches {{name}} with optional spaces inside the braces.
var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_:.-]+)\s*\}\}`)

// Context holds the values available to hook templates.
type Context struct {
	Owner        string
	Repo         string
	Issue        string
	Branch       string
	WorktreePath string
}

// NewContext builds the hook context for an issue's worktree.
func NewContext(ref issue.Reference, branch, worktreePath string) Context {
	return Context{
		Owner:        ref.Owner,
		Repo:         ref.Repo,
		Issue:        strconv.FormatUint(ref.Number, 10),
		Branch:       branch,
		WorktreePath: worktreePath,
	}
}

// Vars returns the template variables.
func (c Context) Vars() map[string]string {
	return map[string]string{
		"owner":         c.Owner,
		"repo":          c.Repo,
		"issue":         c.Issue,
		"branch":        c.Branch,
		"worktree_path": c.WorktreePath,
	}
}

// env returns the variables exported to the hook process. PATH is the
// augmented one so hooks find the same tools launched programs do.
func (c Context) env(hook string) map[string]string {
	return map[string]string{
		"PATH":            pathenv.Current(),
		"WORKTREE_OWNER":  c.Owner,
		"WORKTREE_REPO":   c.Repo,
		"WORKTREE_ISSUE":  c.Issue,
		"WORKTREE_BRANCH": c.Branch,
		"WORKTREE_PATH":   c.WorktreePath,
		"WORKTREE_HOOK":   hook,
	}
}

// Render substitutes placeholders in template. Substituted values are not
// scanned again.
func Render(template string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		return vars[name]
	})
}

// Status is the result class of a hook run.
type Status int

const (
	// Skipped means no script was configured.
	Skipped Status = iota

	// Succeeded means the script exited with status 0.
	Succeeded

	// Warning means the script failed, timed out or could not be started.
	Warning
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Succeeded:
		return "succeeded"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Outcome describes one hook run.
type Outcome struct {
	Hook   string
	Status Status

	// ExitCode is the script's exit status, or -1 if it never exited
	// normally.
	ExitCode int

	// TimedOut is set when the script was killed for running too long.
	TimedOut bool

	// Err describes the failure for Warning outcomes.
	Err error
}
