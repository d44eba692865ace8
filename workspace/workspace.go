// Package workspace resolves an issue to its worktree inside a cached bare
// clone, creating the worktree and its branch when needed.
//
// Each issue N gets the branch "issue-N" and the worktree directory
// <clone>/issue-N. If the remote already has a branch named issue-N, the
// worktree tracks it; otherwise the branch starts from the remote's default
// branch. Resolving an issue whose worktree already exists returns it
// unchanged.
package workspace

import (
	"fmt"

	"github.com/worktree-io/worktree/issue"
)

// PlanKind says where an issue branch comes from.
type PlanKind int

const (
	// Track checks out the remote branch of the same name.
	Track PlanKind = iota + 1

	// CreateFrom starts a new branch at the remote default branch.
	CreateFrom
)

// String returns the plan kind name.
func (k PlanKind) String() string {
	switch k {
	case Track:
		return "track"
	case CreateFrom:
		return "create-from"
	default:
		return fmt.Sprintf("PlanKind(%d)", int(k))
	}
}

// BranchPlan is the decision for one resolution. It is computed from the
// remote branches on every call and never stored.
type BranchPlan struct {
	Kind PlanKind

	// Ref is the remote branch to track for Track, or the default branch
	// to start from for CreateFrom.
	Ref string
}

// String renders the plan, for example "track origin/issue-7".
func (p BranchPlan) String() string {
	return fmt.Sprintf("%s origin/%s", p.Kind, p.Ref)
}

// Workspace is a resolved worktree.
type Workspace struct {
	// Path is the worktree directory.
	Path string

	// Branch is the checked out branch, "issue-<N>".
	Branch string

	// Issue is the reference the workspace was resolved for.
	Issue issue.Reference

	// Created is true when this resolution created the worktree.
	Created bool

	// Plan is how the branch was, or would have been, obtained.
	Plan BranchPlan
}
