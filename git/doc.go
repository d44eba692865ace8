// Package git provides the git plumbing behind the repository cache and the
// worktree resolver.
//
// Reads go through go-git: Open loads a repository from disk through a
// billy filesystem, and Repository answers questions about refs such as the
// remote's default branch (RemoteHead), whether an issue branch exists on
// the remote (HasRemoteBranch) or locally (HasBranch), and whether a local
// branch has diverged from its remote counterpart (Diverged).
//
// Writes go through the git CLI, wrapped by the exec package:
//
//   - RemoteOperations clones a repository as a bare cache (CloneBare),
//     refreshes it (Fetch) and records the remote HEAD (UpdateRemoteHead).
//   - WorktreeOperations adds, lists and prunes linked worktrees and sets
//     branch upstreams.
//
// Both interfaces exist so callers can substitute fakes in tests.
//
// # Errors
//
// go-git errors are classified into platform error codes (NOT_FOUND,
// UNAUTHORIZED, ...). git CLI failures are classified from stderr, and
// the last stderr line is kept in the message.
//
//	repo, err := git.Open(bare)
//	if errors.GetCode(err) == errors.CodeNotFound {
//	    // not a repository
//	}
package git
