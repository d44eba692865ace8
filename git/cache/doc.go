// Package cache maintains the shared bare clones that issue worktrees are
// created from.
//
// # Overview
//
// Every repository is cloned once, as a bare repository, and refreshed on
// each later use. Worktrees for individual issues live next to the bare
// repository's git data and share its object store:
//
//	~/worktrees/
//	├── .locks/
//	│   └── github/acme/
//	│       ├── api.lock             # held while the clone is created or fetched
//	│       └── api/issue-42.lock    # held while issue 42's worktree is resolved
//	└── github/acme/api/             # bare clone
//	    ├── worktree-cache.json      # default branch and fetch timestamps
//	    └── issue-42/                # worktree
//
// # Concurrency
//
// Acquire serializes work on one repository in two ways. Inside a process,
// concurrent calls for the same repository share a single clone or fetch.
// Across processes, an advisory file lock guards the repository and a fetch
// finished by another process while this one waited is reused instead of
// repeated. Waiting for the lock is bounded; see WithLockTimeout.
//
// # Usage
//
//	c, err := cache.New("~/worktrees", cache.WithResolver(resolver))
//	if err != nil {
//	    return err
//	}
//
//	h, err := c.Acquire(ctx, "acme", "api")
//	if err != nil {
//	    return err
//	}
//	if h.FetchErr != nil {
//	    // The cached copy is usable but may be stale.
//	}
//
// A bare clone is never deleted by this package.
package cache
