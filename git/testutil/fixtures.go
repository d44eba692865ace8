// Package testutil builds on-disk git repositories that stand in for hosted
// remotes in tests.
package testutil

import (
	osexec "os/exec"
	"testing"
)

// Test user information used across all test helpers.
const (
	// TestAuthor is the default author name for test commits.
	TestAuthor = "Test User"

	// TestEmail is the default email for test commits.
	TestEmail = "test@example.com"
)

// Test content.
const (
	// TestFilePath is the file written by the initial commit.
	TestFilePath = "README.md"

	// TestFileContent is sample content for README files.
	TestFileContent = "# Test Repository\n\nThis is a test repository.\n"

	// TestInitialCommit is the message of the initial commit.
	TestInitialCommit = "Initial commit"
)

// Test branch names.
const (
	// TestBranchMain is the default branch of upstream fixtures.
	TestBranchMain = "main"

	// TestBranchDevelop is an alternate default branch.
	TestBranchDevelop = "develop"
)

// RequireGit skips the test if the git CLI is not available.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := osexec.LookPath("git"); err != nil {
		t.Skip("git CLI not available, skipping test")
	}
}
