package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based so they read well in logs and CLI output.
type ErrorCode string

const (
	// Provisioning errors.

	// CodeInvalidReference indicates the input is not a recognized issue reference.
	CodeInvalidReference ErrorCode = "INVALID_REFERENCE"

	// CodeCloneFailed indicates the initial bare clone of a repository failed.
	CodeCloneFailed ErrorCode = "CLONE_FAILED"

	// CodeFetchFailed indicates refreshing an existing bare clone failed.
	// The cached history remains usable.
	CodeFetchFailed ErrorCode = "FETCH_FAILED"

	// CodeNoDefaultBranch indicates the remote default branch could not be
	// determined and no cached value exists.
	CodeNoDefaultBranch ErrorCode = "NO_DEFAULT_BRANCH"

	// CodeCacheLockTimeout indicates the cache lock for a repository could not
	// be acquired within the configured bound.
	CodeCacheLockTimeout ErrorCode = "CACHE_LOCK_TIMEOUT"

	// CodeBranchResolutionFailed indicates the start point for an issue branch
	// could not be resolved.
	CodeBranchResolutionFailed ErrorCode = "BRANCH_RESOLUTION_FAILED"

	// CodeWorktreeCreationFailed indicates git refused to create the worktree.
	CodeWorktreeCreationFailed ErrorCode = "WORKTREE_CREATION_FAILED"

	// CodeWorktreePathConflict indicates the worktree path is occupied by
	// something that is not the expected worktree.
	CodeWorktreePathConflict ErrorCode = "WORKTREE_PATH_CONFLICT"

	// Resource errors.

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists and cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeConflict indicates a resource state conflict that prevents the operation.
	CodeConflict ErrorCode = "CONFLICT"

	// Permission errors.

	// CodeUnauthorized indicates the request lacks valid authentication credentials.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Infrastructure errors.

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRateLimit indicates the rate limit has been exceeded.
	CodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"

	// CodeExecutionFailed indicates an external command failed.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
