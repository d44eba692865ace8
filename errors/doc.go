// Package errors provides structured errors for workspace provisioning.
//
// It extends Go's standard error handling with error codes, a recoverable vs
// fatal classification, and context metadata, while staying compatible with
// the standard library (errors.Is, errors.As, errors.Unwrap).
//
// # Quick Start
//
// Creating errors:
//
//	err := errors.New(errors.CodeInvalidReference, "missing issue number")
//	err := errors.Newf(errors.CodeWorktreePathConflict, "%s is occupied", path)
//
// Wrapping errors at a component boundary:
//
//	if err := ops.CloneBare(ctx, url, path); err != nil {
//	    return errors.Wrap(err, errors.CodeCloneFailed, "failed to clone repository")
//	}
//
// Adding context:
//
//	err = errors.WithContextMap(err, map[string]interface{}{
//	    "owner": "acme",
//	    "repo":  "api",
//	    "issue": 42,
//	})
//
// # Error Codes
//
// Provisioning kinds are CodeInvalidReference, CodeCloneFailed,
// CodeFetchFailed, CodeNoDefaultBranch, CodeCacheLockTimeout,
// CodeBranchResolutionFailed, CodeWorktreeCreationFailed and
// CodeWorktreePathConflict. Lower layers (git, exec, remote) use the
// infrastructure codes and are re-wrapped into a provisioning kind at the
// component boundary.
//
// # Error Classification
//
// CodeFetchFailed and transient infrastructure codes are recoverable: the
// caller records a warning and continues with cached state. Everything else
// is fatal. Use IsRecoverable to decide.
package errors
