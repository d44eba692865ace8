package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with a code and message while preserving the original
// error. The wrapped error is accessible via Unwrap and compatible with
// errors.Is and errors.As.
//
// The classification always comes from the new code: component boundaries
// re-wrap lower-level failures (for example a NETWORK_ERROR from git) into
// their own kind, and the outer kind decides whether provisioning continues.
// Context attached to a wrapped PlatformError is carried forward.
//
// Returns nil if err is nil.
//
// Example:
//
//	if err := ops.Fetch(ctx, path); err != nil {
//	    return errors.Wrap(err, errors.CodeFetchFailed, "failed to refresh cache")
//	}
func Wrap(err error, code ErrorCode, message string) PlatformError {
	if err == nil {
		return nil
	}

	var inherited map[string]interface{}
	var platformErr PlatformError
	if errors.As(err, &platformErr) {
		inherited = platformErr.Context()
	}

	return &platformError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        message,
		context:        inherited,
		cause:          err,
	}
}

// Wrapf wraps an error with a formatted message.
//
// Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) PlatformError {
	if err == nil {
		return nil
	}

	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WrapWithContext wraps an error and attaches context metadata in a single
// operation. The context map is copied.
//
// Returns nil if err is nil.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) PlatformError {
	if err == nil {
		return nil
	}
	return WithContextMap(Wrap(err, code, message), ctx)
}
