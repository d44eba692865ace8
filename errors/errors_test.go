package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeInvalidReference, "missing issue number")

	assert.Equal(t, CodeInvalidReference, err.Code())
	assert.Equal(t, ClassificationFatal, err.Classification())
	assert.Equal(t, "[INVALID_REFERENCE] missing issue number", err.Error())
	assert.Nil(t, err.Context())
	assert.Nil(t, err.Unwrap())
}

func TestNewf(t *testing.T) {
	err := Newf(CodeWorktreePathConflict, "%s is occupied", "/tmp/x")
	assert.Equal(t, "/tmp/x is occupied", err.Message())
}

func TestClassification(t *testing.T) {
	tests := []struct {
		code        ErrorCode
		recoverable bool
	}{
		{CodeFetchFailed, true},
		{CodeNetwork, true},
		{CodeTimeout, true},
		{CodeInvalidReference, false},
		{CodeCloneFailed, false},
		{CodeNoDefaultBranch, false},
		{CodeCacheLockTimeout, false},
		{CodeBranchResolutionFailed, false},
		{CodeWorktreeCreationFailed, false},
		{CodeWorktreePathConflict, false},
		{ErrorCode("SOMETHING_NEW"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.recoverable, IsRecoverable(New(tt.code, "x")))
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, CodeCloneFailed, "x"))
		assert.Nil(t, Wrapf(nil, CodeCloneFailed, "x %d", 1))
		assert.Nil(t, WrapWithContext(nil, CodeCloneFailed, "x", nil))
	})

	t.Run("preserves cause", func(t *testing.T) {
		cause := fmt.Errorf("exit status 128")
		err := Wrap(cause, CodeCloneFailed, "failed to clone")

		assert.True(t, stderrors.Is(err, cause))
		assert.Equal(t, "[CLONE_FAILED] failed to clone: exit status 128", err.Error())
	})

	t.Run("outer code decides classification", func(t *testing.T) {
		inner := New(CodeNetwork, "connection refused")
		err := Wrap(inner, CodeCloneFailed, "failed to clone")

		assert.Equal(t, CodeCloneFailed, GetCode(err))
		assert.False(t, IsRecoverable(err))
		assert.True(t, HasCode(err, CodeNetwork))
	})

	t.Run("carries context forward", func(t *testing.T) {
		inner := WithContext(New(CodeNetwork, "down"), "url", "https://example.com/a/b.git")
		err := Wrap(inner, CodeFetchFailed, "refresh failed")

		assert.Equal(t, "https://example.com/a/b.git", err.Context()["url"])
	})
}

func TestWithContextMap(t *testing.T) {
	base := New(CodeWorktreePathConflict, "occupied")
	err := WithContextMap(base, map[string]interface{}{"owner": "acme", "repo": "api"})
	err = WithContext(err, "issue", uint64(7))

	ctx := err.Context()
	require.Len(t, ctx, 3)
	assert.Equal(t, "acme", ctx["owner"])
	assert.Equal(t, uint64(7), ctx["issue"])
	assert.Nil(t, base.Context(), "original must not change")

	ctx["owner"] = "mutated"
	assert.Equal(t, "acme", err.Context()["owner"])
}

func TestWithContext_PlainError(t *testing.T) {
	err := WithContext(fmt.Errorf("boom"), "k", "v")
	assert.Equal(t, CodeUnknown, err.Code())
	assert.Equal(t, "v", err.Context()["k"])
}

func TestWithClassification(t *testing.T) {
	err := WithClassification(New(CodeCloneFailed, "x"), ClassificationRecoverable)
	assert.True(t, IsRecoverable(err))
	assert.Equal(t, CodeCloneFailed, err.Code())
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeUnknown, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("plain")))

	wrapped := fmt.Errorf("outer: %w", New(CodeNoDefaultBranch, "x"))
	assert.Equal(t, CodeNoDefaultBranch, GetCode(wrapped))
	assert.Equal(t, ClassificationFatal, GetClassification(nil))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "", Describe(nil))
	assert.Equal(t, "plain", Describe(fmt.Errorf("plain")))

	err := WithContextMap(New(CodeCacheLockTimeout, "timed out"), map[string]interface{}{
		"repo":  "api",
		"owner": "acme",
	})
	assert.Equal(t, "[CACHE_LOCK_TIMEOUT] timed out (owner=acme repo=api)", Describe(err))
}
