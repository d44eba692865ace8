package issue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktree-io/worktree/errors"
)

func TestParse_EquivalentShapes(t *testing.T) {
	want := Reference{Owner: "acme", Repo: "api", Number: 42}

	inputs := []string{
		"https://github.com/acme/api/issues/42",
		"http://github.com/acme/api/issues/42",
		"https://github.example.com/acme/api/issues/42",
		"https://github.com/acme/api/issues/42/",
		"https://github.com/acme/api/issues/42?notification_referrer_id=x#issuecomment-1",
		"acme/api#42",
		"  acme/api#42\n",
		"worktree://open?owner=acme&repo=api&issue=42",
		"worktree://open?issue=42&repo=api&owner=acme&utm_source=mail",
		"myscheme://open?owner=acme&repo=api&issue=42",
		"worktree://open?url=https%3A%2F%2Fgithub.com%2Facme%2Fapi%2Fissues%2F42",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := Parse(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"acme/api",
		"acme#42",
		"/api#42",
		"acme/#42",
		"acme/api#",
		"acme/api#abc",
		"acme/api#0",
		"acme/api#-1",
		"acme/api#4 2",
		"acme/api/extra#42",
		"../api#42",
		"acme/..#42",
		"https://github.com/acme/api",
		"https://github.com/acme/api/pull/42",
		"https://github.com/acme/api/issues/42/comments",
		"https://github.com/acme/api/issues/x",
		"https://github.com/acme/api/issues/0",
		"worktree://open?owner=acme&repo=api",
		"worktree://open?owner=acme&repo=api&issue=",
		"worktree://open?owner=&repo=api&issue=1",
		"worktree://open?owner=acme&repo=api&issue=seven",
		"worktree://close?owner=acme&repo=api&issue=1",
		"worktree://open?url=https%3A%2F%2Fgithub.com%2Facme",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := Parse(in)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidReference, errors.GetCode(err))
			assert.Equal(t, Reference{}, got)
		})
	}
}

func TestParseWithOptions(t *testing.T) {
	t.Run("symbolic editor", func(t *testing.T) {
		ref, opts, err := ParseWithOptions("worktree://open?owner=acme&repo=api&issue=42&editor=cursor")
		require.NoError(t, err)
		assert.Equal(t, uint64(42), ref.Number)
		assert.Equal(t, "cursor", opts.Editor)
	})

	t.Run("raw editor command", func(t *testing.T) {
		_, opts, err := ParseWithOptions("worktree://open?owner=acme&repo=api&issue=42&editor=my-editor%20.")
		require.NoError(t, err)
		assert.Equal(t, "my-editor .", opts.Editor)
	})

	t.Run("editor with url form", func(t *testing.T) {
		ref, opts, err := ParseWithOptions("worktree://open?url=https%3A%2F%2Fgithub.com%2Facme%2Fapi%2Fissues%2F9&editor=zed")
		require.NoError(t, err)
		assert.Equal(t, Reference{Owner: "acme", Repo: "api", Number: 9}, ref)
		assert.Equal(t, "zed", opts.Editor)
	})

	t.Run("non deep link has no options", func(t *testing.T) {
		_, opts, err := ParseWithOptions("acme/api#42")
		require.NoError(t, err)
		assert.Empty(t, opts.Editor)
	})

	t.Run("failure returns no options", func(t *testing.T) {
		_, opts, err := ParseWithOptions("worktree://open?owner=acme&editor=zed")
		require.Error(t, err)
		assert.Empty(t, opts.Editor)
	})
}

func TestReference(t *testing.T) {
	ref := Reference{Owner: "Acme", Repo: "API", Number: 7}

	assert.Equal(t, "issue-7", ref.BranchName())
	assert.Equal(t, "Acme/API#7", ref.String())
	assert.NotEqual(t, Reference{Owner: "acme", Repo: "api", Number: 7}, ref)
	assert.Equal(t, uint64(7), ref.ErrorContext()["issue"])
}

func TestParse_ErrorCarriesInput(t *testing.T) {
	_, err := Parse("acme/api#zero")
	require.Error(t, err)

	var pe errors.PlatformError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "acme/api#zero", pe.Context()["input"])
	assert.False(t, errors.IsRecoverable(err))
}
