// Package issue parses references to hosted-repository issues.
//
// Three input shapes are accepted and normalize to the same Reference:
//
//	https://github.com/acme/api/issues/42
//	acme/api#42
//	worktree://open?owner=acme&repo=api&issue=42
//
// Parsing is pure: it never touches the network or the filesystem.
package issue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/worktree-io/worktree/errors"
)

// BranchPrefix is prepended to the issue number to form the branch name.
const BranchPrefix = "issue-"

// Reference identifies one issue of one repository. Equality is
// case-sensitive, so two References are the same issue exactly when == holds.
type Reference struct {
	Owner  string
	Repo   string
	Number uint64
}

// BranchName returns the branch used for the issue's workspace, "issue-<N>".
func (r Reference) BranchName() string {
	return BranchPrefix + strconv.FormatUint(r.Number, 10)
}

// String renders the reference in shorthand form, "owner/repo#N".
func (r Reference) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// ErrorContext returns the fields attached to errors about this reference.
func (r Reference) ErrorContext() map[string]interface{} {
	return map[string]interface{}{
		"owner": r.Owner,
		"repo":  r.Repo,
		"issue": r.Number,
	}
}

// DeepLinkOptions carries per-invocation overrides embedded in a deep link.
type DeepLinkOptions struct {
	// Editor overrides the configured editor. Only symbolic names such as
	// "cursor" are honored; launch.Plan rejects anything else.
	Editor string
}

// Parse converts input into a Reference. Leading and trailing whitespace is
// ignored. Any failure is an INVALID_REFERENCE error.
func Parse(input string) (Reference, error) {
	ref, _, err := ParseWithOptions(input)
	return ref, err
}

// ParseWithOptions is like Parse but also returns the options embedded in a
// deep link. Other shapes return zero options.
func ParseWithOptions(input string) (Reference, DeepLinkOptions, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Reference{}, DeepLinkOptions{}, errors.New(errors.CodeInvalidReference, "empty issue reference")
	}

	if scheme, _, ok := strings.Cut(s, "://"); ok {
		switch strings.ToLower(scheme) {
		case "http", "https":
			ref, err := parseWebURL(s)
			return ref, DeepLinkOptions{}, err
		default:
			return parseDeepLink(s)
		}
	}

	if strings.Contains(s, "#") {
		ref, err := parseShorthand(s)
		return ref, DeepLinkOptions{}, err
	}

	return Reference{}, DeepLinkOptions{}, invalid(s, "expected an issue URL, owner/repo#N, or a worktree:// link")
}

// parseNumber parses a positive decimal issue number.
func parseNumber(s, input string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, invalid(input, fmt.Sprintf("issue number %q is not a positive integer", s))
	}
	if n == 0 {
		return 0, invalid(input, "issue number must be positive")
	}
	return n, nil
}

// validate checks owner and repo. They become directory names in the
// cache, so anything that could escape or collapse a path is rejected.
func validate(ref Reference, input string) (Reference, error) {
	for _, part := range []struct{ name, value string }{{"owner", ref.Owner}, {"repo", ref.Repo}} {
		switch {
		case part.value == "":
			return Reference{}, invalid(input, part.name+" is empty")
		case part.value == "." || part.value == "..":
			return Reference{}, invalid(input, part.name+" is not a valid name")
		case strings.ContainsAny(part.value, "/\\\x00"):
			return Reference{}, invalid(input, part.name+" contains a path separator")
		}
	}
	return ref, nil
}

func invalid(input, reason string) error {
	return errors.WithContext(
		errors.Newf(errors.CodeInvalidReference, "could not parse issue reference %q: %s", input, reason),
		"input", input,
	)
}
