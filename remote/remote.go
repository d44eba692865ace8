// Package remote maps an owner/repo pair to the URL the repository cache
// clones from.
//
// Two resolvers are provided. Static builds the URL from a configured host
// and protocol and never touches the network. GitHub asks the GitHub API for
// the clone URL and default branch, falling back to a Static resolver when
// the API cannot be reached.
package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/worktree-io/worktree/errors"
)

// DefaultHost is used when no host is configured.
const DefaultHost = "github.com"

// Supported clone protocols.
const (
	ProtocolHTTPS = "https"
	ProtocolSSH   = "ssh"
)

// Remote describes where a repository is cloned from.
type Remote struct {
	// URL is passed to git as the origin URL.
	URL string

	// DefaultBranch is a hint reported by the hosting service. It is empty
	// when the resolver has no such knowledge.
	DefaultBranch string
}

// Resolver resolves the remote of a repository.
type Resolver interface {
	Resolve(ctx context.Context, owner, repo string) (Remote, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, owner, repo string) (Remote, error)

// Resolve calls f(ctx, owner, repo).
func (f ResolverFunc) Resolve(ctx context.Context, owner, repo string) (Remote, error) {
	return f(ctx, owner, repo)
}

// Static builds clone URLs from a host and protocol.
type Static struct {
	Host     string
	Protocol string
}

// NewStatic returns a Static resolver. An empty host means DefaultHost and
// an empty protocol means https.
func NewStatic(host, protocol string) (*Static, error) {
	if host == "" {
		host = DefaultHost
	}
	host = strings.TrimSuffix(host, "/")

	switch strings.ToLower(protocol) {
	case "", ProtocolHTTPS:
		protocol = ProtocolHTTPS
	case ProtocolSSH:
		protocol = ProtocolSSH
	default:
		err := errors.Newf(errors.CodeInvalidConfig, "unsupported clone protocol %q", protocol)
		return nil, errors.WithContext(err, "field", "remote.protocol")
	}

	return &Static{Host: host, Protocol: protocol}, nil
}

// URL returns the clone URL for owner/repo.
func (s *Static) URL(owner, repo string) string {
	if s.Protocol == ProtocolSSH {
		return fmt.Sprintf("git@%s:%s/%s.git", s.Host, owner, repo)
	}
	return fmt.Sprintf("https://%s/%s/%s.git", s.Host, owner, repo)
}

// Resolve implements Resolver. It never fails.
func (s *Static) Resolve(_ context.Context, owner, repo string) (Remote, error) {
	return Remote{URL: s.URL(owner, repo)}, nil
}
