package remote

import (
	"context"
	"net/http"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"

	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/logging"
)

// GitHub resolves remotes through the GitHub REST API. The API reports the
// canonical clone URL, which follows renames and transfers, and the
// repository's default branch.
type GitHub struct {
	client   *github.Client
	fallback *Static
	logger   *logging.Logger
}

// githubConfig holds configuration for GitHub.
type githubConfig struct {
	client   *github.Client
	token    string
	host     string
	fallback *Static
	logger   *logging.Logger
}

// GitHubOption configures the GitHub resolver.
type GitHubOption func(*githubConfig) error

// WithToken authenticates API calls with a personal access token. Without
// a token, requests are anonymous and only public repositories resolve.
func WithToken(token string) GitHubOption {
	return func(cfg *githubConfig) error {
		cfg.token = token
		return nil
	}
}

// WithClient sets a custom go-github client. It takes precedence over
// WithToken and WithHost.
func WithClient(client *github.Client) GitHubOption {
	return func(cfg *githubConfig) error {
		if client == nil {
			err := errors.New(errors.CodeInvalidInput, "client cannot be nil")
			return errors.WithContext(err, "field", "client")
		}
		cfg.client = client
		return nil
	}
}

// WithHost targets a GitHub Enterprise Server instance instead of
// github.com.
func WithHost(host string) GitHubOption {
	return func(cfg *githubConfig) error {
		cfg.host = host
		return nil
	}
}

// WithFallback sets the resolver used when the API call fails. It also
// decides between the https and ssh clone URLs reported by the API.
func WithFallback(s *Static) GitHubOption {
	return func(cfg *githubConfig) error {
		cfg.fallback = s
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) GitHubOption {
	return func(cfg *githubConfig) error {
		cfg.logger = logger
		return nil
	}
}

// NewGitHub creates a GitHub resolver.
//
// Example:
//
//	r, err := remote.NewGitHub(remote.WithToken(os.Getenv("GITHUB_TOKEN")))
func NewGitHub(opts ...GitHubOption) (*GitHub, error) {
	cfg := &githubConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.fallback == nil {
		s, err := NewStatic(cfg.host, ProtocolHTTPS)
		if err != nil {
			return nil, err
		}
		cfg.fallback = s
	}

	if cfg.client == nil {
		var httpClient *http.Client
		if cfg.token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.token})
			httpClient = oauth2.NewClient(context.Background(), ts)
		}
		cfg.client = github.NewClient(httpClient)

		if cfg.host != "" && cfg.host != DefaultHost {
			base := "https://" + cfg.host + "/api/v3/"
			upload := "https://" + cfg.host + "/api/uploads/"
			client, err := cfg.client.WithEnterpriseURLs(base, upload)
			if err != nil {
				err = errors.Wrap(err, errors.CodeInvalidConfig, "invalid GitHub Enterprise host")
				return nil, errors.WithContext(err, "host", cfg.host)
			}
			cfg.client = client
		}
	}

	if cfg.logger == nil {
		cfg.logger = logging.NewNopLogger()
	}

	return &GitHub{
		client:   cfg.client,
		fallback: cfg.fallback,
		logger:   cfg.logger,
	}, nil
}

// Resolve implements Resolver. API failures are logged and answered by the
// fallback resolver, so Resolve only fails if the fallback does.
func (g *GitHub) Resolve(ctx context.Context, owner, repo string) (Remote, error) {
	r, resp, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		err = wrapAPIError(err, resp, "failed to look up repository")
		g.logger.WithRepository(owner, repo).Debug(ctx, "GitHub API lookup failed, using static URL",
			"error", errors.Describe(err))
		return g.fallback.Resolve(ctx, owner, repo)
	}

	url := r.GetCloneURL()
	if g.fallback.Protocol == ProtocolSSH {
		url = r.GetSSHURL()
	}
	if url == "" {
		url = g.fallback.URL(owner, repo)
	}

	return Remote{URL: url, DefaultBranch: r.GetDefaultBranch()}, nil
}

// wrapAPIError maps a go-github failure to a platform error by HTTP status.
func wrapAPIError(err error, resp *github.Response, message string) error {
	if resp == nil || resp.Response == nil {
		return errors.Wrap(err, errors.CodeNetwork, message)
	}

	var code errors.ErrorCode
	switch status := resp.StatusCode; {
	case status == http.StatusNotFound:
		code = errors.CodeNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = errors.CodeUnauthorized
	case status == http.StatusTooManyRequests:
		code = errors.CodeRateLimit
	case status >= 500:
		code = errors.CodeNetwork
	default:
		code = errors.CodeInternal
	}

	return errors.WithContext(errors.Wrap(err, code, message), "status", resp.StatusCode)
}
