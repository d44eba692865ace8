package issue

import (
	"net/url"
	"strings"
)

// deepLinkHost is the only action understood in deep links.
const deepLinkHost = "open"

// parseWebURL handles https://<host>/<owner>/<repo>/issues/<N>. Any host is
// accepted; the path must have exactly those four segments.
func parseWebURL(s string) (Reference, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Reference{}, invalid(s, "malformed URL")
	}

	var segments []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	if len(segments) != 4 || segments[2] != "issues" {
		return Reference{}, invalid(s, "expected a URL like https://github.com/owner/repo/issues/42")
	}

	n, err := parseNumber(segments[3], s)
	if err != nil {
		return Reference{}, err
	}

	return validate(Reference{Owner: segments[0], Repo: segments[1], Number: n}, s)
}

// parseShorthand handles owner/repo#N: split on the first '#', then the
// left side on the first '/'.
func parseShorthand(s string) (Reference, error) {
	repoPart, num, _ := strings.Cut(s, "#")
	owner, repo, ok := strings.Cut(repoPart, "/")
	if !ok {
		return Reference{}, invalid(s, "missing '/' between owner and repo")
	}

	n, err := parseNumber(num, s)
	if err != nil {
		return Reference{}, err
	}

	return validate(Reference{Owner: owner, Repo: repo, Number: n}, s)
}

// parseDeepLink handles <scheme>://open?owner=..&repo=..&issue=.. and the
// url= form that embeds an issue URL. Unknown keys are ignored.
func parseDeepLink(s string) (Reference, DeepLinkOptions, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Reference{}, DeepLinkOptions{}, invalid(s, "malformed link")
	}
	if u.Host != deepLinkHost {
		return Reference{}, DeepLinkOptions{}, invalid(s, "unsupported link action "+u.Host)
	}

	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return Reference{}, DeepLinkOptions{}, invalid(s, "malformed query")
	}

	opts := DeepLinkOptions{Editor: q.Get("editor")}

	if embedded := q.Get("url"); embedded != "" {
		ref, err := parseWebURL(embedded)
		if err != nil {
			return Reference{}, DeepLinkOptions{}, err
		}
		return ref, opts, nil
	}

	for _, key := range []string{"owner", "repo", "issue"} {
		if q.Get(key) == "" {
			return Reference{}, DeepLinkOptions{}, invalid(s, "missing '"+key+"' parameter")
		}
	}

	n, err := parseNumber(q.Get("issue"), s)
	if err != nil {
		return Reference{}, DeepLinkOptions{}, err
	}

	ref, err := validate(Reference{Owner: q.Get("owner"), Repo: q.Get("repo"), Number: n}, s)
	if err != nil {
		return Reference{}, DeepLinkOptions{}, err
	}
	return ref, opts, nil
}
