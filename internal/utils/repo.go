package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/hyperdocs/hyperdocs/internal/model"
)

// DefaultRepoHost is assumed for bare "owner/repo" references.
const DefaultRepoHost = "github.com"

var (
	ErrEmptyRepoURL   = errors.New("empty repository url")
	ErrInvalidRepoURL = errors.New("invalid repository url")
)

// ParseRepoURL extracts host, owner and repository name from a repository
// reference. Accepted forms:
//
//	owner/repo
//	github.com/owner/repo
//	https://github.com/owner/repo(.git)
//	https://github.com/owner/repo/tree/main/docs   (trailing segments ignored)
//	git@github.com:owner/repo.git
//
// The host is lower-cased and converted to punycode.
func ParseRepoURL(raw string) (model.RepoRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.RepoRef{}, ErrEmptyRepoURL
	}

	// scp-like syntax: git@host:owner/repo.git
	if !strings.Contains(raw, "://") && strings.Contains(raw, "@") && strings.Contains(raw, ":") {
		at := strings.Index(raw, "@")
		rest := raw[at+1:]
		host, p, _ := strings.Cut(rest, ":")
		raw = "ssh://" + host + "/" + p
	}

	if !strings.Contains(raw, "://") {
		first, _, _ := strings.Cut(raw, "/")
		if strings.Contains(first, ".") {
			raw = "https://" + raw
		} else {
			raw = "https://" + DefaultRepoHost + "/" + raw
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return model.RepoRef{}, fmt.Errorf("%w: %v", ErrInvalidRepoURL, err)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return model.RepoRef{}, fmt.Errorf("%w: missing host in %q", ErrInvalidRepoURL, raw)
	}
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	if port := u.Port(); port != "" && port != "443" && port != "80" && u.Scheme != "ssh" {
		host = host + ":" + port
	}

	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) < 2 {
		return model.RepoRef{}, fmt.Errorf("%w: expected owner/repo in %q", ErrInvalidRepoURL, raw)
	}

	owner := segs[0]
	name := strings.TrimSuffix(segs[1], ".git")
	if !validRepoSegment(owner) || !validRepoSegment(name) {
		return model.RepoRef{}, fmt.Errorf("%w: expected owner/repo in %q", ErrInvalidRepoURL, raw)
	}

	return model.RepoRef{
		Host:  host,
		Owner: owner,
		Name:  name,
		URL:   "https://" + host + "/" + owner + "/" + name,
	}, nil
}

// validRepoSegment reports whether s can name an owner or repository. Dot
// segments and path separators never can.
func validRepoSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// BlobURL returns the web URL of a file on the given branch, e.g.
// https://github.com/owner/repo/blob/master/docs/intro.md.
func BlobURL(repo model.RepoRef, branch, path string) string {
	if branch == "" {
		branch = "master"
	}
	return repo.URL + "/blob/" + branch + "/" + strings.TrimPrefix(path, "/")
}
