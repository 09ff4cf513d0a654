package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/utils"
	"github.com/hyperdocs/hyperdocs/internal/webclient"
)

const githubAPI = "https://api.github.com"

// GitHub reads files through the repository contents REST API.
type GitHub struct {
	client  webclient.WebClient
	apiBase string
	branch  string
	logger  logging.Logger
}

// contentItem is the subset of the contents API response we read. A file
// request returns a single object, a directory request an array of them.
type contentItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Encoding    string `json:"encoding"`
	Content     string `json:"content"`
	DownloadURL string `json:"download_url"`
}

func NewGitHub(cfg Config, wc webclient.WebClient, logger logging.Logger) (*GitHub, error) {
	if wc == nil {
		return nil, errors.New("github source requires a webclient")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &GitHub{
		client:  wc,
		apiBase: strings.TrimRight(cfg.APIBaseURL, "/"),
		branch:  cfg.Branch,
		logger:  logger,
	}, nil
}

// ListDirectory returns the entries of docs/dir in the order GitHub lists them.
func (g *GitHub) ListDirectory(ctx context.Context, repo model.RepoRef, dir, cred string) ([]model.Entry, error) {
	p, err := docsPath(dir)
	if err != nil {
		return nil, err
	}
	body, err := g.get(ctx, repo, p, cred)
	if err != nil {
		return nil, err
	}
	if !isJSONArray(body) {
		return nil, fmt.Errorf("%w: %s %s is not a directory", ErrNotFound, repo.FullName(), p)
	}

	var items []contentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, transport(repo, p, fmt.Errorf("decode listing: %w", err))
	}

	entries := make([]model.Entry, 0, len(items))
	for _, it := range items {
		typ := model.EntryFile
		if it.Type == "dir" {
			typ = model.EntryDir
		} else if it.Type != "file" {
			continue
		}
		entries = append(entries, model.Entry{Name: it.Name, Path: it.Path, Type: typ})
	}
	return entries, nil
}

// ReadFile returns the decoded contents of docs/p.
func (g *GitHub) ReadFile(ctx context.Context, repo model.RepoRef, p, cred string) ([]byte, error) {
	full, err := docsPath(p)
	if err != nil {
		return nil, err
	}
	body, err := g.get(ctx, repo, full, cred)
	if err != nil {
		return nil, err
	}
	if isJSONArray(body) {
		return nil, fmt.Errorf("%w: %s %s is a directory", ErrNotFound, repo.FullName(), full)
	}

	var item contentItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, transport(repo, full, fmt.Errorf("decode file: %w", err))
	}
	if item.Type != "" && item.Type != "file" {
		return nil, fmt.Errorf("%w: %s %s is a %s", ErrNotFound, repo.FullName(), full, item.Type)
	}

	switch item.Encoding {
	case "base64":
		// GitHub wraps the payload at 60 columns.
		raw := strings.NewReplacer("\n", "", "\r", "").Replace(item.Content)
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, transport(repo, full, fmt.Errorf("decode base64: %w", err))
		}
		return data, nil
	case "none", "":
		// Files above the API's inline limit come without content.
		if item.DownloadURL == "" {
			return []byte(item.Content), nil
		}
		return g.download(ctx, repo, full, item.DownloadURL, cred)
	default:
		return nil, transport(repo, full, fmt.Errorf("unsupported encoding %q", item.Encoding))
	}
}

func (g *GitHub) get(ctx context.Context, repo model.RepoRef, p, cred string) ([]byte, error) {
	u := g.contentsURL(repo, p)
	hdrs := http.Header{}
	hdrs.Set("Accept", "application/vnd.github+json")
	hdrs.Set("X-GitHub-Api-Version", "2022-11-28")
	if cred != "" {
		hdrs.Set("Authorization", "Bearer "+cred)
	}

	resp, err := g.client.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: u, Headers: hdrs})
	if err != nil {
		g.logger.Warn("contents request failed",
			logging.Field{Key: "repo", Value: repo.FullName()},
			logging.Field{Key: "path", Value: p},
			logging.Field{Key: "timeout", Value: webclient.IsTimeout(err)},
			logging.Field{Key: "error", Value: err})
		return nil, transport(repo, p, err)
	}
	if err := classifyStatus(repo, p, resp.StatusCode); err != nil {
		g.logger.Debug("contents request rejected",
			logging.Field{Key: "repo", Value: repo.FullName()},
			logging.Field{Key: "path", Value: p},
			logging.Field{Key: "status", Value: resp.StatusCode})
		return nil, err
	}
	return resp.Body, nil
}

func (g *GitHub) download(ctx context.Context, repo model.RepoRef, p, rawURL, cred string) ([]byte, error) {
	hdrs := http.Header{}
	if cred != "" {
		hdrs.Set("Authorization", "Bearer "+cred)
	}
	resp, err := g.client.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: rawURL, Headers: hdrs})
	if err != nil {
		return nil, transport(repo, p, err)
	}
	if err := classifyStatus(repo, p, resp.StatusCode); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (g *GitHub) contentsURL(repo model.RepoRef, p string) string {
	base := g.apiBase
	if base == "" {
		if repo.Host == "" || repo.Host == utils.DefaultRepoHost {
			base = githubAPI
		} else {
			base = "https://" + repo.Host + "/api/v3"
		}
	}

	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	u := base + "/repos/" + url.PathEscape(repo.Owner) + "/" + url.PathEscape(repo.Name) + "/contents/" + strings.Join(segs, "/")
	if g.branch != "" {
		u += "?ref=" + url.QueryEscape(g.branch)
	}
	return u
}

func classifyStatus(repo model.RepoRef, p string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return notFound(repo, p)
	default:
		return transport(repo, p, fmt.Errorf("unexpected status %d", status))
	}
}

func isJSONArray(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
