package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
)

// Git reads files from a shallow in-memory clone. Nothing touches disk and
// every call clones afresh.
type Git struct {
	baseURL string
	branch  string
	depth   int
	logger  logging.Logger
}

func NewGit(cfg Config, logger logging.Logger) *Git {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Git{
		baseURL: strings.TrimRight(cfg.GitBaseURL, "/"),
		branch:  cfg.Branch,
		depth:   cfg.GitDepth,
		logger:  logger,
	}
}

// ListDirectory lists docs/dir in lexical order.
func (g *Git) ListDirectory(ctx context.Context, repo model.RepoRef, dir, cred string) ([]model.Entry, error) {
	p, err := docsPath(dir)
	if err != nil {
		return nil, err
	}
	fs, err := g.clone(ctx, repo, cred)
	if err != nil {
		return nil, transport(repo, p, err)
	}

	infos, err := fs.ReadDir(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(repo, p)
		}
		return nil, transport(repo, p, err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	entries := make([]model.Entry, 0, len(infos))
	for _, fi := range infos {
		typ := model.EntryFile
		if fi.IsDir() {
			typ = model.EntryDir
		}
		entries = append(entries, model.Entry{Name: fi.Name(), Path: path.Join(p, fi.Name()), Type: typ})
	}
	return entries, nil
}

// ReadFile returns the contents of docs/p at the cloned ref.
func (g *Git) ReadFile(ctx context.Context, repo model.RepoRef, p, cred string) ([]byte, error) {
	full, err := docsPath(p)
	if err != nil {
		return nil, err
	}
	fs, err := g.clone(ctx, repo, cred)
	if err != nil {
		return nil, transport(repo, full, err)
	}

	fi, err := fs.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(repo, full)
		}
		return nil, transport(repo, full, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s %s is a directory", ErrNotFound, repo.FullName(), full)
	}

	f, err := fs.Open(full)
	if err != nil {
		return nil, transport(repo, full, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, transport(repo, full, err)
	}
	return data, nil
}

func (g *Git) cloneURL(repo model.RepoRef) string {
	if g.baseURL != "" {
		return g.baseURL + "/" + repo.Owner + "/" + repo.Name
	}
	return repo.URL + ".git"
}

func (g *Git) clone(ctx context.Context, repo model.RepoRef, cred string) (billy.Filesystem, error) {
	fs := memfs.New()
	opts := &git.CloneOptions{
		URL:          g.cloneURL(repo),
		Depth:        g.depth,
		SingleBranch: true,
		Tags:         git.NoTags,
	}
	if g.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(g.branch)
	}
	if cred != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: cred}
	}

	g.logger.Debug("cloning repository",
		logging.Field{Key: "repo", Value: repo.FullName()},
		logging.Field{Key: "depth", Value: g.depth})

	if _, err := git.CloneContext(ctx, memory.NewStorage(), fs, opts); err != nil {
		g.logger.Warn("clone failed",
			logging.Field{Key: "repo", Value: repo.FullName()},
			logging.Field{Key: "error", Value: err})
		return nil, fmt.Errorf("clone %s: %w", repo.FullName(), err)
	}
	return fs, nil
}
