// Package source reads documentation files from a tenant's repository.
//
// Every backend resolves paths against the repository's docs/ directory and
// reports failures as either ErrNotFound (the content does not exist) or
// ErrTransport (the host could not be reached or refused the request). The
// page pipeline relies on that split to decide what it tells operators.
package source

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hyperdocs/hyperdocs/internal/interfaces"
	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/webclient"
)

var (
	ErrNotFound  = errors.New("source: not found")
	ErrTransport = errors.New("source: transport failure")
)

type Backend string

const (
	BackendGitHub Backend = "github"
	BackendGit    Backend = "git"
	BackendLocal  Backend = "local"
)

// Config selects and configures a source backend.
type Config struct {
	Backend Backend `yaml:"backend"`

	// APIBaseURL overrides the contents API endpoint. Empty means
	// https://api.github.com for github.com and https://<host>/api/v3 for
	// enterprise hosts.
	APIBaseURL string `yaml:"api_base_url"`

	// Branch pins the ref to read. Empty means the repository default.
	Branch string `yaml:"branch"`

	// GitBaseURL replaces the repository host when cloning, so
	// "<GitBaseURL>/<owner>/<name>" is cloned instead of the web URL.
	GitBaseURL string `yaml:"git_base_url"`

	// GitDepth limits clone history. Zero clones everything.
	GitDepth int `yaml:"git_depth"`

	// LocalRoot holds <owner>/<name>/docs trees for the local backend.
	LocalRoot string `yaml:"local_root"`

	// WatchDebounce coalesces bursts of file events in the local backend.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// DefaultConfig returns the GitHub contents backend.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendGitHub,
		GitDepth:      1,
		LocalRoot:     "./sites",
		WatchDebounce: 300 * time.Millisecond,
	}
}

// Constructor builds a backend from cfg. wc is only used by HTTP backends.
type Constructor func(cfg Config, wc webclient.WebClient, logger logging.Logger) (interfaces.ContentSource, error)

var (
	mu           sync.RWMutex
	constructors = map[Backend]Constructor{}
)

func init() {
	Register(BackendGitHub, func(cfg Config, wc webclient.WebClient, logger logging.Logger) (interfaces.ContentSource, error) {
		return NewGitHub(cfg, wc, logger)
	})
	Register(BackendGit, func(cfg Config, _ webclient.WebClient, logger logging.Logger) (interfaces.ContentSource, error) {
		return NewGit(cfg, logger), nil
	})
	Register(BackendLocal, func(cfg Config, _ webclient.WebClient, logger logging.Logger) (interfaces.ContentSource, error) {
		return NewLocal(cfg, logger)
	})
}

// Register makes a backend available to New. Registering an existing name
// replaces it.
func Register(name Backend, ctor Constructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	constructors[Backend(strings.ToLower(string(name)))] = ctor
}

// New constructs the backend named by cfg.Backend.
func New(cfg Config, wc webclient.WebClient, logger logging.Logger) (interfaces.ContentSource, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	name := Backend(strings.ToLower(strings.TrimSpace(string(cfg.Backend))))
	if name == "" {
		name = BackendGitHub
	}
	mu.RLock()
	ctor, ok := constructors[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("source backend %q not registered: available backends=%v", name, Backends())
	}
	src, err := ctor(cfg, wc, logger.With(logging.Field{Key: "source", Value: string(name)}))
	if err != nil {
		return nil, fmt.Errorf("construct source backend %q: %w", name, err)
	}
	return src, nil
}

// Backends lists registered backend names, sorted.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(constructors))
	for k := range constructors {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// docsPath joins p below docs/. Paths escaping docs/ are rejected.
func docsPath(p string) (string, error) {
	p = strings.TrimPrefix(strings.TrimSpace(p), "/")
	if p == "" {
		return model.DocsRoot, nil
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: path %q escapes %s/", ErrNotFound, p, model.DocsRoot)
		}
	}
	return path.Join(model.DocsRoot, p), nil
}

func notFound(repo model.RepoRef, p string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, repo.FullName(), p)
}

func transport(repo model.RepoRef, p string, cause error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrTransport, repo.FullName(), p, cause)
}
