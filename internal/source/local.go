package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
)

// Local serves repositories checked out below a root directory laid out as
// <root>/<owner>/<name>/docs. It is meant for previews and self-hosting.
type Local struct {
	root     string
	debounce time.Duration
	logger   logging.Logger
}

// Change reports that files of a repository changed on disk.
type Change struct {
	Owner string
	Name  string
	// File is the path relative to docs/, empty when unknown.
	File string
}

func NewLocal(cfg Config, logger logging.Logger) (*Local, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.LocalRoot == "" {
		return nil, errors.New("local source requires a root directory")
	}
	root, err := filepath.Abs(cfg.LocalRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve local root: %w", err)
	}
	return &Local{root: root, debounce: cfg.WatchDebounce, logger: logger}, nil
}

// Root returns the absolute root directory.
func (l *Local) Root() string { return l.root }

// repoDir resolves repo below the root. Owners and names that would
// leave the root are reported as not found.
func (l *Local) repoDir(repo model.RepoRef) (string, error) {
	for _, seg := range []string{repo.Owner, repo.Name} {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
			return "", fmt.Errorf("%w: repository %q outside %s", ErrNotFound, repo.FullName(), l.root)
		}
	}
	return filepath.Join(l.root, repo.Owner, repo.Name), nil
}

// ListDirectory lists docs/dir in lexical order.
func (l *Local) ListDirectory(_ context.Context, repo model.RepoRef, dir, _ string) ([]model.Entry, error) {
	p, err := docsPath(dir)
	if err != nil {
		return nil, err
	}
	dir, err = l.repoDir(repo)
	if err != nil {
		return nil, err
	}
	des, err := os.ReadDir(filepath.Join(dir, filepath.FromSlash(p)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(repo, p)
		}
		return nil, transport(repo, p, err)
	}
	entries := make([]model.Entry, 0, len(des))
	for _, de := range des {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		typ := model.EntryFile
		if de.IsDir() {
			typ = model.EntryDir
		}
		entries = append(entries, model.Entry{Name: de.Name(), Path: path.Join(p, de.Name()), Type: typ})
	}
	return entries, nil
}

// ReadFile returns the contents of docs/p.
func (l *Local) ReadFile(_ context.Context, repo model.RepoRef, p, _ string) ([]byte, error) {
	full, err := docsPath(p)
	if err != nil {
		return nil, err
	}
	dir, err := l.repoDir(repo)
	if err != nil {
		return nil, err
	}
	abs := filepath.Join(dir, filepath.FromSlash(full))
	fi, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(repo, full)
		}
		return nil, transport(repo, full, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s %s is a directory", ErrNotFound, repo.FullName(), full)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, transport(repo, full, err)
	}
	return data, nil
}

// Watch reports changes below the root until ctx is done. Events for the
// same repository are coalesced over the configured debounce window. The
// returned channel is closed when watching stops.
func (l *Local) Watch(ctx context.Context) (<-chan Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := os.MkdirAll(l.root, 0o750); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("create local root: %w", err)
	}
	l.addDirsRecursive(watcher, l.root)

	out := make(chan Change, 16)
	go l.watchLoop(ctx, watcher, out)
	return out, nil
}

func (l *Local) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- Change) {
	var (
		mu      sync.Mutex
		pending = map[string]*time.Timer{}
		wg      sync.WaitGroup
		closed  bool
	)
	emit := func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- c:
		default:
			l.logger.Warn("dropping change event, consumer too slow",
				logging.Field{Key: "repo", Value: c.Owner + "/" + c.Name})
		}
	}
	defer func() {
		_ = watcher.Close()
		mu.Lock()
		for _, t := range pending {
			if t.Stop() {
				wg.Done()
			}
		}
		mu.Unlock()
		wg.Wait()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					l.addDirsRecursive(watcher, ev.Name)
				}
			}
			c, ok := l.changeFor(ev.Name)
			if !ok {
				continue
			}
			if l.debounce <= 0 {
				emit(c)
				continue
			}
			key := c.Owner + "/" + c.Name
			mu.Lock()
			if t, exists := pending[key]; exists && t.Stop() {
				wg.Done()
			}
			wg.Add(1)
			c.File = ""
			pending[key] = time.AfterFunc(l.debounce, func() {
				defer wg.Done()
				mu.Lock()
				delete(pending, key)
				mu.Unlock()
				emit(c)
			})
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("watcher error", logging.Field{Key: "error", Value: err})
		}
	}
}

// changeFor maps an absolute event path onto the repository it belongs to.
func (l *Local) changeFor(name string) (Change, bool) {
	rel, err := filepath.Rel(l.root, name)
	if err != nil {
		return Change{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 3 || parts[0] == ".." {
		return Change{}, false
	}
	for _, p := range parts {
		if strings.HasPrefix(p, ".") || strings.HasSuffix(p, "~") || strings.HasSuffix(p, ".swp") {
			return Change{}, false
		}
	}
	if parts[2] != model.DocsRoot {
		return Change{}, false
	}
	return Change{Owner: parts[0], Name: parts[1], File: strings.Join(parts[3:], "/")}, true
}

func (l *Local) addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != root {
				return filepath.SkipDir
			}
			if err := w.Add(p); err != nil {
				l.logger.Warn("watch add failed",
					logging.Field{Key: "dir", Value: p},
					logging.Field{Key: "error", Value: err})
			}
		}
		return nil
	})
}
