package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hyperdocs/hyperdocs/internal/cache"
	"github.com/hyperdocs/hyperdocs/internal/events"
	"github.com/hyperdocs/hyperdocs/internal/fetcher"
	"github.com/hyperdocs/hyperdocs/internal/interfaces"
	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/metrics"
	"github.com/hyperdocs/hyperdocs/internal/notify"
	"github.com/hyperdocs/hyperdocs/internal/registry"
	"github.com/hyperdocs/hyperdocs/internal/source"
	"github.com/hyperdocs/hyperdocs/internal/utils"
	"github.com/hyperdocs/hyperdocs/internal/webclient"
)

// Application is the global runtime state container. It owns the record
// store, the page pipelines, the serving cache and the cache warmer. Pass
// it to the modules that need shared state rather than using package-level
// variables.
type Application struct {
	Config   *Config
	Logger   logging.Logger
	Registry *registry.Registry
	Orch     *Orchestrator
	Cache    *cache.Cache[*Result]
	Events   *events.Hub
	Warmer   *fetcher.Fetcher
	Metrics  *prom.Registry
	Recorder metrics.Recorder

	source  interfaces.ContentSource
	db      *sql.DB
	closers []func() error

	// internal context for background work (source watching)
	ctx    context.Context
	cancel context.CancelFunc
}

// NewApplication opens the registry under cfg.StorageRoot and constructs
// every service from cfg.
func NewApplication(cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	root, err := ExpandHome(cfg.StorageRoot)
	if err != nil {
		return nil, err
	}
	if root != ":memory:" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("create storage root: %w", err)
		}
	}
	dbPath := ":memory:"
	if root != ":memory:" {
		dbPath = filepath.Join(root, "registry.db")
	}
	db, err := registry.Open(dbPath)
	if err != nil {
		return nil, err
	}

	a := &Application{Config: cfg, Logger: logger, db: db}
	a.closers = append(a.closers, db.Close)
	if err := a.wire(); err != nil {
		_ = a.close()
		return nil, err
	}
	return a, nil
}

func (a *Application) wire() error {
	cfg, logger := a.Config, a.Logger

	reg, err := registry.NewRegistry(a.db, logger.With(logging.Field{Key: "component", Value: "registry"}))
	if err != nil {
		return fmt.Errorf("init registry: %w", err)
	}
	a.Registry = reg

	wc, err := webclient.New(cfg.WebClient, logger.With(logging.Field{Key: "component", Value: "webclient"}))
	if err != nil {
		return fmt.Errorf("init webclient: %w", err)
	}
	a.closers = append(a.closers, wc.Close)

	src, err := source.New(cfg.Source, wc, logger.With(logging.Field{Key: "component", Value: "source"}))
	if err != nil {
		return fmt.Errorf("init content source: %w", err)
	}
	a.source = src

	notifier, closeNotifier, err := notify.New(cfg.Notify, wc, logger)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	a.closers = append(a.closers, closeNotifier)

	a.Metrics = prom.NewRegistry()
	a.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Recorder = metrics.NewPrometheusRecorder(a.Metrics)
	a.Events = events.NewHub(64)

	a.Orch, err = NewOrchestrator(cfg, reg, src, notifier, logger,
		WithEvents(a.Events), WithRecorder(a.Recorder))
	if err != nil {
		return err
	}
	a.Cache = cache.New[*Result](cfg.Cache, logger.With(logging.Field{Key: "component", Value: "cache"}), a.Recorder)

	a.Warmer, err = fetcher.New(cfg.Warmer, a, a.Recorder, logger.With(logging.Field{Key: "component", Value: "warmer"}))
	if err != nil {
		return err
	}
	return nil
}

// Start launches background work: the cache janitor and, for the local
// backend, the repository watcher.
func (a *Application) Start() error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	if err := a.Cache.Start(); err != nil {
		return err
	}
	if local, ok := a.source.(*source.Local); ok {
		changes, err := local.Watch(a.ctx)
		if err != nil {
			return fmt.Errorf("watch local sources: %w", err)
		}
		go a.purgeOnChange(changes)
	}
	a.Logger.Info("application started",
		logging.Field{Key: "backend", Value: string(a.Config.Source.Backend)})
	return nil
}

// Shutdown stops background work and releases every resource.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")
	if a.cancel != nil {
		a.cancel()
	}
	if err := a.Cache.Stop(); err != nil {
		a.Logger.Warn("cache janitor shutdown returned error", logging.Field{Key: "error", Value: err.Error()})
	}

	done := make(chan error, 1)
	go func() { done <- a.close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Application) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ─── Serving ───

// buildFailure carries a failed Result through the cache so the previous
// copy of a page stays servable.
type buildFailure struct {
	res *Result
}

func (b *buildFailure) Error() string {
	return fmt.Sprintf("%s: %v", b.res.Kind, b.res.Err)
}

func pageKey(page fetcher.Page) string {
	return cache.Key(page.Site, string(page.Kind), page.Slug)
}

// Page serves page through the cache. Fresh copies are returned directly,
// expired ones are returned while a rebuild runs in the background. A page
// that no longer exists is evicted; other failures keep the previous copy.
func (a *Application) Page(ctx context.Context, page fetcher.Page) *Result {
	res, err := a.Cache.Get(ctx, pageKey(page), a.loader(page))
	if err != nil {
		var bf *buildFailure
		if errors.As(err, &bf) {
			return bf.res
		}
		kind := KindTransport
		if errors.Is(ctx.Err(), context.Canceled) {
			kind = KindCanceled
		}
		return &Result{Page: page, State: StateFailed, Kind: kind, Err: err}
	}
	return res
}

func (a *Application) loader(page fetcher.Page) cache.Loader[*Result] {
	return func(ctx context.Context) (*Result, time.Duration, error) {
		res := a.Orch.Build(ctx, page)
		switch {
		case res.Assembled():
			return res, res.Revalidate, nil
		case res.Kind == KindNotFound:
			return res, 0, nil
		default:
			return nil, 0, &buildFailure{res: res}
		}
	}
}

// Warm rebuilds page and stores it, replacing any cached copy.
func (a *Application) Warm(ctx context.Context, page fetcher.Page) error {
	res := a.Orch.Build(ctx, page)
	key := pageKey(page)
	if !res.Assembled() {
		if res.Kind == KindNotFound {
			a.Cache.Delete(key)
		}
		return fmt.Errorf("%s: %w", res.Kind, res.Err)
	}
	a.Cache.Set(key, res, res.Revalidate)
	return nil
}

// Revalidate drops every cached page of a site and rebuilds its pages.
func (a *Application) Revalidate(ctx context.Context, siteSlug string) (*fetcher.Report, error) {
	pages, err := a.Orch.SitePages(ctx, siteSlug)
	if err != nil {
		return nil, err
	}
	purged := a.Cache.PurgeSite(siteSlug)
	a.Logger.Info("revalidating site",
		logging.Field{Key: "site", Value: siteSlug},
		logging.Field{Key: "purged", Value: purged},
		logging.Field{Key: "pages", Value: len(pages)})
	return a.Warmer.Fetch(ctx, pages), nil
}

// purgeOnChange drops the cached pages of every site served from a changed
// local repository.
func (a *Application) purgeOnChange(changes <-chan source.Change) {
	for ch := range changes {
		sites, err := a.Registry.ListSites(a.ctx)
		if err != nil {
			a.Logger.Warn("list sites after change", logging.Field{Key: "error", Value: err.Error()})
			continue
		}
		for _, site := range sites {
			repo, err := utils.ParseRepoURL(site.RepoURL)
			if err != nil || !strings.EqualFold(repo.Owner, ch.Owner) || !strings.EqualFold(repo.Name, ch.Name) {
				continue
			}
			n := a.Cache.PurgeSite(site.Slug)
			a.Logger.Info("local sources changed, cache purged",
				logging.Field{Key: "site", Value: site.Slug},
				logging.Field{Key: "file", Value: ch.File},
				logging.Field{Key: "purged", Value: n})
		}
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
