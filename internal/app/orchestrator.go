package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hyperdocs/hyperdocs/internal/bundle"
	"github.com/hyperdocs/hyperdocs/internal/events"
	"github.com/hyperdocs/hyperdocs/internal/fetcher"
	"github.com/hyperdocs/hyperdocs/internal/interfaces"
	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/metrics"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/nav"
	"github.com/hyperdocs/hyperdocs/internal/toc"
	"github.com/hyperdocs/hyperdocs/internal/utils"
)

// Orchestrator runs the page pipelines. Site configuration and credentials
// are looked up per request, so one Orchestrator serves every tenant.
type Orchestrator struct {
	cfg      PipelineConfig
	branch   string
	store    interfaces.SiteStore
	source   interfaces.ContentSource
	nav      *nav.Resolver
	compiler *bundle.Compiler
	toc      *toc.Extractor
	notifier interfaces.Notifier
	events   events.Publisher
	recorder metrics.Recorder
	logger   logging.Logger
}

type Option func(*Orchestrator)

// WithEvents publishes every state transition to p.
func WithEvents(p events.Publisher) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.events = p
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// NewOrchestrator ties together config, record store, content source and
// notifier.
func NewOrchestrator(cfg *Config, store interfaces.SiteStore, src interfaces.ContentSource, notifier interfaces.Notifier, logger logging.Logger, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("orchestrator: nil site store")
	}
	if src == nil {
		return nil, errors.New("orchestrator: nil content source")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	o := &Orchestrator{
		cfg:      cfg.Pipeline,
		branch:   cfg.Source.Branch,
		store:    store,
		source:   src,
		nav:      nav.NewResolver(src),
		compiler: bundle.NewCompiler(),
		toc:      toc.New(cfg.TOC),
		notifier: notifier,
		events:   events.Discard{},
		recorder: metrics.NoopRecorder{},
		logger:   logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Build dispatches page to its pipeline.
func (o *Orchestrator) Build(ctx context.Context, page fetcher.Page) *Result {
	switch page.Kind {
	case fetcher.PageDocs:
		return o.BuildDocsPage(ctx, page.Site, page.Slug)
	case fetcher.PageIndex:
		return o.BuildIndex(ctx, page.Site)
	case fetcher.PageBlog:
		return o.BuildBlog(ctx, page.Site, page.Slug)
	case fetcher.PageHome:
		return o.BuildHome(ctx, page.Site)
	}
	r := o.begin(page)
	return r.fail(ctx, KindNotFound, fmt.Errorf("unknown page kind %q", page.Kind))
}

// BuildDocsPage renders docs/<file>.md with a heading derived from file.
// Failures after the site is resolved are reported to the operator.
func (o *Orchestrator) BuildDocsPage(ctx context.Context, siteSlug, file string) *Result {
	r := o.begin(fetcher.Page{Site: siteSlug, Kind: fetcher.PageDocs, Slug: file})
	if !r.resolveSite(ctx) {
		return r.res
	}

	r.enter(StateFetchingContent)
	r.notify = true
	navigation, err := o.nav.Resolve(ctx, r.site, r.repo)
	if err != nil {
		return r.fail(ctx, KindNavigationUnavailable, err)
	}
	content, err := o.source.ReadFile(ctx, r.repo, file+model.MarkdownExt, r.site.AccessToken)
	if err != nil {
		return r.fail(ctx, Classify(err), err)
	}

	r.enter(StateBundling)
	b, outline, err := o.compile(ctx, content, utils.TitleFromSlug(file))
	if err != nil {
		return r.fail(ctx, KindCompile, err)
	}
	return r.assemblePage(file, b, outline, navigation, o.cfg.DocsRevalidate)
}

// BuildIndex renders docs/index.md. When it cannot be read and the home
// fallback is enabled, the first sidebar entry is rendered instead.
func (o *Orchestrator) BuildIndex(ctx context.Context, siteSlug string) *Result {
	r := o.begin(fetcher.Page{Site: siteSlug, Kind: fetcher.PageIndex})
	if !r.resolveSite(ctx) {
		return r.res
	}
	return o.buildIndex(ctx, r, o.cfg.IndexRevalidate)
}

func (o *Orchestrator) buildIndex(ctx context.Context, r *run, revalidate time.Duration) *Result {
	r.enter(StateFetchingContent)
	navigation, navErr := o.nav.Resolve(ctx, r.site, r.repo)

	file := model.IndexSlug
	content, err := o.source.ReadFile(ctx, r.repo, file+model.MarkdownExt, r.site.AccessToken)
	if err != nil {
		if !o.cfg.HomeFallback {
			return r.fail(ctx, Classify(err), err)
		}
		if navErr != nil {
			return r.fail(ctx, KindNavigationUnavailable, fmt.Errorf("read %s: %w; fallback: %w", file, err, navErr))
		}
		if len(navigation) == 0 {
			return r.fail(ctx, Classify(err), fmt.Errorf("read %s: %w; no sidebar entry to fall back to", file, err))
		}
		r.logger.Info("index unavailable, falling back to first sidebar entry",
			logging.Field{Key: "fallback", Value: navigation[0]},
			logging.Field{Key: "error", Value: err.Error()})
		file = navigation[0]
		content, err = o.source.ReadFile(ctx, r.repo, file+model.MarkdownExt, r.site.AccessToken)
		if err != nil {
			return r.fail(ctx, Classify(err), err)
		}
	}
	if navErr != nil {
		r.logger.Warn("navigation unavailable, serving index without sidebar",
			logging.Field{Key: "error", Value: navErr.Error()})
		navigation = []string{}
	}

	r.enter(StateBundling)
	b, outline, err := o.compile(ctx, content, "")
	if err != nil {
		return r.fail(ctx, KindCompile, err)
	}
	return r.assemblePage(file, b, outline, navigation, revalidate)
}

// BuildHome renders the site's home page markdown. A site without one is
// served its docs index.
func (o *Orchestrator) BuildHome(ctx context.Context, siteSlug string) *Result {
	r := o.begin(fetcher.Page{Site: siteSlug, Kind: fetcher.PageHome})
	if !r.resolveSite(ctx) {
		return r.res
	}
	if r.site.HomePage == "" {
		return o.buildIndex(ctx, r, o.cfg.IndexRevalidate)
	}

	r.enter(StateFetchingContent)
	navigation, err := o.nav.Resolve(ctx, r.site, r.repo)
	if err != nil {
		r.logger.Warn("navigation unavailable, serving home page without sidebar",
			logging.Field{Key: "error", Value: err.Error()})
		navigation = []string{}
	}

	r.enter(StateBundling)
	b, outline, err := o.compile(ctx, []byte(r.site.HomePage), "")
	if err != nil {
		return r.fail(ctx, KindCompile, err)
	}
	return r.assemblePage("", b, outline, navigation, o.cfg.HomeRevalidate)
}

// BuildBlog renders a published blog post of the site.
func (o *Orchestrator) BuildBlog(ctx context.Context, siteSlug, blogSlug string) *Result {
	r := o.begin(fetcher.Page{Site: siteSlug, Kind: fetcher.PageBlog, Slug: blogSlug})
	if !r.resolveSite(ctx) {
		return r.res
	}

	r.enter(StateFetchingContent)
	blog, err := o.store.GetBlogBySlug(ctx, r.site.Slug, blogSlug)
	if err != nil {
		return r.fail(ctx, Classify(err), err)
	}

	r.enter(StateBundling)
	b, err := o.compiler.Compile([]byte(blog.Content))
	if err != nil {
		return r.fail(ctx, KindCompile, err)
	}

	r.res.Blog = &model.BlogPayload{
		Code:        b.Code,
		Frontmatter: b.Frontmatter,
		Title:       blog.Title,
		Description: blog.Description,
		OGImageURL:  blog.OGImageURL,
		Author:      blog.Author,
		UpdatedAt:   blog.UpdatedAt,
		Site:        r.site.Meta(),
		Revalidate:  int(o.cfg.BlogRevalidate / time.Second),
	}
	return r.assemble(o.cfg.BlogRevalidate)
}

// SitePages lists every page of a site worth keeping warm: home, index, the
// sidebar entries and the published blogs.
func (o *Orchestrator) SitePages(ctx context.Context, siteSlug string) ([]fetcher.Page, error) {
	site, err := o.store.GetSiteBySlug(ctx, siteSlug)
	if err != nil {
		return nil, err
	}
	pages := []fetcher.Page{
		{Site: site.Slug, Kind: fetcher.PageHome},
		{Site: site.Slug, Kind: fetcher.PageIndex},
	}

	if repo, err := utils.ParseRepoURL(site.RepoURL); err == nil {
		navigation, err := o.nav.Resolve(ctx, site, repo)
		if err != nil {
			o.logger.Warn("skipping docs pages, navigation unavailable",
				logging.Field{Key: "site", Value: site.Slug},
				logging.Field{Key: "error", Value: err.Error()})
		}
		for _, slug := range navigation {
			pages = append(pages, fetcher.Page{Site: site.Slug, Kind: fetcher.PageDocs, Slug: slug})
		}
	}

	blogs, err := o.store.ListBlogs(ctx, site.ID)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	for _, b := range blogs {
		if b.Published {
			pages = append(pages, fetcher.Page{Site: site.Slug, Kind: fetcher.PageBlog, Slug: b.Slug})
		}
	}
	return pages, nil
}

// compile bundles content and extracts its outline concurrently. A non-empty
// title is prepended as a heading to the bundle; the outline leaves it out
// but reserves its anchor.
func (o *Orchestrator) compile(ctx context.Context, content []byte, title string) (*bundle.Bundle, toc.Result, error) {
	var (
		b       *bundle.Bundle
		outline toc.Result
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if title == "" {
			b, err = o.compiler.Compile(content)
		} else {
			b, err = o.compiler.CompileTitled(content, title)
		}
		return err
	})
	g.Go(func() error {
		_, body, _, err := bundle.SplitFrontmatter(content)
		if err != nil {
			return err
		}
		outline = o.toc.ExtractTitled(body, title)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, toc.Result{}, err
	}
	return b, outline, nil
}

// ─── run ───

// run carries the state of one pipeline execution.
type run struct {
	o      *Orchestrator
	res    *Result
	site   *model.Site
	repo   model.RepoRef
	logger logging.Logger

	start      time.Time
	stageStart time.Time
	// notify is set once a docs page request reaches content fetching.
	notify bool
}

func (o *Orchestrator) begin(page fetcher.Page) *run {
	now := time.Now()
	id := uuid.New().String()
	r := &run{
		o:          o,
		res:        &Result{BuildID: id, Page: page, State: StateResolvingSite},
		logger:     o.logger.With(logging.Field{Key: "build_id", Value: id}, logging.Field{Key: "page", Value: page.String()}),
		start:      now,
		stageStart: now,
	}
	r.publish(events.TypeState)
	return r
}

// resolveSite looks the site up and parses its repository. It reports false
// when the run has already failed.
func (r *run) resolveSite(ctx context.Context) bool {
	site, err := r.o.store.GetSiteBySlug(ctx, r.res.Page.Site)
	if err != nil {
		kind := KindTransport
		if errors.Is(err, interfaces.ErrSiteNotFound) {
			kind = KindNotFound
		}
		r.fail(ctx, kind, err)
		return false
	}
	repo, err := utils.ParseRepoURL(site.RepoURL)
	if err != nil {
		r.site = site
		r.fail(ctx, KindNotFound, err)
		return false
	}
	r.site, r.repo = site, repo
	r.logger = r.logger.With(logging.Field{Key: "repo", Value: repo.FullName()})
	return true
}

func (r *run) enter(state State) {
	now := time.Now()
	r.o.recorder.ObserveStageDuration(string(r.res.State), now.Sub(r.stageStart))
	r.stageStart = now
	r.res.State = state
	r.publish(events.TypeState)
}

func (r *run) fail(ctx context.Context, kind FailureKind, err error) *Result {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		kind = KindCanceled
	}
	r.res.Kind = kind
	r.res.Err = err
	if kind == KindCanceled {
		r.logger.Debug("page build canceled",
			logging.Field{Key: "state", Value: string(r.res.State)},
			logging.Field{Key: "error", Value: err.Error()})
		r.finish(StateFailed)
		return r.res
	}
	if r.notify && (kind != KindNotFound || r.o.cfg.NotifyNotFound) {
		r.sendNotification(ctx, err)
	}
	r.logger.Warn("page build failed",
		logging.Field{Key: "state", Value: string(r.res.State)},
		logging.Field{Key: "kind", Value: string(kind)},
		logging.Field{Key: "error", Value: err.Error()})
	r.finish(StateFailed)
	return r.res
}

func (r *run) assemblePage(file string, b *bundle.Bundle, outline toc.Result, navigation []string, revalidate time.Duration) *Result {
	if navigation == nil {
		navigation = []string{}
	}
	r.res.Payload = &model.PagePayload{
		File:        file,
		Code:        b.Code,
		Frontmatter: b.Frontmatter,
		TOCHTML:     outline.HTML,
		TOC:         outline.Outline,
		Navigation:  navigation,
		Site:        r.site.Meta(),
		Revalidate:  int(revalidate / time.Second),
	}
	return r.assemble(revalidate)
}

func (r *run) assemble(revalidate time.Duration) *Result {
	r.res.Revalidate = revalidate
	r.finish(StateAssembled)
	r.logger.Debug("page assembled", logging.Field{Key: "duration", Value: time.Since(r.start).String()})
	return r.res
}

func (r *run) finish(state State) {
	now := time.Now()
	r.o.recorder.ObserveStageDuration(string(r.res.State), now.Sub(r.stageStart))
	r.res.State = state
	pipeline := string(r.res.Page.Kind)
	outcome := "assembled"
	if state == StateFailed {
		outcome = string(r.res.Kind)
	}
	r.o.recorder.ObservePipelineDuration(pipeline, now.Sub(r.start))
	r.o.recorder.IncPipelineOutcome(pipeline, outcome)
	r.publish(events.TypeResult)
}

func (r *run) sendNotification(ctx context.Context, cause error) {
	if r.o.notifier == nil {
		return
	}
	path := model.DocsRoot + "/" + r.res.Page.Slug + model.MarkdownExt
	n := model.Notification{
		SiteName: r.site.Name,
		SiteSlug: r.site.Slug,
		File:     path,
		RepoLink: utils.BlobURL(r.repo, r.o.branch, path),
		Message:  fmt.Sprintf("There's an error with the %s site while building %s.", r.site.Name, path),
		Error:    cause.Error(),
		At:       time.Now().UTC(),
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.o.cfg.NotifyTimeout)
	defer cancel()
	r.res.Notified = true
	err := r.o.notifier.Notify(nctx, n)
	r.o.recorder.IncNotification(err == nil)
	if err != nil {
		r.logger.Error("failed to notify operator", logging.Field{Key: "error", Value: err.Error()})
	}
}

func (r *run) publish(typ events.Type) {
	ev := events.Event{
		BuildID:  r.res.BuildID,
		Site:     r.res.Page.Site,
		Pipeline: string(r.res.Page.Kind),
		File:     r.res.Page.Slug,
		Type:     typ,
		State:    string(r.res.State),
		Kind:     string(r.res.Kind),
	}
	if r.res.Err != nil {
		ev.Error = r.res.Err.Error()
	}
	r.o.events.Publish(ev)
}
