package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/hyperdocs/hyperdocs/internal/app"
	"github.com/hyperdocs/hyperdocs/internal/bundle"
	"github.com/hyperdocs/hyperdocs/internal/fetcher"
	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/registry"
	"github.com/hyperdocs/hyperdocs/internal/server"
)

// CLI is the hyperdocs command line. Global flags apply to every command.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path (YAML)" type:"path" env:"HYPERDOCS_CONFIG"`
	EnvFile string `name:"env-file" help:"Dotenv file loaded before the configuration; missing is fine" default:".env"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Serve  ServeCmd  `cmd:"" default:"withargs" help:"Serve page payloads and the dashboard API"`
	Render RenderCmd `cmd:"" help:"Build one page and print its payload"`
	Warm   WarmCmd   `cmd:"" help:"Purge and rebuild every page of a site"`
	Sites  SitesCmd  `cmd:"" help:"Manage registered sites"`
}

// Globals are bound into every command's Run method.
type Globals struct {
	Out io.Writer
	Err io.Writer
}

// Parse parses args without reading os.Args. Use in tests by passing
// arbitrary slices.
func Parse(args []string, opts ...kong.Option) (*kong.Context, *CLI, error) {
	var c CLI
	base := []kong.Option{
		kong.Name("hyperdocs"),
		kong.Description("Multi-tenant docs and blog hosting pipeline."),
		kong.UsageOnError(),
	}
	parser, err := kong.New(&c, append(base, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return nil, nil, err
	}
	return kctx, &c, nil
}

// Run parses args and executes the selected command.
func Run(args []string, g *Globals) error {
	if g == nil {
		g = &Globals{Out: os.Stdout, Err: os.Stderr}
	}
	kctx, c, err := Parse(args, kong.Writers(g.Out, g.Err))
	if err != nil {
		return err
	}
	return kctx.Run(g, c)
}

// load reads the dotenv file, then the configuration, and builds the
// logger. Logs go to g.Err so command output stays parseable.
func (c *CLI) load(g *Globals) (*app.Config, logging.Logger, error) {
	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("load %s: %w", c.EnvFile, err)
		}
	}
	cfg, err := app.LoadConfig(c.Config)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if c.Verbose {
		level = "debug"
	}
	return cfg, logging.NewLogger(g.Err, "hyperdocs", level), nil
}

// application builds an Application for one-shot commands. The caller
// must call the returned release function.
func (c *CLI) application(g *Globals) (*app.Application, func(), error) {
	cfg, logger, err := c.load(g)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.NewApplication(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			logger.Warn("application shutdown returned error", logging.Field{Key: "error", Value: err.Error()})
		}
	}
	return a, release, nil
}

// ─── serve ───

// ServeCmd runs the HTTP server until SIGINT or SIGTERM.
type ServeCmd struct {
	Listen string `help:"Listen address; overrides server.listen_addr"`
}

func (s *ServeCmd) Run(g *Globals, root *CLI) error {
	cfg, logger, err := root.load(g)
	if err != nil {
		return err
	}
	if s.Listen != "" {
		cfg.Server.ListenAddr = s.Listen
	}

	srv, err := server.NewServer(server.Config{AppConfig: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	if err := srv.Application().Start(); err != nil {
		return fmt.Errorf("start application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	logger.Info("listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
	if cfg.Server.AdminToken == "" {
		logger.Warn("admin token not set; dashboard API disabled")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// ─── render ───

// RenderCmd builds a single page without the cache and prints it.
type RenderCmd struct {
	Site string `arg:"" help:"Site slug"`
	Page string `arg:"" optional:"" help:"Empty for the home page, 'docs' for the index, 'docs/<file>' or 'blog/<slug>'"`
	HTML bool   `help:"Print rendered HTML instead of the JSON payload"`
}

// ParsePage maps a page path as typed on the command line to a Page.
func ParsePage(site, p string) (fetcher.Page, error) {
	p = strings.Trim(p, "/")
	page := fetcher.Page{Site: site}
	switch {
	case p == "":
		page.Kind = fetcher.PageHome
	case p == "docs":
		page.Kind = fetcher.PageIndex
	case strings.HasPrefix(p, "docs/") && len(p) > len("docs/"):
		page.Kind, page.Slug = fetcher.PageDocs, strings.TrimPrefix(p, "docs/")
	case strings.HasPrefix(p, "blog/") && len(p) > len("blog/"):
		page.Kind, page.Slug = fetcher.PageBlog, strings.TrimPrefix(p, "blog/")
	default:
		return fetcher.Page{}, fmt.Errorf("unrecognized page %q: want '', 'docs', 'docs/<file>' or 'blog/<slug>'", p)
	}
	if strings.Contains(page.Slug, "/") {
		return fetcher.Page{}, fmt.Errorf("unrecognized page %q: nested slugs are not served", p)
	}
	return page, nil
}

func (r *RenderCmd) Run(g *Globals, root *CLI) error {
	page, err := ParsePage(r.Site, r.Page)
	if err != nil {
		return err
	}
	a, release, err := root.application(g)
	if err != nil {
		return err
	}
	defer release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := a.Orch.Build(ctx, page)
	if !res.Assembled() {
		return fmt.Errorf("%s: %s (%s): %v", page, res.State, res.Kind, res.Err)
	}

	var (
		payload any
		code    string
	)
	if res.Blog != nil {
		payload, code = res.Blog, res.Blog.Code
	} else {
		payload, code = res.Payload, res.Payload.Code
	}

	if !r.HTML {
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}
	el, err := bundle.Evaluate(code, bundle.DefaultRegistry())
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", page, err)
	}
	body, err := bundle.RenderHTML(el)
	if err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err = fmt.Fprintln(g.Out, body)
	return err
}

// ─── warm ───

// WarmCmd revalidates a site and prints one line per page.
type WarmCmd struct {
	Site string `arg:"" help:"Site slug"`
}

func (w *WarmCmd) Run(g *Globals, root *CLI) error {
	a, release, err := root.application(g)
	if err != nil {
		return err
	}
	defer release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.Revalidate(ctx, w.Site)
	if err != nil {
		return fmt.Errorf("revalidate %s: %w", w.Site, err)
	}
	for _, r := range report.Results {
		if r.Error != "" {
			fmt.Fprintf(g.Out, "FAIL %-32s %s\n", r.Page, r.Error)
			continue
		}
		fmt.Fprintf(g.Out, "ok   %-32s %s\n", r.Page, r.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(g.Out, "%d warmed, %d failed\n", report.Warmed, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d pages failed", report.Failed, len(report.Results))
	}
	return nil
}

// ─── sites ───

type SitesCmd struct {
	List   SitesListCmd   `cmd:"" help:"List registered sites"`
	Create SitesCreateCmd `cmd:"" help:"Register a site"`
}

type SitesListCmd struct{}

func (s *SitesListCmd) Run(g *Globals, root *CLI) error {
	a, release, err := root.application(g)
	if err != nil {
		return err
	}
	defer release()

	sites, err := a.Registry.ListSites(context.Background())
	if err != nil {
		return err
	}
	for _, site := range sites {
		fmt.Fprintf(g.Out, "%-24s %-32s %s\n", site.Slug, site.Name, site.RepoURL)
	}
	return nil
}

type SitesCreateCmd struct {
	Name        string   `required:"" help:"Display name"`
	Repo        string   `required:"" help:"Repository URL, e.g. https://github.com/acme/handbook"`
	Slug        string   `help:"URL slug; derived from the name when empty"`
	Description string   `help:"Short description"`
	Token       string   `help:"Repository access token" env:"HYPERDOCS_SITE_TOKEN"`
	Sidebar     []string `help:"Explicit sidebar manifest, comma separated" sep:","`
}

func (s *SitesCreateCmd) Run(g *Globals, root *CLI) error {
	a, release, err := root.application(g)
	if err != nil {
		return err
	}
	defer release()

	site, err := a.Registry.CreateSite(context.Background(), registry.SiteInput{
		Slug:        s.Slug,
		Name:        s.Name,
		Description: s.Description,
		RepoURL:     s.Repo,
		AccessToken: s.Token,
		Sidebar:     s.Sidebar,
	})
	if err != nil {
		return fmt.Errorf("create site: %w", err)
	}
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(site)
}
