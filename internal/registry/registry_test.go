package registry_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/registry"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		t.Logf("pragmas: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewRegistry(openTestDB(t), logging.NopLogger{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func createSite(t *testing.T, reg *registry.Registry, slug string) *model.Site {
	t.Helper()
	site, err := reg.CreateSite(context.Background(), registry.SiteInput{
		Slug:    slug,
		Name:    "Site " + slug,
		RepoURL: "https://github.com/acme/" + slug,
	})
	if err != nil {
		t.Fatalf("CreateSite(%s): %v", slug, err)
	}
	return site
}

// ─── Sites ──────────────────────────────────────────────────────────────

func TestRegistry_CreateAndGetSite(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	site, err := reg.CreateSite(ctx, registry.SiteInput{
		Name:        "Acme Docs",
		Description: "docs for acme",
		RepoURL:     "acme/docs",
		AccessToken: "secret",
		NavLinks: []model.NavLink{
			{Label: "Home", Href: "/"},
			{Label: "GitHub", Href: "https://github.com/acme/docs"},
		},
		Sidebar: []string{"intro", "setup"},
	})
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	if site.Slug != "acme-docs" {
		t.Fatalf("expected slug derived from name, got %q", site.Slug)
	}
	if site.ID == "" || site.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be set: %+v", site)
	}

	got, err := reg.GetSiteBySlug(ctx, "Acme-Docs")
	if err != nil {
		t.Fatalf("GetSiteBySlug: %v", err)
	}
	if got.ID != site.ID {
		t.Fatalf("wrong site id, want %s got %s", site.ID, got.ID)
	}
	if got.AccessToken != "secret" {
		t.Fatalf("expected access token to be stored")
	}
	if len(got.NavLinks) != 2 || got.NavLinks[0].Label != "Home" || got.NavLinks[1].Label != "GitHub" {
		t.Fatalf("nav links not preserved in order: %+v", got.NavLinks)
	}
	if strings.Join(got.Sidebar, ",") != "intro,setup" {
		t.Fatalf("sidebar not preserved: %v", got.Sidebar)
	}

	byID, err := reg.GetSiteByID(ctx, site.ID)
	if err != nil {
		t.Fatalf("GetSiteByID: %v", err)
	}
	if byID.Slug != site.Slug {
		t.Fatalf("GetSiteByID returned %s", byID.Slug)
	}
}

func TestRegistry_SiteNotFound(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	if _, err := reg.GetSiteBySlug(ctx, "missing"); !errors.Is(err, registry.ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound, got %v", err)
	}
	if _, err := reg.GetSiteByID(ctx, "missing"); !errors.Is(err, registry.ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound, got %v", err)
	}
	if _, err := reg.UpdateSiteHomePage(ctx, "missing", "# hi"); !errors.Is(err, registry.ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound on update, got %v", err)
	}
	if _, err := reg.SetNavLinks(ctx, "missing", nil); !errors.Is(err, registry.ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound on SetNavLinks, got %v", err)
	}
}

func TestRegistry_CreateSiteValidation(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   registry.SiteInput
	}{
		{"missing name", registry.SiteInput{RepoURL: "acme/docs"}},
		{"missing repo", registry.SiteInput{Name: "x"}},
		{"bad repo", registry.SiteInput{Name: "x", RepoURL: "https://github.com/only-owner"}},
		{"sidebar traversal", registry.SiteInput{Name: "x", RepoURL: "acme/docs", Sidebar: []string{"../secret"}}},
		{"empty nav label", registry.SiteInput{Name: "x", RepoURL: "acme/docs", NavLinks: []model.NavLink{{Href: "/"}}}},
	}
	for _, tc := range cases {
		if _, err := reg.CreateSite(ctx, tc.in); !errors.Is(err, registry.ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tc.name, err)
		}
	}
}

func TestRegistry_DuplicateSlug(t *testing.T) {
	reg := newRegistry(t)
	createSite(t, reg, "dup")

	_, err := reg.CreateSite(context.Background(), registry.SiteInput{Slug: "dup", Name: "Other", RepoURL: "acme/other"})
	if !errors.Is(err, registry.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestRegistry_ListSites(t *testing.T) {
	reg := newRegistry(t)
	createSite(t, reg, "one")
	createSite(t, reg, "two")

	sites, err := reg.ListSites(context.Background())
	if err != nil {
		t.Fatalf("ListSites: %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("expected 2 sites got %d", len(sites))
	}
	if sites[0].Slug != "one" || sites[1].Slug != "two" {
		t.Fatalf("expected creation order, got %s, %s", sites[0].Slug, sites[1].Slug)
	}
}

func TestRegistry_UpdateSite(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	site := createSite(t, reg, "upd")

	if _, err := reg.UpdateSiteHomePage(ctx, site.ID, "# Welcome"); err != nil {
		t.Fatalf("UpdateSiteHomePage: %v", err)
	}
	if _, err := reg.UpdateSiteNavCTA(ctx, site.ID, "  Get started "); err != nil {
		t.Fatalf("UpdateSiteNavCTA: %v", err)
	}
	if _, err := reg.UpdateSiteSidebar(ctx, site.ID, []string{"b", "a"}); err != nil {
		t.Fatalf("UpdateSiteSidebar: %v", err)
	}
	links := []model.NavLink{{Label: "Blog", Href: "/upd/blog"}}
	if _, err := reg.SetNavLinks(ctx, site.ID, links); err != nil {
		t.Fatalf("SetNavLinks: %v", err)
	}

	got, err := reg.GetSiteBySlug(ctx, "upd")
	if err != nil {
		t.Fatalf("GetSiteBySlug: %v", err)
	}
	if got.HomePage != "# Welcome" {
		t.Fatalf("home page not updated: %q", got.HomePage)
	}
	if got.NavCTA != "Get started" {
		t.Fatalf("cta not trimmed: %q", got.NavCTA)
	}
	if strings.Join(got.Sidebar, ",") != "b,a" {
		t.Fatalf("sidebar order not preserved: %v", got.Sidebar)
	}
	if len(got.NavLinks) != 1 || got.NavLinks[0].Label != "Blog" {
		t.Fatalf("nav links not replaced: %+v", got.NavLinks)
	}

	cleared, err := reg.UpdateSiteSidebar(ctx, site.ID, nil)
	if err != nil {
		t.Fatalf("clear sidebar: %v", err)
	}
	if cleared.HasManifest() {
		t.Fatalf("expected empty sidebar after clearing, got %v", cleared.Sidebar)
	}
}

func TestRegistry_UpdateSiteSettingsToken(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	site, err := reg.CreateSite(ctx, registry.SiteInput{Name: "Tok", RepoURL: "acme/tok", AccessToken: "old"})
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}

	got, err := reg.UpdateSiteSettings(ctx, site.ID, registry.SiteSettings{Name: "Renamed", RepoURL: "acme/tok"})
	if err != nil {
		t.Fatalf("UpdateSiteSettings: %v", err)
	}
	if got.Name != "Renamed" || got.AccessToken != "old" {
		t.Fatalf("expected name change with token kept, got %+v", got)
	}

	empty := ""
	got, err = reg.UpdateSiteSettings(ctx, site.ID, registry.SiteSettings{Name: "Renamed", RepoURL: "acme/tok", AccessToken: &empty})
	if err != nil {
		t.Fatalf("UpdateSiteSettings: %v", err)
	}
	if got.AccessToken != "" {
		t.Fatalf("expected token cleared, got %q", got.AccessToken)
	}

	if _, err := reg.UpdateSiteSettings(ctx, site.ID, registry.SiteSettings{RepoURL: "acme/tok"}); !errors.Is(err, registry.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing name, got %v", err)
	}
}

// ─── Blogs ──────────────────────────────────────────────────────────────

func TestRegistry_BlogLifecycle(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	site := createSite(t, reg, "blogsite")

	blog, err := reg.CreateBlog(ctx, registry.BlogInput{
		SiteID:  site.ID,
		Title:   "Hello World",
		Author:  "ops",
		Content: "first draft",
	})
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	if blog.Slug != "hello-world" {
		t.Fatalf("expected slug from title, got %q", blog.Slug)
	}
	if blog.Published {
		t.Fatalf("new blog should not be published by default")
	}

	if _, err := reg.GetBlogBySlug(ctx, "blogsite", "hello-world"); !errors.Is(err, registry.ErrBlogNotFound) {
		t.Fatalf("unpublished blog must not be served, got %v", err)
	}

	pub := true
	content := "final text"
	updated, err := reg.UpdateBlog(ctx, blog.ID, registry.BlogUpdate{Published: &pub, Content: &content})
	if err != nil {
		t.Fatalf("UpdateBlog: %v", err)
	}
	if !updated.Published || updated.Content != "final text" || updated.Author != "ops" {
		t.Fatalf("unexpected blog after update: %+v", updated)
	}

	got, err := reg.GetBlogBySlug(ctx, "blogsite", "hello-world")
	if err != nil {
		t.Fatalf("GetBlogBySlug: %v", err)
	}
	if got.ID != blog.ID {
		t.Fatalf("GetBlogBySlug returned wrong blog")
	}

	if _, err := reg.GetBlogBySlug(ctx, "nosuchsite", "hello-world"); !errors.Is(err, registry.ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound, got %v", err)
	}
	if _, err := reg.GetBlogByID(ctx, "nope"); !errors.Is(err, registry.ErrBlogNotFound) {
		t.Fatalf("expected ErrBlogNotFound, got %v", err)
	}

	blogs, err := reg.ListBlogs(ctx, site.ID)
	if err != nil {
		t.Fatalf("ListBlogs: %v", err)
	}
	if len(blogs) != 1 {
		t.Fatalf("expected 1 blog, got %d", len(blogs))
	}
}

func TestRegistry_CreateBlogUnknownSite(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.CreateBlog(context.Background(), registry.BlogInput{SiteID: "missing", Title: "x"})
	if !errors.Is(err, registry.ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound, got %v", err)
	}
}

func TestRegistry_BlogValidation(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	site := createSite(t, reg, "val")

	if _, err := reg.CreateBlog(ctx, registry.BlogInput{SiteID: site.ID}); !errors.Is(err, registry.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing title, got %v", err)
	}
	if _, err := reg.CreateBlog(ctx, registry.BlogInput{SiteID: site.ID, Title: "x", OGImageURL: "not a url"}); !errors.Is(err, registry.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for bad og image url, got %v", err)
	}

	blog, err := reg.CreateBlog(ctx, registry.BlogInput{SiteID: site.ID, Title: "x"})
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	empty := ""
	if _, err := reg.UpdateBlog(ctx, blog.ID, registry.BlogUpdate{Title: &empty}); !errors.Is(err, registry.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty title, got %v", err)
	}
	if _, err := reg.UpdateBlog(ctx, "missing", registry.BlogUpdate{}); !errors.Is(err, registry.ErrBlogNotFound) {
		t.Fatalf("expected ErrBlogNotFound, got %v", err)
	}
}

func TestRegistry_BlogSlugConflict(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	site := createSite(t, reg, "conf")

	if _, err := reg.CreateBlog(ctx, registry.BlogInput{SiteID: site.ID, Title: "Same"}); err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	if _, err := reg.CreateBlog(ctx, registry.BlogInput{SiteID: site.ID, Title: "Same"}); !errors.Is(err, registry.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}

	other := createSite(t, reg, "other")
	if _, err := reg.CreateBlog(ctx, registry.BlogInput{SiteID: other.ID, Title: "Same"}); err != nil {
		t.Fatalf("same slug on another site should be allowed: %v", err)
	}
}

// ─── Revisions ──────────────────────────────────────────────────────────

func TestRegistry_BlogRevisionsReplay(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	site := createSite(t, reg, "rev")

	blog, err := reg.CreateBlog(ctx, registry.BlogInput{SiteID: site.ID, Title: "Rev", Content: "line one\n"})
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}

	steps := []string{
		"line one\nline two\n",
		"line 1\nline two\n",
		"line 1\nline two\n", // unchanged: no revision
	}
	for i := range steps {
		if _, err := reg.UpdateBlog(ctx, blog.ID, registry.BlogUpdate{Content: &steps[i]}); err != nil {
			t.Fatalf("UpdateBlog step %d: %v", i, err)
		}
	}
	title := "Renamed"
	if _, err := reg.UpdateBlog(ctx, blog.ID, registry.BlogUpdate{Title: &title}); err != nil {
		t.Fatalf("UpdateBlog title: %v", err)
	}

	revs, err := reg.ListBlogRevisions(ctx, blog.ID)
	if err != nil {
		t.Fatalf("ListBlogRevisions: %v", err)
	}
	if len(revs) != 3 {
		t.Fatalf("expected 3 revisions (create + 2 content changes), got %d", len(revs))
	}
	for _, r := range revs {
		if r.BlogID != blog.ID || r.Patch == "" {
			t.Fatalf("unexpected revision: %+v", r)
		}
	}

	content, err := registry.ApplyRevisions(revs)
	if err != nil {
		t.Fatalf("ApplyRevisions: %v", err)
	}
	if content != "line 1\nline two\n" {
		t.Fatalf("replayed content mismatch: %q", content)
	}

	if _, err := reg.ListBlogRevisions(ctx, "missing"); !errors.Is(err, registry.ErrBlogNotFound) {
		t.Fatalf("expected ErrBlogNotFound, got %v", err)
	}
}

func TestOpen_Memory(t *testing.T) {
	db, err := registry.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if _, err := registry.NewRegistry(db, nil); err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := registry.NewRegistry(nil, nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
