// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hyperdocs/hyperdocs/internal/interfaces"
	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns the number of recorded warnings.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// By default it returns body "ok:<url>" with status 200.
// Set FailURLs[url] = true to force an error for a specific URL, or
// Status to change the status code of every response.
type DummyWebClient struct {
	ResponseDelay time.Duration
	FailURLs      map[string]bool
	Status        int
	mu            sync.Mutex
	Requests      []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}

	status := d.Status
	if status == 0 {
		status = 200
	}
	return &webclient.Response{
		Request:    req,
		Body:       []byte("ok:" + req.URL),
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: "GET", URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestCount returns the number of requests seen so far.
func (d *DummyWebClient) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// ─── ContentSource ─────────────────────────────────────────────────────

// DummySource implements interfaces.ContentSource from in-memory maps.
// Files are keyed by path relative to docs/ ("intro.md"). A path listed in
// ReadErrs fails with that error; a path missing from Files fails with
// NotFoundErr.
type DummySource struct {
	Entries     []model.Entry
	ListErr     error
	Files       map[string]string
	ReadErrs    map[string]error
	NotFoundErr error
	Delay       time.Duration

	mu        sync.Mutex
	listCalls int
	reads     []string
	lastCred  string
}

func NewDummySource() *DummySource {
	return &DummySource{
		Files:       map[string]string{},
		ReadErrs:    map[string]error{},
		NotFoundErr: errors.New("dummy: not found"),
	}
}

func (d *DummySource) ListDirectory(ctx context.Context, _ model.RepoRef, _ string, cred string) ([]model.Entry, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.listCalls++
	d.lastCred = cred
	d.mu.Unlock()
	if d.ListErr != nil {
		return nil, d.ListErr
	}
	return append([]model.Entry(nil), d.Entries...), nil
}

func (d *DummySource) ReadFile(ctx context.Context, _ model.RepoRef, path, cred string) ([]byte, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.reads = append(d.reads, path)
	d.lastCred = cred
	d.mu.Unlock()
	if err, ok := d.ReadErrs[path]; ok {
		return nil, err
	}
	body, ok := d.Files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", d.NotFoundErr, path)
	}
	return []byte(body), nil
}

func (d *DummySource) wait(ctx context.Context) error {
	if d.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(d.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetListing replaces Entries with files named after slugs.
func (d *DummySource) SetListing(names ...string) {
	d.Entries = d.Entries[:0]
	for _, n := range names {
		typ := model.EntryFile
		if !strings.Contains(n, ".") {
			typ = model.EntryDir
		}
		d.Entries = append(d.Entries, model.Entry{Name: n, Path: "docs/" + n, Type: typ})
	}
}

func (d *DummySource) ListCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listCalls
}

// Reads returns the paths read so far, in order.
func (d *DummySource) Reads() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.reads...)
}

func (d *DummySource) LastCred() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastCred
}

// ─── Notifier ──────────────────────────────────────────────────────────

// DummyNotifier implements interfaces.Notifier and records every call.
type DummyNotifier struct {
	Err error

	mu   sync.Mutex
	Sent []model.Notification
}

func (d *DummyNotifier) Notify(_ context.Context, n model.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Sent = append(d.Sent, n)
	return d.Err
}

func (d *DummyNotifier) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Sent)
}

// ─── SiteStore ─────────────────────────────────────────────────────────

// DummyStore implements interfaces.SiteStore over maps keyed by slug.
type DummyStore struct {
	mu    sync.Mutex
	Sites map[string]*model.Site
	// Blogs is keyed by "<site slug>/<blog slug>".
	Blogs map[string]*model.Blog
	Err   error
}

func NewDummyStore(sites ...*model.Site) *DummyStore {
	s := &DummyStore{Sites: map[string]*model.Site{}, Blogs: map[string]*model.Blog{}}
	for _, site := range sites {
		s.Sites[site.Slug] = site
	}
	return s
}

func (s *DummyStore) GetSiteBySlug(_ context.Context, slug string) (*model.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	site, ok := s.Sites[slug]
	if !ok {
		return nil, interfaces.ErrSiteNotFound
	}
	cp := *site
	return &cp, nil
}

func (s *DummyStore) ListSites(_ context.Context) ([]*model.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]*model.Site, 0, len(s.Sites))
	for _, site := range s.Sites {
		cp := *site
		out = append(out, &cp)
	}
	return out, nil
}

func (s *DummyStore) GetBlogBySlug(_ context.Context, siteSlug, blogSlug string) (*model.Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if _, ok := s.Sites[siteSlug]; !ok {
		return nil, interfaces.ErrSiteNotFound
	}
	b, ok := s.Blogs[siteSlug+"/"+blogSlug]
	if !ok || !b.Published {
		return nil, interfaces.ErrBlogNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *DummyStore) ListBlogs(_ context.Context, siteID string) ([]*model.Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*model.Blog
	for _, b := range s.Blogs {
		if b.SiteID == siteID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ─── helpers ───────────────────────────────────────────────────────────

type errString struct{ s string }

func (e *errString) Error() string { return e.s }
