// Package fetcher rebuilds the pages of a site ahead of visitors so the
// serving cache holds fresh copies.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/metrics"
)

// PageKind names the pipeline that serves a page.
type PageKind string

const (
	PageHome  PageKind = "home"
	PageIndex PageKind = "index"
	PageDocs  PageKind = "docs"
	PageBlog  PageKind = "blog"
)

// Page identifies one servable page of a site. Slug is empty for home and
// index pages.
type Page struct {
	Site string   `json:"site"`
	Kind PageKind `json:"kind"`
	Slug string   `json:"slug,omitempty"`
}

func (p Page) String() string {
	if p.Slug == "" {
		return p.Site + "/" + string(p.Kind)
	}
	return p.Site + "/" + string(p.Kind) + "/" + p.Slug
}

// Builder rebuilds one page and stores the result where visitors read it.
type Builder interface {
	Warm(ctx context.Context, page Page) error
}

// Result is the outcome of warming one page.
type Result struct {
	Page     Page          `json:"page"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report summarizes a Fetch run.
type Report struct {
	Warmed  int      `json:"warmed"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

// Fetcher warms pages with bounded concurrency.
type Fetcher struct {
	cfg      Config
	builder  Builder
	recorder metrics.Recorder
	logger   logging.Logger

	inFlight atomic.Int32
}

// New creates a Fetcher that warms pages through builder.
func New(cfg Config, builder Builder, recorder metrics.Recorder, logger logging.Logger) (*Fetcher, error) {
	if builder == nil {
		return nil, errors.New("fetcher: builder is nil")
	}
	def := DefaultConfig()
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = def.PageTimeout
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Fetcher{cfg: cfg, builder: builder, recorder: recorder, logger: logger}, nil
}

// Fetch warms every page and reports per-page outcomes in input order.
// Pages not started before ctx is done are reported as failed.
func (f *Fetcher) Fetch(ctx context.Context, pages []Page) *Report {
	var wg sync.WaitGroup
	sem := make(chan struct{}, f.cfg.MaxConcurrency)
	type indexed struct {
		i int
		r Result
	}
	resCh := make(chan indexed)
	collectorDone := make(chan struct{})

	results := make([]Result, len(pages))
	go func() {
		defer close(collectorDone)
		for r := range resCh {
			results[r.i] = r.r
		}
	}()

	for i, page := range pages {
		if ctx.Err() != nil {
			for j := i; j < len(pages); j++ {
				results[j] = Result{Page: pages[j], Error: ctx.Err().Error()}
			}
			break
		}

		wg.Add(1)
		go func(i int, page Page) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				resCh <- indexed{i, Result{Page: page, Error: ctx.Err().Error()}}
				return
			}
			defer func() { <-sem }()

			resCh <- indexed{i, f.warm(ctx, page)}
		}(i, page)
	}

	wg.Wait()
	close(resCh)
	<-collectorDone

	rep := &Report{Results: results}
	for _, r := range results {
		if r.Error == "" {
			rep.Warmed++
		} else {
			rep.Failed++
		}
	}
	f.logger.Info("warm finished",
		logging.Field{Key: "warmed", Value: rep.Warmed},
		logging.Field{Key: "failed", Value: rep.Failed})
	return rep
}

func (f *Fetcher) warm(ctx context.Context, page Page) Result {
	f.recorder.SetWarmConcurrency(int(f.inFlight.Add(1)))
	defer func() { f.recorder.SetWarmConcurrency(int(f.inFlight.Add(-1))) }()

	pageCtx, cancel := context.WithTimeout(ctx, f.cfg.PageTimeout)
	defer cancel()

	start := time.Now()
	err := f.builder.Warm(pageCtx, page)
	res := Result{Page: page, Duration: time.Since(start)}
	if err != nil {
		res.Error = fmt.Sprintf("warm %s: %v", page, err)
		f.logger.Warn("error while warming page",
			logging.Field{Key: "page", Value: page.String()},
			logging.Field{Key: "error", Value: err.Error()})
	}
	return res
}
