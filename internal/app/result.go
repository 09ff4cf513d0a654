package app

import (
	"context"
	"errors"
	"time"

	"github.com/hyperdocs/hyperdocs/internal/bundle"
	"github.com/hyperdocs/hyperdocs/internal/fetcher"
	"github.com/hyperdocs/hyperdocs/internal/interfaces"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/nav"
	"github.com/hyperdocs/hyperdocs/internal/source"
)

// State is a step of the page pipeline.
type State string

const (
	StateResolvingSite   State = "RESOLVING_SITE"
	StateFetchingContent State = "FETCHING_CONTENT"
	StateBundling        State = "BUNDLING"
	StateAssembled       State = "ASSEMBLED"
	StateFailed          State = "FAILED"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateAssembled || s == StateFailed
}

// FailureKind classifies why a pipeline ended in StateFailed.
type FailureKind string

const (
	KindNotFound              FailureKind = "not_found"
	KindTransport             FailureKind = "transport"
	KindCompile               FailureKind = "compile"
	KindNavigationUnavailable FailureKind = "navigation_unavailable"
	// KindCanceled marks a run abandoned because its caller went away.
	KindCanceled FailureKind = "canceled"
)

// Result is the terminal outcome of one pipeline run. Exactly one of Payload
// and Blog is set when State is StateAssembled.
type Result struct {
	BuildID    string
	Page       fetcher.Page
	State      State
	Kind       FailureKind
	Err        error
	Payload    *model.PagePayload
	Blog       *model.BlogPayload
	Revalidate time.Duration
	// Notified is set when an operator notification was attempted.
	Notified bool
}

// Assembled reports whether the run produced a payload.
func (r *Result) Assembled() bool {
	return r != nil && r.State == StateAssembled
}

// Classify maps a pipeline error onto the failure taxonomy.
func Classify(err error) FailureKind {
	var cerr *bundle.CompileError
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &cerr):
		return KindCompile
	case errors.Is(err, nav.ErrUnavailable):
		return KindNavigationUnavailable
	case errors.Is(err, source.ErrNotFound),
		errors.Is(err, interfaces.ErrSiteNotFound),
		errors.Is(err, interfaces.ErrBlogNotFound):
		return KindNotFound
	default:
		return KindTransport
	}
}
