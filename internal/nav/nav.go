// Package nav resolves the ordered list of page slugs shown in a site's
// sidebar.
package nav

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperdocs/hyperdocs/internal/interfaces"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/utils"
)

// ErrUnavailable means no manifest exists and the docs listing failed.
var ErrUnavailable = errors.New("navigation unavailable")

type Resolver struct {
	src interfaces.ContentSource
}

func NewResolver(src interfaces.ContentSource) *Resolver {
	return &Resolver{src: src}
}

// Resolve returns the site's manifest when it has one. Otherwise it lists
// docs/, keeps markdown files in listing order with the extension removed,
// and leaves out the index page.
func (r *Resolver) Resolve(ctx context.Context, site *model.Site, repo model.RepoRef) ([]string, error) {
	if site.HasManifest() {
		out := make([]string, len(site.Sidebar))
		copy(out, site.Sidebar)
		return out, nil
	}

	entries, err := r.src.ListDirectory(ctx, repo, "", site.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return FromListing(entries), nil
}

// FromListing derives navigation from a docs/ listing.
func FromListing(entries []model.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type != model.EntryFile {
			continue
		}
		slug, ok := utils.StripMarkdownExt(e.Name)
		if !ok || slug == "" || slug == model.IndexSlug {
			continue
		}
		out = append(out, slug)
	}
	return out
}
