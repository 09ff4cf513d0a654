package nav_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/nav"
	"github.com/hyperdocs/hyperdocs/internal/source"
	"github.com/hyperdocs/hyperdocs/internal/testutil"
)

var repo = model.RepoRef{Host: "github.com", Owner: "acme", Name: "docs", URL: "https://github.com/acme/docs"}

func TestResolve_ManifestWinsWithoutListing(t *testing.T) {
	t.Parallel()
	src := testutil.NewDummySource()
	src.ListErr = errors.New("must not be called")
	site := &model.Site{Sidebar: []string{"intro", "setup"}}

	got, err := nav.NewResolver(src).Resolve(context.Background(), site, repo)
	require.NoError(t, err)
	assert.Equal(t, []string{"intro", "setup"}, got)
	assert.Equal(t, 0, src.ListCalls())

	got[0] = "mutated"
	assert.Equal(t, "intro", site.Sidebar[0])
}

func TestResolve_DerivesFromListing(t *testing.T) {
	t.Parallel()
	src := testutil.NewDummySource()
	src.Entries = []model.Entry{
		{Name: "zeta.md", Type: model.EntryFile},
		{Name: "index.md", Type: model.EntryFile},
		{Name: "images", Type: model.EntryDir},
		{Name: "logo.png", Type: model.EntryFile},
		{Name: "alpha.md", Type: model.EntryFile},
		{Name: "notes.MD", Type: model.EntryFile},
	}
	site := &model.Site{AccessToken: "tok"}

	got, err := nav.NewResolver(src).Resolve(context.Background(), site, repo)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "notes"}, got)
	assert.Equal(t, "tok", src.LastCred())
}

func TestResolve_ListingFailureIsUnavailable(t *testing.T) {
	t.Parallel()
	src := testutil.NewDummySource()
	src.ListErr = source.ErrTransport

	_, err := nav.NewResolver(src).Resolve(context.Background(), &model.Site{}, repo)
	require.ErrorIs(t, err, nav.ErrUnavailable)
	require.ErrorIs(t, err, source.ErrTransport)
}

func TestFromListing_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, nav.FromListing(nil))
	assert.Empty(t, nav.FromListing([]model.Entry{{Name: "index.md", Type: model.EntryFile}}))
}
