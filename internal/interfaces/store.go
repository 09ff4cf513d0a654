package interfaces

import (
	"context"
	"errors"

	"github.com/hyperdocs/hyperdocs/internal/model"
)

var (
	ErrSiteNotFound = errors.New("site not found")
	ErrBlogNotFound = errors.New("blog not found")
)

// SiteStore is the read side of the record store used by the page pipeline.
// Missing records are reported with ErrSiteNotFound and ErrBlogNotFound;
// GetBlogBySlug only returns published blogs.
type SiteStore interface {
	GetSiteBySlug(ctx context.Context, slug string) (*model.Site, error)
	ListSites(ctx context.Context) ([]*model.Site, error)
	GetBlogBySlug(ctx context.Context, siteSlug, blogSlug string) (*model.Blog, error)
	ListBlogs(ctx context.Context, siteID string) ([]*model.Blog, error)
}
