package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/registry"
)

// writeStoreError maps registry errors onto HTTP statuses. Validation
// messages are returned to the caller; anything else is logged.
func (s *Server) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, registry.ErrSiteNotFound), errors.Is(err, registry.ErrBlogNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, registry.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrSlugTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Warn(op, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// purge drops the cached pages of a site after its records changed.
func (s *Server) purge(site *model.Site) {
	n := s.app.Cache.PurgeSite(site.Slug)
	s.logger.Debug("purged site cache", logging.Field{Key: "site", Value: site.Slug}, logging.Field{Key: "entries", Value: n})
}

// Sites

// @Summary Create a site
// @Tags sites
// @Security AdminToken
// @Accept json
// @Produce json
// @Param body body registry.SiteInput true "Site"
// @Success 201 {object} model.Site
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/sites [post]
func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var body registry.SiteInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	site, err := s.app.Registry.CreateSite(r.Context(), body)
	if err != nil {
		s.writeStoreError(w, "creating site", err)
		return
	}
	s.logger.Info("created site", logging.Field{Key: "slug", Value: site.Slug})
	writeJSON(w, http.StatusCreated, site)
}

// @Summary List sites
// @Tags sites
// @Security AdminToken
// @Produce json
// @Success 200 {array} model.Site
// @Router /api/sites [get]
func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.app.Registry.ListSites(r.Context())
	if err != nil {
		s.writeStoreError(w, "listing sites", err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

// @Summary Get a site
// @Tags sites
// @Security AdminToken
// @Produce json
// @Param id path string true "Site ID"
// @Success 200 {object} model.Site
// @Failure 404 {object} ErrorResponse
// @Router /api/sites/{id} [get]
func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	site, err := s.app.Registry.GetSiteByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, "getting site", err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// @Summary Update site settings
// @Tags sites
// @Security AdminToken
// @Accept json
// @Produce json
// @Param id path string true "Site ID"
// @Param body body registry.SiteSettings true "Settings"
// @Success 200 {object} model.Site
// @Failure 400 {object} ErrorResponse
// @Router /api/sites/{id} [patch]
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body registry.SiteSettings
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	site, err := s.app.Registry.UpdateSiteSettings(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.writeStoreError(w, "updating site settings", err)
		return
	}
	s.purge(site)
	writeJSON(w, http.StatusOK, site)
}

// @Summary Update the home page
// @Tags sites
// @Security AdminToken
// @Accept json
// @Produce json
// @Param body body UpdateHomePageRequest true "Home page markdown"
// @Success 200 {object} model.Site
// @Router /api/update/homepage [post]
func (s *Server) handleUpdateHomePage(w http.ResponseWriter, r *http.Request) {
	var body UpdateHomePageRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	site, err := s.app.Registry.UpdateSiteHomePage(r.Context(), body.SiteID, body.HomePage)
	if err != nil {
		s.writeStoreError(w, "updating home page", err)
		return
	}
	s.purge(site)
	writeJSON(w, http.StatusOK, site)
}

// @Summary Update the navbar call to action
// @Tags sites
// @Security AdminToken
// @Accept json
// @Produce json
// @Param body body UpdateNavCTARequest true "CTA"
// @Success 200 {object} model.Site
// @Router /api/update/navbar-cta [post]
func (s *Server) handleUpdateNavCTA(w http.ResponseWriter, r *http.Request) {
	var body UpdateNavCTARequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	site, err := s.app.Registry.UpdateSiteNavCTA(r.Context(), body.SiteID, body.NavCTA)
	if err != nil {
		s.writeStoreError(w, "updating navbar cta", err)
		return
	}
	s.purge(site)
	writeJSON(w, http.StatusOK, site)
}

// @Summary Replace the sidebar manifest
// @Tags sites
// @Security AdminToken
// @Accept json
// @Produce json
// @Param body body UpdateSidebarRequest true "Ordered page slugs; empty derives the sidebar from docs/"
// @Success 200 {object} model.Site
// @Router /api/update/sidebar [post]
func (s *Server) handleUpdateSidebar(w http.ResponseWriter, r *http.Request) {
	var body UpdateSidebarRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	site, err := s.app.Registry.UpdateSiteSidebar(r.Context(), body.SiteID, body.Sidebar)
	if err != nil {
		s.writeStoreError(w, "updating sidebar", err)
		return
	}
	s.purge(site)
	writeJSON(w, http.StatusOK, site)
}

// @Summary Replace the navbar links
// @Tags sites
// @Security AdminToken
// @Accept json
// @Produce json
// @Param body body UpdateNavLinksRequest true "Links"
// @Success 200 {object} model.Site
// @Router /api/update/nav-links [post]
func (s *Server) handleUpdateNavLinks(w http.ResponseWriter, r *http.Request) {
	var body UpdateNavLinksRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	site, err := s.app.Registry.SetNavLinks(r.Context(), body.SiteID, body.NavLinks)
	if err != nil {
		s.writeStoreError(w, "updating nav links", err)
		return
	}
	s.purge(site)
	writeJSON(w, http.StatusOK, site)
}

// @Summary Rebuild every page of a site
// @Tags sites
// @Security AdminToken
// @Produce json
// @Param id path string true "Site ID"
// @Success 200 {object} fetcher.Report
// @Failure 404 {object} ErrorResponse
// @Router /api/sites/{id}/revalidate [post]
func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	site, err := s.app.Registry.GetSiteByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, "revalidating site", err)
		return
	}
	report, err := s.app.Revalidate(r.Context(), site.Slug)
	if err != nil {
		s.writeStoreError(w, "revalidating site", err)
		return
	}
	s.logger.Info("revalidated site",
		logging.Field{Key: "site", Value: site.Slug},
		logging.Field{Key: "warmed", Value: report.Warmed},
		logging.Field{Key: "failed", Value: report.Failed})
	writeJSON(w, http.StatusOK, report)
}

// Blogs

// @Summary List the blogs of a site
// @Tags blogs
// @Security AdminToken
// @Produce json
// @Param id path string true "Site ID"
// @Success 200 {array} model.Blog
// @Router /api/sites/{id}/blogs [get]
func (s *Server) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.app.Registry.GetSiteByID(r.Context(), id); err != nil {
		s.writeStoreError(w, "listing blogs", err)
		return
	}
	blogs, err := s.app.Registry.ListBlogs(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, "listing blogs", err)
		return
	}
	if blogs == nil {
		blogs = []*model.Blog{}
	}
	writeJSON(w, http.StatusOK, blogs)
}

// @Summary Create a blog
// @Tags blogs
// @Security AdminToken
// @Accept json
// @Produce json
// @Param body body registry.BlogInput true "Blog"
// @Success 201 {object} model.Blog
// @Failure 400 {object} ErrorResponse
// @Router /api/blogs [post]
func (s *Server) handleCreateBlog(w http.ResponseWriter, r *http.Request) {
	var body registry.BlogInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	blog, err := s.app.Registry.CreateBlog(r.Context(), body)
	if err != nil {
		s.writeStoreError(w, "creating blog", err)
		return
	}
	s.logger.Info("created blog", logging.Field{Key: "site_id", Value: blog.SiteID}, logging.Field{Key: "slug", Value: blog.Slug})
	writeJSON(w, http.StatusCreated, blog)
}

// @Summary Get a blog
// @Tags blogs
// @Security AdminToken
// @Produce json
// @Param id path string true "Blog ID"
// @Success 200 {object} model.Blog
// @Failure 404 {object} ErrorResponse
// @Router /api/blogs/{id} [get]
func (s *Server) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	blog, err := s.app.Registry.GetBlogByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, "getting blog", err)
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

// @Summary Update a blog
// @Tags blogs
// @Security AdminToken
// @Accept json
// @Produce json
// @Param id path string true "Blog ID"
// @Param body body registry.BlogUpdate true "Changed fields"
// @Success 200 {object} model.Blog
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/blogs/{id} [patch]
func (s *Server) handleUpdateBlog(w http.ResponseWriter, r *http.Request) {
	var body registry.BlogUpdate
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	blog, err := s.app.Registry.UpdateBlog(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.writeStoreError(w, "updating blog", err)
		return
	}
	if site, err := s.app.Registry.GetSiteByID(r.Context(), blog.SiteID); err == nil {
		s.purge(site)
	}
	writeJSON(w, http.StatusOK, blog)
}

// @Summary List the revisions of a blog
// @Tags blogs
// @Security AdminToken
// @Produce json
// @Param id path string true "Blog ID"
// @Success 200 {array} model.BlogRevision
// @Router /api/blogs/{id}/revisions [get]
func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.app.Registry.GetBlogByID(r.Context(), id); err != nil {
		s.writeStoreError(w, "listing revisions", err)
		return
	}
	revs, err := s.app.Registry.ListBlogRevisions(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, "listing revisions", err)
		return
	}
	if revs == nil {
		revs = []model.BlogRevision{}
	}
	writeJSON(w, http.StatusOK, revs)
}
