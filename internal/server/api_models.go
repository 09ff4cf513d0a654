package server

import "github.com/hyperdocs/hyperdocs/internal/model"

// UpdateHomePageRequest replaces the markdown served at /{site}.
type UpdateHomePageRequest struct {
	SiteID   string `json:"site_id" example:"0b5e6f1c-3f0e-4a58-9f52-2a3c4d5e6f70"`
	HomePage string `json:"home_page" example:"# Acme\n\nShip faster."`
}

// UpdateNavCTARequest sets the navbar call to action.
type UpdateNavCTARequest struct {
	SiteID string `json:"site_id"`
	NavCTA string `json:"nav_cta" example:"Get started"`
}

// UpdateSidebarRequest replaces the sidebar manifest.
type UpdateSidebarRequest struct {
	SiteID  string   `json:"site_id"`
	Sidebar []string `json:"sidebar" example:"intro,setup"`
}

// UpdateNavLinksRequest replaces the navbar links.
type UpdateNavLinksRequest struct {
	SiteID   string          `json:"site_id"`
	NavLinks []model.NavLink `json:"nav_links"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status      string `json:"status" example:"ok"`
	CachedPages int    `json:"cached_pages" example:"12"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
