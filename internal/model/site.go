package model

import "time"

// NavLink is a single entry of a site's top navigation bar.
type NavLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Site is a tenant's documentation/blog configuration record.
type Site struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	RepoURL     string    `json:"repo_url"`
	AccessToken string    `json:"-"`
	NavLinks    []NavLink `json:"nav_links"`
	NavCTA      string    `json:"nav_cta,omitempty"`
	FooterText  string    `json:"footer_text,omitempty"`
	HomePage    string    `json:"home_page,omitempty"`
	// Sidebar is the explicit navigation manifest. Empty means "derive from
	// the docs/ listing".
	Sidebar   []string  `json:"sidebar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasManifest reports whether the site declares an explicit sidebar.
func (s *Site) HasManifest() bool {
	return s != nil && len(s.Sidebar) > 0
}

// SiteMeta is the public subset of a Site handed to the rendering layer.
type SiteMeta struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	NavLinks    []NavLink `json:"nav_links"`
	NavCTA      string    `json:"nav_cta,omitempty"`
	FooterText  string    `json:"footer_text,omitempty"`
}

// Meta returns the public metadata for s.
func (s *Site) Meta() SiteMeta {
	links := s.NavLinks
	if links == nil {
		links = []NavLink{}
	}
	return SiteMeta{
		ID:          s.ID,
		Slug:        s.Slug,
		Name:        s.Name,
		Description: s.Description,
		NavLinks:    links,
		NavCTA:      s.NavCTA,
		FooterText:  s.FooterText,
	}
}
