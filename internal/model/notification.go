package model

import "time"

// Notification is an operator alert raised when a page fails to build.
type Notification struct {
	SiteName string    `json:"site_name"`
	SiteSlug string    `json:"site_slug"`
	File     string    `json:"file"`
	RepoLink string    `json:"repo_link"`
	Message  string    `json:"message"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
}
