package model

import "time"

// Blog is a tenant-owned post. SiteID is a back-reference to the owning site.
type Blog struct {
	ID          string    `json:"id"`
	SiteID      string    `json:"site_id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OGImageURL  string    `json:"og_image_url,omitempty"`
	Author      string    `json:"author,omitempty"`
	Content     string    `json:"content"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BlogRevision records how a blog's content changed in a single update.
// Patch is in diff-match-patch text format and applies to the previous
// content to produce the new one.
type BlogRevision struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blog_id"`
	Patch     string    `json:"patch"`
	CreatedAt time.Time `json:"created_at"`
}
