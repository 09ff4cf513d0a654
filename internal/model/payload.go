package model

import "time"

// Heading is one node of a document outline.
type Heading struct {
	Text     string     `json:"text"`
	Depth    int        `json:"depth"`
	Anchor   string     `json:"anchor"`
	Children []*Heading `json:"children,omitempty"`
}

// PagePayload is the render-ready output of the docs pipeline.
type PagePayload struct {
	File        string         `json:"file"`
	Code        string         `json:"code"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	TOCHTML     string         `json:"toc_html"`
	TOC         []*Heading     `json:"toc"`
	Navigation  []string       `json:"navigation"`
	Site        SiteMeta       `json:"site"`
	Revalidate  int            `json:"revalidate"`
}

// BlogPayload is the render-ready output of the blog pipeline.
type BlogPayload struct {
	Code        string         `json:"code"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	OGImageURL  string         `json:"og_image_url,omitempty"`
	Author      string         `json:"author,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Site        SiteMeta       `json:"site"`
	Revalidate  int            `json:"revalidate"`
}
