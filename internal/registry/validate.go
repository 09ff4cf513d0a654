package registry

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/utils"
)

// SiteInput carries the fields accepted when a site is created. An empty
// Slug is derived from Name.
type SiteInput struct {
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	RepoURL     string          `json:"repo_url"`
	AccessToken string          `json:"access_token"`
	FooterText  string          `json:"footer_text"`
	NavLinks    []model.NavLink `json:"nav_links"`
	Sidebar     []string        `json:"sidebar"`
}

// Validate checks the input before it reaches the database.
func (in SiteInput) Validate() error {
	if err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&in.Slug, validation.Length(0, 64)),
		validation.Field(&in.RepoURL, validation.Required, validation.By(repoURL)),
		validation.Field(&in.Sidebar, validation.Each(validation.Required, validation.By(sidebarEntry))),
	); err != nil {
		return err
	}
	return validateNavLinks(in.NavLinks)
}

// SiteSettings replaces a site's general settings. A nil AccessToken keeps
// the stored token; an empty one clears it.
type SiteSettings struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	RepoURL     string  `json:"repo_url"`
	FooterText  string  `json:"footer_text"`
	AccessToken *string `json:"access_token,omitempty"`
}

func (s SiteSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&s.RepoURL, validation.Required, validation.By(repoURL)),
	)
}

// BlogInput carries the fields accepted when a blog is created. An empty
// Slug is derived from Title.
type BlogInput struct {
	SiteID      string `json:"site_id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OGImageURL  string `json:"og_image_url"`
	Author      string `json:"author"`
	Content     string `json:"content"`
	Published   bool   `json:"published"`
}

func (in BlogInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.SiteID, validation.Required),
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Slug, validation.Length(0, 120)),
		validation.Field(&in.OGImageURL, is.URL),
	)
}

// BlogUpdate is a partial blog update; nil fields are left unchanged.
type BlogUpdate struct {
	Slug        *string `json:"slug,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	OGImageURL  *string `json:"og_image_url,omitempty"`
	Author      *string `json:"author,omitempty"`
	Content     *string `json:"content,omitempty"`
	Published   *bool   `json:"published,omitempty"`
}

func (u BlogUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&u.Slug, validation.NilOrNotEmpty, validation.Length(1, 120)),
		validation.Field(&u.OGImageURL, is.URL),
	)
}

func validateNavLinks(links []model.NavLink) error {
	errs := validation.Errors{}
	for i := range links {
		l := links[i]
		if err := validation.ValidateStruct(&l,
			validation.Field(&l.Label, validation.Required, validation.Length(1, 64)),
			validation.Field(&l.Href, validation.Required),
		); err != nil {
			errs["nav_links."+strconv.Itoa(i)] = err
		}
	}
	return errs.Filter()
}

func validateSidebar(sidebar []string) error {
	return validation.Validate(sidebar, validation.Each(validation.Required, validation.By(sidebarEntry)))
}

func repoURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := utils.ParseRepoURL(s); err != nil {
		return validation.NewError("validation_repo_url", "must be a repository URL or owner/name")
	}
	return nil
}

func sidebarEntry(value any) error {
	s, _ := value.(string)
	if strings.Contains(s, "..") || strings.HasPrefix(s, "/") {
		return validation.NewError("validation_sidebar_entry", "must be a path relative to docs/")
	}
	return nil
}
