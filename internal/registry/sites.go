package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
)

const siteColumns = `id, slug, name, description, repo_url, access_token, nav_cta,
       footer_text, home_page, sidebar, created_at, updated_at`

// CreateSite validates in and inserts a new site with its nav links.
func (r *Registry) CreateSite(ctx context.Context, in SiteInput) (*model.Site, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	slug := in.Slug
	if slug == "" {
		slug = in.Name
	}
	slug = normalizeSlug(slug)

	sidebar, err := encodeSidebar(in.Sidebar)
	if err != nil {
		return nil, err
	}

	id := newID()
	now := r.now().Unix()
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sites (id, slug, name, description, repo_url, access_token,
                                nav_cta, footer_text, home_page, sidebar, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, '', ?, '', ?, ?, ?)`,
			id, slug, strings.TrimSpace(in.Name), in.Description, strings.TrimSpace(in.RepoURL),
			in.AccessToken, in.FooterText, sidebar, now, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrSlugTaken, slug)
			}
			return fmt.Errorf("insert site: %w", err)
		}
		return replaceNavLinks(ctx, tx, id, in.NavLinks)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("site created", logging.Field{Key: "site", Value: slug}, logging.Field{Key: "id", Value: id})
	return r.GetSiteByID(ctx, id)
}

// GetSiteBySlug returns a site by slug.
func (r *Registry) GetSiteBySlug(ctx context.Context, slug string) (*model.Site, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE slug = ? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(slug)),
	)
	return r.loadSite(ctx, row)
}

// GetSiteByID returns a site by id.
func (r *Registry) GetSiteByID(ctx context.Context, id string) (*model.Site, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = ? LIMIT 1`, id)
	return r.loadSite(ctx, row)
}

// ListSites returns all sites in creation order.
func (r *Registry) ListSites(ctx context.Context) ([]*model.Site, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+siteColumns+` FROM sites ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}

	var out []*model.Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, s := range out {
		if s.NavLinks, err = r.navLinks(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateSiteHomePage replaces the markdown served at the site root.
func (r *Registry) UpdateSiteHomePage(ctx context.Context, id, markdown string) (*model.Site, error) {
	return r.updateSite(ctx, id, `UPDATE sites SET home_page = ?, updated_at = ? WHERE id = ?`, markdown)
}

// UpdateSiteNavCTA replaces the navbar call-to-action label.
func (r *Registry) UpdateSiteNavCTA(ctx context.Context, id, cta string) (*model.Site, error) {
	return r.updateSite(ctx, id, `UPDATE sites SET nav_cta = ?, updated_at = ? WHERE id = ?`, strings.TrimSpace(cta))
}

// UpdateSiteSidebar replaces the explicit sidebar manifest. An empty
// sidebar switches the site back to listing-derived navigation.
func (r *Registry) UpdateSiteSidebar(ctx context.Context, id string, sidebar []string) (*model.Site, error) {
	if err := validateSidebar(sidebar); err != nil {
		return nil, invalid(err)
	}
	encoded, err := encodeSidebar(sidebar)
	if err != nil {
		return nil, err
	}
	return r.updateSite(ctx, id, `UPDATE sites SET sidebar = ?, updated_at = ? WHERE id = ?`, encoded)
}

// UpdateSiteSettings replaces the general settings of a site.
func (r *Registry) UpdateSiteSettings(ctx context.Context, id string, s SiteSettings) (*model.Site, error) {
	if err := s.Validate(); err != nil {
		return nil, invalid(err)
	}
	if s.AccessToken != nil {
		return r.updateSite(ctx, id,
			`UPDATE sites SET name = ?, description = ?, repo_url = ?, footer_text = ?, access_token = ?, updated_at = ? WHERE id = ?`,
			strings.TrimSpace(s.Name), s.Description, strings.TrimSpace(s.RepoURL), s.FooterText, *s.AccessToken)
	}
	return r.updateSite(ctx, id,
		`UPDATE sites SET name = ?, description = ?, repo_url = ?, footer_text = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(s.Name), s.Description, strings.TrimSpace(s.RepoURL), s.FooterText)
}

// SetNavLinks replaces the ordered navigation links of a site.
func (r *Registry) SetNavLinks(ctx context.Context, id string, links []model.NavLink) (*model.Site, error) {
	if err := validateNavLinks(links); err != nil {
		return nil, invalid(err)
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE sites SET updated_at = ? WHERE id = ?`, r.now().Unix(), id)
		if err != nil {
			return fmt.Errorf("touch site: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrSiteNotFound
		}
		return replaceNavLinks(ctx, tx, id, links)
	})
	if err != nil {
		return nil, err
	}
	return r.GetSiteByID(ctx, id)
}

// updateSite runs a single-row UPDATE whose last two placeholders are
// updated_at and id, then reloads the site.
func (r *Registry) updateSite(ctx context.Context, id, query string, args ...any) (*model.Site, error) {
	args = append(args, r.now().Unix(), id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrSiteNotFound
	}
	return r.GetSiteByID(ctx, id)
}

func (r *Registry) loadSite(ctx context.Context, row *sql.Row) (*model.Site, error) {
	s, err := scanSite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	if s.NavLinks, err = r.navLinks(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Registry) navLinks(ctx context.Context, siteID string) ([]model.NavLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT label, href FROM nav_links WHERE site_id = ? ORDER BY position`, siteID)
	if err != nil {
		return nil, fmt.Errorf("query nav links: %w", err)
	}
	defer rows.Close()

	out := []model.NavLink{}
	for rows.Next() {
		var l model.NavLink
		if err := rows.Scan(&l.Label, &l.Href); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func replaceNavLinks(ctx context.Context, tx *sql.Tx, siteID string, links []model.NavLink) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM nav_links WHERE site_id = ?`, siteID); err != nil {
		return fmt.Errorf("clear nav links: %w", err)
	}
	for i, l := range links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO nav_links (site_id, position, label, href) VALUES (?, ?, ?, ?)`,
			siteID, i, strings.TrimSpace(l.Label), strings.TrimSpace(l.Href),
		); err != nil {
			return fmt.Errorf("insert nav link: %w", err)
		}
	}
	return nil
}

func scanSite(row rowScanner) (*model.Site, error) {
	var (
		s                model.Site
		sidebar          string
		created, updated int64
	)
	if err := row.Scan(&s.ID, &s.Slug, &s.Name, &s.Description, &s.RepoURL, &s.AccessToken,
		&s.NavCTA, &s.FooterText, &s.HomePage, &sidebar, &created, &updated); err != nil {
		return nil, err
	}
	if sidebar != "" {
		if err := json.Unmarshal([]byte(sidebar), &s.Sidebar); err != nil {
			return nil, fmt.Errorf("decode sidebar of site %s: %w", s.Slug, err)
		}
	}
	if len(s.Sidebar) == 0 {
		s.Sidebar = nil
	}
	s.CreatedAt = fromUnix(created)
	s.UpdatedAt = fromUnix(updated)
	return &s, nil
}

func encodeSidebar(sidebar []string) (string, error) {
	clean := make([]string, 0, len(sidebar))
	for _, e := range sidebar {
		clean = append(clean, strings.TrimSpace(e))
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encode sidebar: %w", err)
	}
	return string(b), nil
}
