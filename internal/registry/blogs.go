package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const blogColumns = `id, site_id, slug, title, description, og_image_url, author,
       content, published, created_at, updated_at`

// CreateBlog validates in and inserts a blog under an existing site. Non-empty
// initial content is recorded as the first revision.
func (r *Registry) CreateBlog(ctx context.Context, in BlogInput) (*model.Blog, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	if _, err := r.GetSiteByID(ctx, in.SiteID); err != nil {
		return nil, err
	}
	slug := in.Slug
	if slug == "" {
		slug = in.Title
	}
	slug = normalizeSlug(slug)

	id := newID()
	now := r.now().Unix()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO blogs (id, site_id, slug, title, description, og_image_url, author,
                                content, published, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, in.SiteID, slug, strings.TrimSpace(in.Title), in.Description, in.OGImageURL,
			in.Author, in.Content, in.Published, now, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrSlugTaken, slug)
			}
			return fmt.Errorf("insert blog: %w", err)
		}
		return insertRevision(ctx, tx, id, "", in.Content, now)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("blog created", logging.Field{Key: "blog", Value: slug}, logging.Field{Key: "site_id", Value: in.SiteID})
	return r.GetBlogByID(ctx, id)
}

// GetBlogByID returns a blog regardless of its published state.
func (r *Registry) GetBlogByID(ctx context.Context, id string) (*model.Blog, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = ? LIMIT 1`, id)
	b, err := scanBlog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlogNotFound
	}
	return b, err
}

// GetBlogBySlug returns a published blog of the site with the given slug.
// Unpublished blogs are reported as ErrBlogNotFound.
func (r *Registry) GetBlogBySlug(ctx context.Context, siteSlug, blogSlug string) (*model.Blog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT b.id, b.site_id, b.slug, b.title, b.description, b.og_image_url, b.author,
                b.content, b.published, b.created_at, b.updated_at
         FROM blogs b JOIN sites s ON s.id = b.site_id
         WHERE s.slug = ? AND b.slug = ? AND b.published = 1
         LIMIT 1`,
		strings.ToLower(strings.TrimSpace(siteSlug)), strings.ToLower(strings.TrimSpace(blogSlug)),
	)
	b, err := scanBlog(row)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM sites WHERE slug = ?`, strings.ToLower(strings.TrimSpace(siteSlug))).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrSiteNotFound
	case err != nil:
		return nil, err
	}
	return nil, ErrBlogNotFound
}

// ListBlogs returns every blog of a site, newest first.
func (r *Registry) ListBlogs(ctx context.Context, siteID string) ([]*model.Blog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE site_id = ? ORDER BY created_at DESC, rowid DESC`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBlog applies a partial update. A content change records a revision
// holding the patch from the previous content.
func (r *Registry) UpdateBlog(ctx context.Context, id string, u BlogUpdate) (*model.Blog, error) {
	if err := u.Validate(); err != nil {
		return nil, invalid(err)
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := scanBlog(tx.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = ?`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBlogNotFound
			}
			return err
		}

		next := *cur
		if u.Slug != nil {
			next.Slug = normalizeSlug(*u.Slug)
		}
		if u.Title != nil {
			next.Title = strings.TrimSpace(*u.Title)
		}
		if u.Description != nil {
			next.Description = *u.Description
		}
		if u.OGImageURL != nil {
			next.OGImageURL = *u.OGImageURL
		}
		if u.Author != nil {
			next.Author = *u.Author
		}
		if u.Content != nil {
			next.Content = *u.Content
		}
		if u.Published != nil {
			next.Published = *u.Published
		}

		now := r.now().Unix()
		_, err = tx.ExecContext(ctx,
			`UPDATE blogs SET slug = ?, title = ?, description = ?, og_image_url = ?, author = ?,
                              content = ?, published = ?, updated_at = ?
             WHERE id = ?`,
			next.Slug, next.Title, next.Description, next.OGImageURL, next.Author,
			next.Content, next.Published, now, id,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrSlugTaken, next.Slug)
			}
			return fmt.Errorf("update blog: %w", err)
		}
		return insertRevision(ctx, tx, id, cur.Content, next.Content, now)
	})
	if err != nil {
		return nil, err
	}
	return r.GetBlogByID(ctx, id)
}

// ListBlogRevisions returns the revisions of a blog, oldest first.
func (r *Registry) ListBlogRevisions(ctx context.Context, blogID string) ([]model.BlogRevision, error) {
	if _, err := r.GetBlogByID(ctx, blogID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, blog_id, patch, created_at FROM blog_revisions WHERE blog_id = ? ORDER BY seq`, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BlogRevision{}
	for rows.Next() {
		var (
			rev     model.BlogRevision
			created int64
		)
		if err := rows.Scan(&rev.ID, &rev.BlogID, &rev.Patch, &created); err != nil {
			return nil, err
		}
		rev.CreatedAt = fromUnix(created)
		out = append(out, rev)
	}
	return out, rows.Err()
}

// insertRevision stores the patch turning prev into next. Nothing is
// written when the content is unchanged.
func insertRevision(ctx context.Context, tx *sql.Tx, blogID, prev, next string, now int64) error {
	if prev == next {
		return nil
	}
	patch := contentPatch(prev, next)

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM blog_revisions WHERE blog_id = ?`, blogID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("next revision seq: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO blog_revisions (id, blog_id, seq, patch, created_at) VALUES (?, ?, ?, ?, ?)`,
		newID(), blogID, seq, patch, now,
	); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

// contentPatch computes a diff-match-patch text patch from prev to next.
func contentPatch(prev, next string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prev, next, true)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(prev, diffs))
}

// ApplyRevisions replays revisions in order starting from empty content and
// returns the resulting text.
func ApplyRevisions(revs []model.BlogRevision) (string, error) {
	dmp := diffmatchpatch.New()
	content := ""
	for _, rev := range revs {
		patches, err := dmp.PatchFromText(rev.Patch)
		if err != nil {
			return "", fmt.Errorf("parse revision %s: %w", rev.ID, err)
		}
		out, applied := dmp.PatchApply(patches, content)
		for _, ok := range applied {
			if !ok {
				return "", fmt.Errorf("revision %s does not apply", rev.ID)
			}
		}
		content = out
	}
	return content, nil
}

func scanBlog(row rowScanner) (*model.Blog, error) {
	var (
		b                model.Blog
		created, updated int64
	)
	if err := row.Scan(&b.ID, &b.SiteID, &b.Slug, &b.Title, &b.Description, &b.OGImageURL,
		&b.Author, &b.Content, &b.Published, &created, &updated); err != nil {
		return nil, err
	}
	b.CreatedAt = fromUnix(created)
	b.UpdatedAt = fromUnix(updated)
	return &b, nil
}
