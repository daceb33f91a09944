package page

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no page row matches the lookup.
var ErrNotFound = errors.New("page not found")

const columns = `id, site_id, user_id, title, slug, description, template,
               content, html_path, html_content, css_content,
               is_published, published_at, is_homepage,
               created_at, updated_at`

// ByID fetches a single page row by primary key.
func ByID(ctx context.Context, db *sqlx.DB, id uint64) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   page
        WHERE  id = ?
        LIMIT  1;`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// BySiteAndSlug fetches the published page with the given slug inside one
// site.  Only published rows are eligible for public serving.
func BySiteAndSlug(ctx context.Context, db *sqlx.DB, siteID uint64, slug string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   page
        WHERE  site_id = ?
          AND  slug = ?
          AND  is_published = TRUE
        LIMIT  1;`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, siteID, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Homepage fetches the single published homepage of a site, if any.
func Homepage(ctx context.Context, db *sqlx.DB, siteID uint64) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   page
        WHERE  site_id = ?
          AND  is_homepage = TRUE
          AND  is_published = TRUE
        LIMIT  1;`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, siteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// PublishedBySite lists every published page of a site, homepage first.
// Feeds the `site_pages:{id}` listing cache.
func PublishedBySite(ctx context.Context, db *sqlx.DB, siteID uint64) ([]Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   page
        WHERE  site_id = ?
          AND  is_published = TRUE
        ORDER BY is_homepage DESC, created_at DESC;`
	var rows []Record
	if err := db.SelectContext(ctx, &rows, q, siteID); err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveContent stores the raw editor document plus the denormalized render
// fields in one statement.  Called by the token-authenticated editor save
// endpoint; ownership has already been checked by the handler.
func SaveContent(ctx context.Context, db *sqlx.DB, id uint64, rawDoc, html, css string) error {
	const q = `
        UPDATE page
        SET    content = ?, html_content = ?, css_content = ?, updated_at = NOW()
        WHERE  id = ?;`
	res, err := db.ExecContext(ctx, q, rawDoc, html, css, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPublished flips the publish flags inside the caller's transaction.
// `publishedAt` is passed in rather than using NOW() so the publisher can
// keep the timestamp it reports to the caller identical to the stored one.
func MarkPublished(ctx context.Context, tx *sqlx.Tx, id uint64, slug string, publishedAt time.Time) error {
	const q = `
        UPDATE page
        SET    is_published = TRUE, published_at = ?, slug = ?, updated_at = NOW()
        WHERE  id = ?;`
	_, err := tx.ExecContext(ctx, q, publishedAt, slug, id)
	return err
}

// Unpublish clears the publish flag.  The artifact file is left on disk; the
// page server refuses to serve unpublished pages regardless.
func Unpublish(ctx context.Context, db *sqlx.DB, id uint64) error {
	const q = `
        UPDATE page
        SET    is_published = FALSE, updated_at = NOW()
        WHERE  id = ?;`
	_, err := db.ExecContext(ctx, q, id)
	return err
}

// SetHomepage makes the given page its site's homepage.  The previous
// homepage is cleared in the same transaction, so the at-most-one invariant
// holds at every commit point.
func SetHomepage(ctx context.Context, db *sqlx.DB, id uint64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const clear = `
        UPDATE page
        SET    is_homepage = FALSE
        WHERE  site_id = (SELECT site_id FROM (SELECT site_id FROM page WHERE id = ?) AS p)
          AND  is_homepage = TRUE;`
	if _, err := tx.ExecContext(ctx, clear, id); err != nil {
		return err
	}

	const set = `
        UPDATE page
        SET    is_homepage = TRUE, updated_at = NOW()
        WHERE  id = ?;`
	res, err := tx.ExecContext(ctx, set, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}
