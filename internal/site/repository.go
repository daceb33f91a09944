package site

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no site row matches the lookup.
var ErrNotFound = errors.New("site not found")

const columns = `id, user_id, title, subdomain, description, is_published,
               created_at, updated_at`

// BySubdomain fetches a single site row by its unique subdomain.  The caller
// supplies a context so the lookup respects request deadlines.  Publication
// state is *not* filtered here; the page server decides what an unpublished
// site is allowed to show.
func BySubdomain(ctx context.Context, db *sqlx.DB, subdomain string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   site
        WHERE  subdomain = ?
        LIMIT  1;`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, subdomain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ByID fetches a single site row by primary key.
func ByID(ctx context.Context, db *sqlx.DB, id uint64) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   site
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

// MarkPublished flips is_published inside the caller's transaction.  The
// publisher invokes this on a site's first successful page publish, in the
// same transaction that marks the page itself.
func MarkPublished(ctx context.Context, tx *sqlx.Tx, id uint64) error {
	const q = `
        UPDATE site
        SET    is_published = TRUE, updated_at = NOW()
        WHERE  id = ?;`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}
