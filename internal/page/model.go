package page

import (
	"database/sql"
	"strconv"
	"time"
)

// Record mirrors one row in the persistent `page` table.
//
// `Content` carries the raw editor document: either a JSON object produced
// by the visual editor or, for pages that predate it, a bare HTML string or
// a filename relative to the site's storage directory.  `HTMLContent` and
// `CSSContent` are the denormalized render fields the fallback chain reads
// when no artifact file exists.
type Record struct {
	ID          uint64         `db:"id"`
	SiteID      uint64         `db:"site_id"`
	UserID      uint64         `db:"user_id"`
	Title       string         `db:"title"`
	Slug        string         `db:"slug"`
	Description string         `db:"description"`
	Template    string         `db:"template"`
	Content     sql.NullString `db:"content"`
	HTMLPath    sql.NullString `db:"html_path"`
	HTMLContent sql.NullString `db:"html_content"`
	CSSContent  sql.NullString `db:"css_content"`
	IsPublished bool           `db:"is_published"`
	PublishedAt *time.Time     `db:"published_at"`
	IsHomepage  bool           `db:"is_homepage"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// ArtifactFilename returns the deterministic name of the page's published
// artifact inside its site directory: `index.html` for the homepage, else
// `{slug}.html`.  An absent slug is regenerated from the title.
func (r *Record) ArtifactFilename() string {
	if r.IsHomepage {
		return "index.html"
	}
	slug := r.Slug
	if slug == "" {
		slug = MakeSlug(r.Title)
	}
	return slug + ".html"
}

// LegacyArtifactFilename is the pre-slug naming scheme (`page_{id}.html`)
// still present on disk for sites published before the rename.
func (r *Record) LegacyArtifactFilename() string {
	return "page_" + strconv.FormatUint(r.ID, 10) + ".html"
}
