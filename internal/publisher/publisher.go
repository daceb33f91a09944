// Package publisher converts a page's editor document into the durable
// static artifact that the page server prefers over every other source.
//
// Context
// -------
// Publish is a pipeline with one hard durability point: the artifact file.
// Content is extracted (structured JSON or legacy HTML—parsing never
// throws), cleaned of editor-only markup, assembled into one self-contained
// document, and written to `storage/sites/{siteID}/{index|slug}.html` via a
// temp file and atomic rename so a concurrent reader can never observe a
// truncated page.  Only after the file is durable does the database
// transaction flip the page's (and, on first publish, the site's) publish
// flags.  A failed transaction after a successful write leaves a harmless
// orphan that the next publish overwrites; the artifact file is the source
// of truth for serving.
//
// Cache invalidation is synchronous—Publish does not return success until
// the stale rendering is gone from both cache tiers—so a read that follows
// a publish can never see pre-publish content.  The optional mirror into
// the reverse-proxy static root is best effort and never fails a publish.
//
// Concurrent publishes of the same page are serialized with a per-page
// mutex; different pages proceed independently.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/pagemade/pagemade/internal/content"
	"github.com/pagemade/pagemade/internal/metrics"
	"github.com/pagemade/pagemade/internal/page"
	"github.com/pagemade/pagemade/internal/pagecache"
	"github.com/pagemade/pagemade/internal/site"
	"github.com/pagemade/pagemade/internal/tenant"
)

// ErrNothingToPublish rejects a publish attempt before any side effect when
// the page carries no content at all.
var ErrNothingToPublish = errors.New("page has no content to publish")

// Publisher runs the publish pipeline.  Construct once, inject everywhere.
type Publisher struct {
	db      *sqlx.DB
	cache   *pagecache.Client
	tenants *tenant.Cache // may be nil (tests); used to drop stale site rows

	sitesRoot  string
	deployRoot string // empty disables the mirror step

	locksMu sync.Mutex
	locks   map[uint64]*pageLock
}

// pageLock serializes publishes of one page.  refs counts holders plus
// waiters so the entry can be dropped once the last one releases.
type pageLock struct {
	mu   sync.Mutex
	refs int
}

// New constructs a Publisher.
func New(db *sqlx.DB, cache *pagecache.Client, tenants *tenant.Cache, sitesRoot, deployRoot string) *Publisher {
	return &Publisher{
		db:         db,
		cache:      cache,
		tenants:    tenants,
		sitesRoot:  sitesRoot,
		deployRoot: deployRoot,
		locks:      make(map[uint64]*pageLock),
	}
}

// Result reports where a successful publish landed.
type Result struct {
	ArtifactPath string
	Slug         string
	PublishedAt  time.Time
}

// Publish runs the full pipeline for one page.  The caller has already
// verified ownership.
func (p *Publisher) Publish(ctx context.Context, pg *page.Record) (*Result, error) {
	unlock := p.lockPage(pg.ID)
	defer unlock()

	st, err := site.ByID(ctx, p.db, pg.SiteID)
	if err != nil {
		metrics.PublishErrorsTotal.Inc()
		return nil, fmt.Errorf("load site %d: %w", pg.SiteID, err)
	}

	// 1. Extract html/css from the editor document, falling back to the
	// denormalized fields for pages saved before the structured format.
	body, css, ok := extract(pg)
	if !ok {
		return nil, ErrNothingToPublish
	}

	// 2–3. Clean and assemble one self-contained document.
	body = content.Clean(body)
	doc := content.BuildDocument(pg.Title+" - "+st.Title, body, css)

	// 4. Deterministic target filename.
	slug := pg.Slug
	if slug == "" {
		slug = page.MakeSlug(pg.Title)
	}
	filename := "index.html"
	if !pg.IsHomepage {
		filename = slug + ".html"
	}

	// 5. Durable write.  Failure here aborts with the database untouched.
	siteDir := filepath.Join(p.sitesRoot, strconv.FormatUint(pg.SiteID, 10))
	artifact := filepath.Join(siteDir, filename)
	if err := writeFileAtomic(siteDir, filename, []byte(doc)); err != nil {
		metrics.PublishErrorsTotal.Inc()
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	// 6. Flip publish flags in one transaction.
	publishedAt := time.Now().UTC()
	firstSitePublish := !st.IsPublished
	if err := p.markPublished(ctx, pg, st, slug, publishedAt, firstSitePublish); err != nil {
		metrics.PublishErrorsTotal.Inc()
		// The artifact is already durable; the flags lag one cycle and the
		// caller is told to retry.
		return nil, fmt.Errorf("commit publish state: %w", err)
	}

	// 7. Synchronous cache invalidation: read-after-publish must miss.
	p.cache.Invalidate(ctx, pg.ID)
	p.cache.InvalidateSitePages(ctx, pg.SiteID)
	if firstSitePublish && p.tenants != nil {
		p.tenants.Drop(st.Subdomain)
	}

	// 8. Best-effort mirror for the reverse proxy.
	if p.deployRoot != "" {
		if err := p.mirror(st.Subdomain, filename, []byte(doc)); err != nil {
			zap.S().Warnw("static mirror failed",
				"site", pg.SiteID, "subdomain", st.Subdomain, "err", err)
		}
	}

	metrics.PublishTotal.Inc()
	zap.S().Infow("page published",
		"page", pg.ID, "site", pg.SiteID, "artifact", artifact,
		"first_site_publish", firstSitePublish)

	return &Result{ArtifactPath: artifact, Slug: slug, PublishedAt: publishedAt}, nil
}

// Unpublish clears the page's publish flag and invalidates its cache entry.
// The artifact stays on disk; the serve path refuses unpublished pages
// before it ever looks at the filesystem.
func (p *Publisher) Unpublish(ctx context.Context, pg *page.Record) error {
	if err := page.Unpublish(ctx, p.db, pg.ID); err != nil {
		return err
	}
	p.cache.Invalidate(ctx, pg.ID)
	p.cache.InvalidateSitePages(ctx, pg.SiteID)
	return nil
}

//
// pipeline pieces
//

// extract pulls html/css out of the page, preferring the raw editor
// document and falling back to the denormalized fields.
func extract(pg *page.Record) (body, css string, ok bool) {
	if pg.Content.Valid && pg.Content.String != "" {
		doc := content.Parse(pg.Content.String)
		if !doc.Empty() {
			return doc.HTML, doc.CSS, true
		}
	}
	if pg.HTMLContent.Valid && pg.HTMLContent.String != "" {
		return pg.HTMLContent.String, pg.CSSContent.String, true
	}
	return "", "", false
}

func (p *Publisher) markPublished(ctx context.Context, pg *page.Record, st *site.Record, slug string, at time.Time, firstSitePublish bool) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := page.MarkPublished(ctx, tx, pg.ID, slug, at); err != nil {
		return err
	}
	if firstSitePublish {
		if err := site.MarkPublished(ctx, tx, st.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// mirror copies the artifact into the external static-serving root under
// the site's subdomain, the layout a fronting nginx expects.
func (p *Publisher) mirror(subdomain, filename string, doc []byte) error {
	dir := filepath.Join(p.deployRoot, subdomain)
	return writeFileAtomic(dir, filename, doc)
}

// lockPage acquires the per-page publish lock and returns its release
// function.  The last releaser removes the entry, so the map only holds
// pages with a publish in flight.
func (p *Publisher) lockPage(id uint64) func() {
	p.locksMu.Lock()
	l := p.locks[id]
	if l == nil {
		l = &pageLock{}
		p.locks[id] = l
	}
	l.refs++
	p.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, id)
		}
		p.locksMu.Unlock()
	}
}

// writeFileAtomic stages data in a temp file in the target directory and
// renames it into place, so readers see either the old bytes or the new
// bytes, never a truncated file.
func writeFileAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".publish-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, name))
}
