// Package pageserver resolves and serves published tenant content.
//
// Context
// -------
// Every route that serves tenant content funnels through this one fallback
// chain (the old codebase had several diverging copies; this is the single
// consolidated one).  Given a resolved site and a request path, the target
// page is located and its body produced by the first tier that succeeds:
//
//	a. artifact file (current name, then the legacy page_{id}.html layout)
//	b. rendered-content cache
//	c. denormalized html_content/css_content columns, with cache write-back
//	d. legacy on-disk content referenced by the page's content column
//	e. a synthesized default document (never fails)
//
// A tier that errors is a miss, not a request failure—the chain always
// terminates at (e) even under partial I/O failure.  View counters are
// bumped on every non-artifact hit, except for crawler traffic as flagged
// by the visitor middleware.  An aborted request stops the chain, but a
// cache write-back already in flight completes in the background.
package pageserver

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/pagemade/pagemade/internal/content"
	"github.com/pagemade/pagemade/internal/metrics"
	"github.com/pagemade/pagemade/internal/page"
	"github.com/pagemade/pagemade/internal/pagecache"
	"github.com/pagemade/pagemade/internal/tenant"
	"github.com/pagemade/pagemade/internal/visitor"
)

// Server serves published tenant pages.  Construct once, inject everywhere.
type Server struct {
	db        *sqlx.DB
	cache     *pagecache.Client
	sitesRoot string
}

// New constructs a Server.
func New(db *sqlx.DB, cache *pagecache.Client, sitesRoot string) *Server {
	return &Server{db: db, cache: cache, sitesRoot: sitesRoot}
}

// Serve writes the content for one tenant request.  slug empty means the
// site homepage.  ten may be nil when the subdomain resolved but no site
// row exists.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, ten *tenant.Tenant, slug string) {
	if ten == nil || !ten.Site.IsPublished {
		sub := ""
		if ten != nil {
			sub = ten.Site.Subdomain
		}
		metrics.PageNotFoundTotal.Inc()
		writeSiteNotFound(w, sub)
		return
	}

	ctx := r.Context()

	var pg *page.Record
	var err error
	if slug == "" {
		pg, err = page.Homepage(ctx, s.db, ten.Site.ID)
	} else {
		pg, err = page.BySiteAndSlug(ctx, s.db, ten.Site.ID, slug)
	}
	if err != nil {
		metrics.PageNotFoundTotal.Inc()
		writePageNotFound(w, ten.Site.Title, slug)
		return
	}

	body, tier := s.resolve(ctx, ten, pg)
	if body == "" {
		// Only possible when the request context is already dead.
		return
	}

	if tier != tierArtifact {
		s.countView(ctx, pg.ID)
	}

	metrics.PageServeTotal.WithLabelValues(string(tier)).Inc()
	if info := visitor.FromContext(ctx); info != nil && info.Geo.CountryISO != "" {
		zap.S().Debugw("page served",
			"page", pg.ID, "tier", tier, "country", info.Geo.CountryISO)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

type serveTier string

const (
	tierArtifact    serveTier = "artifact"
	tierCache       serveTier = "cache"
	tierDatabase    serveTier = "database"
	tierLegacy      serveTier = "legacy"
	tierSynthesized serveTier = "synthesized"
)

// resolve walks the fallback chain and returns the body plus the tier that
// produced it.  An empty body means the request was cancelled mid-chain.
func (s *Server) resolve(ctx context.Context, ten *tenant.Tenant, pg *page.Record) (string, serveTier) {
	siteDir := filepath.Join(s.sitesRoot, strconv.FormatUint(pg.SiteID, 10))

	// (a) artifact file, byte-for-byte.  A zero-length file is treated as
	// absent so the chain keeps walking.
	for _, name := range []string{pg.ArtifactFilename(), pg.LegacyArtifactFilename()} {
		if b, err := os.ReadFile(filepath.Join(siteDir, name)); err == nil && len(b) > 0 {
			return string(b), tierArtifact
		}
	}
	if ctx.Err() != nil {
		return "", tierArtifact
	}

	// (b) rendered-content cache.
	if p, ok := s.cache.GetPage(ctx, pg.ID); ok {
		return content.BuildDocument(pg.Title, p.HTML, p.CSS), tierCache
	}
	if ctx.Err() != nil {
		return "", tierCache
	}

	// (c) denormalized columns, with write-back so the next request hits
	// tier (b).  Both columns must be populated; a page with HTML but no
	// CSS predates the denormalization and falls through to its legacy
	// file.  The write-back survives client disconnects.
	if pg.HTMLContent.Valid && pg.HTMLContent.String != "" &&
		pg.CSSContent.Valid && pg.CSSContent.String != "" {
		go s.cache.PutPage(context.WithoutCancel(ctx), pg.ID,
			pg.HTMLContent.String, pg.CSSContent.String, 0)
		return content.BuildDocument(pg.Title, pg.HTMLContent.String, pg.CSSContent.String), tierDatabase
	}

	// (d) legacy on-disk content named by the content column.  Only plain
	// filenames qualify; anything resembling a document is editor content.
	if pg.Content.Valid {
		if name := legacyFilename(pg.Content.String); name != "" {
			if b, err := os.ReadFile(filepath.Join(siteDir, name)); err == nil {
				return string(b), tierLegacy
			}
		}
	}
	if ctx.Err() != nil {
		return "", tierLegacy
	}

	// (e) synthesized default.  Terminal; cannot fail.
	return content.DefaultDocument(pg.Title, pg.Description, ten.Site.Title), tierSynthesized
}

// countView bumps the view counters unless the visitor is a known crawler.
func (s *Server) countView(ctx context.Context, pageID uint64) {
	if info := visitor.FromContext(ctx); info != nil && info.UA.IsBot {
		return
	}
	s.cache.IncrementViews(context.WithoutCancel(ctx), pageID)
}

// legacyFilename returns the content column's value when it plausibly names
// a stored file rather than carrying inline content, else "".
func legacyFilename(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > 255 {
		return ""
	}
	if strings.ContainsAny(v, "<>{}\n/\\") {
		return ""
	}
	if !strings.HasSuffix(v, ".html") {
		return ""
	}
	return v
}
