// internal/web/handlers.go
//
// Application and editor-API handlers for the publish-and-serve core.  The
// dashboard CRUD surface lives elsewhere; what is here is the slice the
// editor origin and the publish pipeline need.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/pagemade/pagemade/internal/content"
	"github.com/pagemade/pagemade/internal/page"
	"github.com/pagemade/pagemade/internal/pagecache"
	"github.com/pagemade/pagemade/internal/publisher"
	"github.com/pagemade/pagemade/internal/site"
	"github.com/pagemade/pagemade/internal/token"
)

// Handlers owns the injected dependencies the route tree needs.
type Handlers struct {
	DB     *sqlx.DB
	Cache  *pagecache.Client
	Tokens *token.Service
	Pub    *publisher.Publisher

	RootDomain   string
	EditorOrigin string
	LoginURL     string
}

func pageIDParam(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// pageURL is the canonical public URL of a published page.
func (h *Handlers) pageURL(subdomain, slug string, homepage bool) string {
	u := "https://" + subdomain + "." + h.RootDomain
	if homepage {
		return u
	}
	return u + "/" + slug
}

//
// Editor open + callbacks
//

// OpenEditor mints a page-scoped editor token and redirects the browser to
// the external editor origin.  Auth failures send the user to login rather
// than a raw 401 body—this is a navigation, not an API call.
func (h *Handlers) OpenEditor(w http.ResponseWriter, r *http.Request) {
	id, ok := pageIDParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	raw := tokenFromRequest(r)
	claims, err := h.Tokens.Verify(r.Context(), raw, token.TypeAccess)
	if err != nil {
		http.Redirect(w, r, h.LoginURL, http.StatusFound)
		return
	}

	pg, st, status, msg := h.ownedPage(r.Context(), id, claims.UserID)
	if status != 0 {
		if status == http.StatusForbidden {
			http.Redirect(w, r, h.LoginURL, http.StatusFound)
			return
		}
		respondErr(w, status, msg)
		return
	}

	editorTok, err := h.Tokens.IssueEditor(claims.UserID, st.ID, pg.ID)
	if err != nil {
		zap.S().Errorw("editor token mint failed", "page", pg.ID, "err", err)
		respondErr(w, http.StatusInternalServerError, "could not open editor")
		return
	}

	dest := h.EditorOrigin + "/editor/" + strconv.FormatUint(pg.ID, 10) +
		"?token=" + url.QueryEscape(editorTok)
	http.Redirect(w, r, dest, http.StatusFound)
}

// LoadContent returns a page's editor document to the editor origin.
func (h *Handlers) LoadContent(w http.ResponseWriter, r *http.Request) {
	id, ok := pageIDParam(r)
	if !ok {
		respondErr(w, http.StatusNotFound, "page not found")
		return
	}
	claims := claimsFrom(r.Context())
	if claims.PageID != id {
		respondErr(w, http.StatusForbidden, "token not valid for this page")
		return
	}

	pg, st, status, msg := h.ownedPage(r.Context(), id, claims.UserID)
	if status != 0 {
		respondErr(w, status, msg)
		return
	}

	data := map[string]any{
		"page": map[string]any{
			"id":           pg.ID,
			"title":        pg.Title,
			"slug":         pg.Slug,
			"content":      pg.Content.String,
			"html_content": pg.HTMLContent.String,
			"css_content":  pg.CSSContent.String,
			"is_published": pg.IsPublished,
			"is_homepage":  pg.IsHomepage,
		},
		"site": map[string]any{
			"id":        st.ID,
			"subdomain": st.Subdomain,
			"title":     st.Title,
		},
	}
	respondOK(w, http.StatusOK, data, "")
}

type saveRequest struct {
	Content string `json:"content"` // raw editor document (JSON string)
	HTML    string `json:"html"`
	CSS     string `json:"css"`
}

// SaveContent stores the editor document plus the denormalized render
// fields.  Missing html/css are extracted from the document so the two
// representations never drift.
func (h *Handlers) SaveContent(w http.ResponseWriter, r *http.Request) {
	id, ok := pageIDParam(r)
	if !ok {
		respondErr(w, http.StatusNotFound, "page not found")
		return
	}
	claims := claimsFrom(r.Context())
	if claims.PageID != id {
		respondErr(w, http.StatusForbidden, "token not valid for this page")
		return
	}
	if _, _, status, msg := h.ownedPage(r.Context(), id, claims.UserID); status != 0 {
		respondErr(w, status, msg)
		return
	}

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed request body")
		return
	}

	html, css := req.HTML, req.CSS
	if html == "" && req.Content != "" {
		doc := content.Parse(req.Content)
		html, css = doc.HTML, doc.CSS
	}

	if err := page.SaveContent(r.Context(), h.DB, id, req.Content, html, css); err != nil {
		zap.S().Errorw("save content failed", "page", id, "err", err)
		respondErr(w, http.StatusInternalServerError, "save failed")
		return
	}
	respondOK(w, http.StatusOK, nil, "saved")
}

// PublishPage runs the publish pipeline for one page.
func (h *Handlers) PublishPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pageIDParam(r)
	if !ok {
		respondErr(w, http.StatusNotFound, "page not found")
		return
	}
	claims := claimsFrom(r.Context())
	if claims.TokenType == token.TypeEditor && claims.PageID != id {
		respondErr(w, http.StatusForbidden, "token not valid for this page")
		return
	}

	pg, st, status, msg := h.ownedPage(r.Context(), id, claims.UserID)
	if status != 0 {
		respondErr(w, status, msg)
		return
	}

	res, err := h.Pub.Publish(r.Context(), pg)
	if err != nil {
		if errors.Is(err, publisher.ErrNothingToPublish) {
			respondErr(w, http.StatusBadRequest, "nothing to publish: save some content first")
			return
		}
		zap.S().Errorw("publish failed", "page", id, "err", err)
		respondErr(w, http.StatusInternalServerError, "publish failed")
		return
	}

	respondOK(w, http.StatusOK, map[string]any{
		"url":          h.pageURL(st.Subdomain, res.Slug, pg.IsHomepage),
		"slug":         res.Slug,
		"published_at": res.PublishedAt,
	}, "published")
}

// UnpublishPage clears a page's publish flag.
func (h *Handlers) UnpublishPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pageIDParam(r)
	if !ok {
		respondErr(w, http.StatusNotFound, "page not found")
		return
	}
	claims := claimsFrom(r.Context())
	pg, _, status, msg := h.ownedPage(r.Context(), id, claims.UserID)
	if status != 0 {
		respondErr(w, status, msg)
		return
	}
	if err := h.Pub.Unpublish(r.Context(), pg); err != nil {
		zap.S().Errorw("unpublish failed", "page", id, "err", err)
		respondErr(w, http.StatusInternalServerError, "unpublish failed")
		return
	}
	respondOK(w, http.StatusOK, nil, "unpublished")
}

// SetHomepage flags a page as its site's homepage, clearing the previous
// one in the same transaction.
func (h *Handlers) SetHomepage(w http.ResponseWriter, r *http.Request) {
	id, ok := pageIDParam(r)
	if !ok {
		respondErr(w, http.StatusNotFound, "page not found")
		return
	}
	claims := claimsFrom(r.Context())
	pg, _, status, msg := h.ownedPage(r.Context(), id, claims.UserID)
	if status != 0 {
		respondErr(w, status, msg)
		return
	}
	if err := page.SetHomepage(r.Context(), h.DB, id); err != nil {
		zap.S().Errorw("set homepage failed", "page", id, "err", err)
		respondErr(w, http.StatusInternalServerError, "could not set homepage")
		return
	}
	h.Cache.InvalidateSitePages(r.Context(), pg.SiteID)
	respondOK(w, http.StatusOK, nil, "homepage set")
}

// SitePages lists a site's published pages, read through the listing cache.
// A miss falls back to the database and warms the cache for the next call.
func (h *Handlers) SitePages(w http.ResponseWriter, r *http.Request) {
	siteID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || siteID == 0 {
		respondErr(w, http.StatusNotFound, "site not found")
		return
	}
	claims := claimsFrom(r.Context())
	st, err := site.ByID(r.Context(), h.DB, siteID)
	if err != nil {
		respondErr(w, http.StatusNotFound, "site not found")
		return
	}
	if st.UserID != claims.UserID {
		respondErr(w, http.StatusForbidden, "you do not own this site")
		return
	}

	if listing, ok := h.Cache.GetSitePages(r.Context(), siteID); ok {
		respondOK(w, http.StatusOK, listing, "")
		return
	}

	rows, err := page.PublishedBySite(r.Context(), h.DB, siteID)
	if err != nil {
		zap.S().Errorw("site listing failed", "site", siteID, "err", err)
		respondErr(w, http.StatusInternalServerError, "could not list pages")
		return
	}
	listing := make([]pagecache.PageSummary, 0, len(rows))
	for _, pg := range rows {
		listing = append(listing, pagecache.PageSummary{
			ID:         pg.ID,
			Title:      pg.Title,
			Slug:       pg.Slug,
			IsHomepage: pg.IsHomepage,
		})
	}
	h.Cache.PutSitePages(r.Context(), siteID, listing)
	respondOK(w, http.StatusOK, listing, "")
}

//
// Stats + token lifecycle
//

// PageViews reports the view counters for a page.
func (h *Handlers) PageViews(w http.ResponseWriter, r *http.Request) {
	id, ok := pageIDParam(r)
	if !ok {
		respondErr(w, http.StatusNotFound, "page not found")
		return
	}
	claims := claimsFrom(r.Context())
	if _, _, status, msg := h.ownedPage(r.Context(), id, claims.UserID); status != 0 {
		respondErr(w, status, msg)
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	respondOK(w, http.StatusOK, h.Cache.Views(r.Context(), id, days), "")
}

// CacheStats exposes the cache client's snapshot.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	respondOK(w, http.StatusOK, h.Cache.Stats(r.Context()), "")
}

// RevokeToken denylists the presented credential for its remaining life.
func (h *Handlers) RevokeToken(w http.ResponseWriter, r *http.Request) {
	raw := tokenFromRequest(r)
	if raw == "" {
		respondErr(w, http.StatusBadRequest, "missing token")
		return
	}
	h.Tokens.Revoke(r.Context(), raw)
	respondOK(w, http.StatusOK, nil, "revoked")
}

// RefreshToken exchanges a valid refresh token for a fresh access token.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	raw := tokenFromRequest(r)
	claims, err := h.Tokens.Verify(r.Context(), raw, token.TypeRefresh)
	if err != nil {
		respondErr(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}
	access, err := h.Tokens.IssueAccess(claims.UserID)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"access_token": access}, "")
}

// Healthz is the liveness probe.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		respondErr(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	respondOK(w, http.StatusOK, nil, "ok")
}
