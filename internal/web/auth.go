// internal/web/auth.go
//
// Token transport and the token-gated middleware.
//
// Context
// -------
// The external editor presents its credential three ways: an
// `Authorization: Bearer` header, an `auth_token` cookie, or (on the
// initial editor load only) a `token` query parameter.  The middleware
// verifies the token for the required type and stashes the claims in the
// request context.  Verification is *not* authorization—handlers that act
// on a page must still walk page → site → user and compare against the
// claimed user ID.
package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/pagemade/pagemade/internal/page"
	"github.com/pagemade/pagemade/internal/site"
	"github.com/pagemade/pagemade/internal/token"
)

type claimsKey struct{}

// tokenFromRequest extracts the raw credential, trying the Authorization
// header, then the auth_token cookie, then the token query parameter.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if raw, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(raw)
		}
	}
	if c, err := r.Cookie("auth_token"); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

// requireToken gates a handler on a verified token of the given type.
func (h *Handlers) requireToken(wantType string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			respondErr(w, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := h.Tokens.Verify(r.Context(), raw, wantType)
		if err != nil {
			respondErr(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next(w, r.WithContext(ctx))
	}
}

// claimsFrom returns the verified claims stored by requireToken.
func claimsFrom(ctx context.Context) *token.Claims {
	c, _ := ctx.Value(claimsKey{}).(*token.Claims)
	return c
}

// ownedPage loads a page and its site and confirms the claimed user owns
// both.  Returns an HTTP status and message on failure.
func (h *Handlers) ownedPage(ctx context.Context, pageID, userID uint64) (*page.Record, *site.Record, int, string) {
	pg, err := page.ByID(ctx, h.DB, pageID)
	if err != nil {
		return nil, nil, http.StatusNotFound, "page not found"
	}
	st, err := site.ByID(ctx, h.DB, pg.SiteID)
	if err != nil {
		return nil, nil, http.StatusNotFound, "site not found"
	}
	if st.UserID != userID || pg.UserID != userID {
		return nil, nil, http.StatusForbidden, "unauthorized"
	}
	return pg, st, 0, ""
}
