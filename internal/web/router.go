// internal/web/router.go
//
// Route tree and the host split.  Every request is first classified by its
// Host header: a tenant subdomain goes to the page server, anything on the
// root domain (or an unknown host) goes to the application routes.
//
// Notes:
//   - The tenant path never touches chi routing; the page server owns the
//     whole URL space of a tenant host, with the first path segment taken
//     as the page slug.
//   - /metrics and /healthz are root-domain only so tenant sites cannot be
//     probed for them.
package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pagemade/pagemade/internal/middleware"
	"github.com/pagemade/pagemade/internal/pageserver"
	"github.com/pagemade/pagemade/internal/tenant"
	"github.com/pagemade/pagemade/internal/token"
	"github.com/pagemade/pagemade/internal/visitor"
)

// Router wires the full HTTP surface: tenant serving, the editor API, the
// publish/management endpoints, and the operational routes.
func Router(h *Handlers, tenants *tenant.Cache, pages *pageserver.Server, forceHTTPS bool) http.Handler {
	app := appRoutes(h)

	split := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, ok := tenant.Resolve(r.Host, h.RootDomain)
		if !ok {
			app.ServeHTTP(w, r)
			return
		}

		ten, err := tenants.Get(r.Context(), sub)
		if err != nil && err != tenant.ErrNotFound {
			zap.S().Errorw("tenant lookup failed", "subdomain", sub, "err", err)
		}
		pages.Serve(w, r, ten, slugFromPath(r.URL.Path))
	})

	var root http.Handler = visitor.Enrich(split)
	if forceHTTPS {
		root = middleware.ForceHTTPS(tenants, h.RootDomain, root)
	}
	return root
}

// slugFromPath reduces a tenant-host request path to a page slug.  Only the
// first segment matters; "/" and "/index.html" both mean the homepage.
func slugFromPath(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSuffix(p, ".html")
	if p == "index" {
		return ""
	}
	return p
}

func appRoutes(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Editor origin surface.  Everything here is page-scoped and demands
	// an editor token minted by OpenEditor.
	r.Route("/api/pages/{id}", func(r chi.Router) {
		r.Get("/load", h.requireToken(token.TypeEditor, h.LoadContent))
		r.Post("/save", h.requireToken(token.TypeEditor, h.SaveContent))
		r.Post("/publish", h.requireToken(token.TypeEditor, h.PublishPage))
	})

	// Dashboard surface, behind ordinary access tokens.
	r.Get("/editor/{id}", h.OpenEditor)
	r.Route("/pages/{id}", func(r chi.Router) {
		r.Post("/publish", h.requireToken(token.TypeAccess, h.PublishPage))
		r.Post("/unpublish", h.requireToken(token.TypeAccess, h.UnpublishPage))
		r.Post("/homepage", h.requireToken(token.TypeAccess, h.SetHomepage))
		r.Get("/views", h.requireToken(token.TypeAccess, h.PageViews))
	})

	r.Get("/sites/{id}/pages", h.requireToken(token.TypeAccess, h.SitePages))

	r.Post("/auth/refresh", h.RefreshToken)
	r.Post("/auth/revoke", h.requireToken(token.TypeAccess, h.RevokeToken))
	r.Get("/cache/stats", h.requireToken(token.TypeAccess, h.CacheStats))

	return r
}
