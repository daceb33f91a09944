// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/pagemade/pagemade/internal/tenant"
)

// ForceHTTPS wraps h.  If the request is plain HTTP, the host is not
// “localhost”, and the tenant cache confirms the subdomain exists, the
// wrapper issues a 308 Permanent Redirect to the HTTPS version of the same
// URL.  Otherwise it calls the next handler unchanged.  A TLS-terminating
// proxy is honored via X-Forwarded-Proto.
func ForceHTTPS(cache *tenant.Cache, rootDomain string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Already HTTPS (direct or behind the proxy) or dev host → continue.
		if r.TLS != nil ||
			r.Header.Get("X-Forwarded-Proto") == "https" ||
			stripPort(r.Host) == "localhost" {
			h.ServeHTTP(w, r)
			return
		}

		// The apex always redirects; subdomains only if the site exists.
		host := stripPort(r.Host)
		sub, ok := tenant.Resolve(host, rootDomain)
		known := !ok && (host == rootDomain || host == "www."+rootDomain)
		if ok {
			if _, err := cache.Get(r.Context(), sub); err == nil {
				known = true
			}
		}
		if known {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}

		// Unknown host → keep normal flow (likely the branded 404 later).
		h.ServeHTTP(w, r)
	})
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if i := strings.IndexByte(h, ':'); i != -1 {
		return h[:i]
	}
	return h
}
