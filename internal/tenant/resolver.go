// internal/tenant/resolver.go
//
// Host-header → tenant subdomain resolution.
//
// Context
// -------
// Every inbound request carries a Host header; tenant content lives on
// `{subdomain}.{root-domain}`.  Requests for the bare root domain (or its
// www. variant) belong to the main application and are never resolved to a
// tenant.  Anything that is not exactly one label in front of the root
// domain falls through unresolved, which downstream turns into the branded
// not-found page.
package tenant

import (
	"strings"
)

// Resolve extracts the tenant subdomain from a Host header value.  It strips
// any port suffix, compares case-insensitively, and refuses the bare root
// domain, its www. variant, and hosts outside the root domain entirely.
// The boolean is false when the request does not target a tenant.
func Resolve(host, rootDomain string) (string, bool) {
	host = strings.ToLower(stripPort(strings.TrimSpace(host)))
	rootDomain = strings.ToLower(rootDomain)

	if host == "" || rootDomain == "" {
		return "", false
	}
	if host == rootDomain || host == "www."+rootDomain {
		return "", false
	}

	// Exactly one label in front of the root domain.
	suffix := "." + rootDomain
	if !strings.HasSuffix(host, suffix) {
		return "", false
	}
	sub := strings.TrimSuffix(host, suffix)
	if sub == "" || strings.Contains(sub, ".") {
		return "", false
	}
	return sub, true
}

// stripPort removes any “:port” suffix from a Host header.  IPv6 literals
// never name tenants, so the bracket form is not special-cased beyond not
// matching the root domain.
func stripPort(h string) string {
	if i := strings.LastIndexByte(h, ':'); i != -1 && !strings.Contains(h[i:], "]") {
		return h[:i]
	}
	return h
}
