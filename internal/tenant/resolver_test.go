// internal/tenant/resolver_test.go
//
// Unit-tests for Host-header → subdomain resolution.
//
// Context
// -------
// Resolve is the gate between "this request is a tenant site" and "this
// request is the main application", so both directions get exercised: valid
// subdomains with and without ports, the bare root domain and its www.
// variant, foreign hosts, and multi-label prefixes.

package tenant

import "testing"

func TestResolve(t *testing.T) {
	const root = "pagemade.site"

	cases := []struct {
		host    string
		wantSub string
		wantOK  bool
	}{
		{"acme.pagemade.site", "acme", true},
		{"ACME.Pagemade.Site", "acme", true},
		{"acme.pagemade.site:8080", "acme", true},
		{"my-shop.pagemade.site", "my-shop", true},

		{"pagemade.site", "", false},
		{"www.pagemade.site", "", false},
		{"pagemade.site:443", "", false},
		{"deep.acme.pagemade.site", "", false},
		{"evilpagemade.site", "", false},
		{"example.com", "", false},
		{"localhost:8080", "", false},
		{"", "", false},
		{"[::1]:8080", "", false},
	}

	for _, c := range cases {
		sub, ok := Resolve(c.host, root)
		if ok != c.wantOK || sub != c.wantSub {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)",
				c.host, sub, ok, c.wantSub, c.wantOK)
		}
	}
}

func TestStripPort(t *testing.T) {
	cases := map[string]string{
		"host.example:8080": "host.example",
		"host.example":      "host.example",
		"[::1]:443":         "[::1]",
		"[::1]":             "[::1]",
	}
	for in, want := range cases {
		if got := stripPort(in); got != want {
			t.Errorf("stripPort(%q) = %q, want %q", in, got, want)
		}
	}
}
