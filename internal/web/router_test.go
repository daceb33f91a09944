// internal/web/router_test.go
//
// Unit-tests for path → slug reduction and token transport extraction.

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSlugFromPath(t *testing.T) {
	cases := map[string]string{
		"/":           "",
		"":            "",
		"/index":      "",
		"/index.html": "",
		"/about":      "about",
		"/about/":     "about",
		"/about.html": "about",
		"/a/b/c":      "a",
		"/my-page":    "my-page",
	}
	for in, want := range cases {
		if got := slugFromPath(in); got != want {
			t.Errorf("slugFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://x/", nil)
		r.Header.Set("Authorization", "Bearer abc.def.ghi")
		if got := tokenFromRequest(r); got != "abc.def.ghi" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("cookie fallback", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://x/", nil)
		r.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"})
		if got := tokenFromRequest(r); got != "cookie-token" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("query param last", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://x/?token=query-token", nil)
		if got := tokenFromRequest(r); got != "query-token" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("header beats cookie", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://x/?token=query-token", nil)
		r.Header.Set("Authorization", "Bearer header-token")
		r.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"})
		if got := tokenFromRequest(r); got != "header-token" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := tokenFromRequest(httptest.NewRequest("GET", "http://x/", nil)); got != "" {
			t.Fatalf("got %q", got)
		}
	})
}
