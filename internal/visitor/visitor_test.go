// internal/visitor/visitor_test.go
//
// Unit-tests for UA parsing, bot detection, client-IP extraction, and the
// Enrich middleware.

package visitor

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const chromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

func TestParseUA_Browser(t *testing.T) {
	ua := ParseUA(chromeUA)

	if ua.Browser != "Chrome" {
		t.Fatalf("browser = %q, want Chrome", ua.Browser)
	}
	if ua.IsBot {
		t.Fatalf("desktop Chrome flagged as bot")
	}
	if ua.Raw != chromeUA {
		t.Fatalf("raw header lost")
	}
}

func TestParseUA_Bots(t *testing.T) {
	bots := []string{
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		"Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)",
	}
	for _, raw := range bots {
		if !ParseUA(raw).IsBot {
			t.Errorf("crawler not detected: %q", raw)
		}
	}
}

func TestClientIP(t *testing.T) {
	mk := func(remote string, hdr map[string]string) *http.Request {
		r := httptest.NewRequest("GET", "http://x/", nil)
		r.RemoteAddr = remote
		for k, v := range hdr {
			r.Header.Set(k, v)
		}
		return r
	}

	cases := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"forwarded-for wins", mk("10.0.0.1:555", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}), "203.0.113.9"},
		{"real-ip second", mk("10.0.0.1:555", map[string]string{"X-Real-Ip": "198.51.100.4"}), "198.51.100.4"},
		{"remote addr fallback", mk("192.0.2.7:12345", nil), "192.0.2.7"},
		{"garbage xff skipped", mk("192.0.2.7:12345", map[string]string{"X-Forwarded-For": "not-an-ip"}), "192.0.2.7"},
	}
	for _, c := range cases {
		got := clientIP(c.req)
		if got == nil || got.String() != c.want {
			t.Errorf("%s: clientIP = %v, want %s", c.name, got, c.want)
		}
	}
}

func TestEnrich(t *testing.T) {
	var captured *Info
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "http://acme.pagemade.site/", nil)
	req.Header.Set("User-Agent", chromeUA)
	req.RemoteAddr = "192.0.2.7:443"

	Enrich(next).ServeHTTP(httptest.NewRecorder(), req)

	if captured == nil {
		t.Fatalf("Info not attached to context")
	}
	if captured.UA.Browser != "Chrome" || captured.Geo.IP.String() != "192.0.2.7" {
		t.Fatalf("enrichment wrong: %+v", captured)
	}
}

func TestFromContext_Missing(t *testing.T) {
	if FromContext(httptest.NewRequest("GET", "http://x/", nil).Context()) != nil {
		t.Fatalf("expected nil without middleware")
	}
}
