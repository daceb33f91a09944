// internal/page/slug_test.go
//
// Unit-tests for MakeSlug, with emphasis on the byte cap and the dash
// trimming that keeps a truncated slug from ending in “-”.

package page

import (
	"strings"
	"testing"
)

func TestMakeSlug(t *testing.T) {
	cases := map[string]string{
		"Hello World":            "hello-world",
		"  Already--kebab  ":     "already-kebab",
		"Ünïcödé Tîtle":          "n-c-d-t-tle",
		"!!!":                    "page",
		"":                       "page",
		"About Us / Contact":     "about-us-contact",
		"Price: $9.99 (limited)": "price-9-99-limited",
		"UPPER case 42":          "upper-case-42",
	}
	for in, want := range cases {
		if got := MakeSlug(in); got != want {
			t.Errorf("MakeSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMakeSlug_Cap(t *testing.T) {
	long := strings.Repeat("word ", 40) // 200 chars pre-slug
	got := MakeSlug(long)

	if len(got) > 50 {
		t.Fatalf("slug exceeds cap: %d bytes (%q)", len(got), got)
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("truncated slug ends in dash: %q", got)
	}
	if !strings.HasPrefix(got, "word-word") {
		t.Fatalf("unexpected slug content: %q", got)
	}
}
