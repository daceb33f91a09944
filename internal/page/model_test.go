// internal/page/model_test.go
//
// Unit-tests for artifact naming.

package page

import "testing"

func TestArtifactFilename(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		want string
	}{
		{"homepage wins over slug", Record{IsHomepage: true, Slug: "about"}, "index.html"},
		{"slug used as-is", Record{Slug: "about-us"}, "about-us.html"},
		{"slug regenerated from title", Record{Title: "Our Team"}, "our-team.html"},
		{"empty everything", Record{}, "page.html"},
	}
	for _, c := range cases {
		if got := c.rec.ArtifactFilename(); got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestLegacyArtifactFilename(t *testing.T) {
	r := Record{ID: 1042}
	if got := r.LegacyArtifactFilename(); got != "page_1042.html" {
		t.Fatalf("got %q, want page_1042.html", got)
	}
}
