// internal/pagecache/views_test.go
//
// Unit-tests for the in-process view counters and the token denylist.

package pagecache

import (
	"context"
	"testing"
	"time"
)

func TestIncrementAndReadViews(t *testing.T) {
	c := New(Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.IncrementViews(ctx, 55)
	}
	c.IncrementViews(ctx, 56) // different page, must not bleed over

	stats := c.Views(ctx, 55, 7)
	if stats.Total != 3 {
		t.Fatalf("total = %d, want 3", stats.Total)
	}
	if len(stats.Daily) != 7 {
		t.Fatalf("daily buckets = %d, want 7", len(stats.Daily))
	}
	today := time.Now().UTC().Format("2006-01-02")
	if stats.Daily[today] != 3 {
		t.Fatalf("today's bucket = %d, want 3", stats.Daily[today])
	}
}

func TestViews_DefaultWindow(t *testing.T) {
	c := New(Options{})

	stats := c.Views(context.Background(), 1, 0)
	if len(stats.Daily) != 7 || stats.Total != 0 {
		t.Fatalf("unexpected zero-view stats: %+v", stats)
	}
}

func TestTokenDenylist(t *testing.T) {
	c := New(Options{})
	ctx := context.Background()

	if c.TokenRevoked(ctx, "tok-a") {
		t.Fatalf("unknown token reported revoked")
	}

	c.RevokeToken(ctx, "tok-a", time.Minute)
	if !c.TokenRevoked(ctx, "tok-a") {
		t.Fatalf("revoked token not flagged")
	}
	if c.TokenRevoked(ctx, "tok-b") {
		t.Fatalf("revocation bled across tokens")
	}
}

func TestTokenDenylist_Expiry(t *testing.T) {
	c := New(Options{})
	ctx := context.Background()

	c.RevokeToken(ctx, "tok-short", 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if c.TokenRevoked(ctx, "tok-short") {
		t.Fatalf("revocation outlived its TTL")
	}
}
