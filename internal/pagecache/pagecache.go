// Package pagecache is the two-tier rendered-content cache.
//
// Context
// -------
// Published pages are served from durable artifact files when possible, but
// the fallback chain reconstructs content from the database when no artifact
// exists.  This cache sits between those two worlds: it holds rendered
// `{html, css}` payloads keyed by page ID, plus per-page view counters and
// a per-site listing cache.
//
// Two tiers back every operation.  An in-process TTL+LRU map is always
// available; a Redis tier (same key namespace as the rest of the fleet) is
// used when reachable and silently bypassed when it is not.  Callers never
// receive an error because Redis is down—the contract is "degrade, don't
// fail".  The one consistency requirement is read-after-publish: the
// publisher calls Invalidate synchronously before reporting success, so a
// serve that follows a publish never sees the pre-publish payload.
//
// The client is constructed once at boot and injected; there is no package
// global.
package pagecache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pagemade/pagemade/internal/metrics"
)

// Key namespaces shared with the rest of the fleet.  Do not change without
// a coordinated cache flush.
const (
	keyPageContent = "page_content:%d"
	keySitePages   = "site_pages:%d"
	keyViewsDaily  = "page_views:%d:%s" // date formatted YYYY-MM-DD
	keyViewsTotal  = "page_views_total:%d"
	keyRevoked     = "revoked_token:%s"
)

// Default TTLs.  Content entries are reconstructable from the database, so
// an hour bounds staleness without hurting correctness; view counters keep
// seven days of dailies.
const (
	DefaultContentTTL = time.Hour
	DefaultListingTTL = 30 * time.Minute
	viewsDailyTTL     = 7 * 24 * time.Hour
	redisOpTimeout    = 500 * time.Millisecond
)

// Payload is one cached rendering.
type Payload struct {
	PageID   uint64    `json:"page_id"`
	HTML     string    `json:"html"`
	CSS      string    `json:"css"`
	CachedAt time.Time `json:"cached_at"`
}

// PageSummary is the listing-cache projection of a published page.
type PageSummary struct {
	ID         uint64 `json:"id"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	IsHomepage bool   `json:"is_homepage"`
}

// Stats is a point-in-time snapshot for the admin surface.
type Stats struct {
	RedisAvailable bool   `json:"redis_available"`
	MemoryEntries  int    `json:"memory_entries"`
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
}

// Client is safe for concurrent use.  Construct with New, close with Close.
type Client struct {
	mem *memoryTier
	rdb *redis.Client // nil when the networked tier is disabled

	contentTTL time.Duration
	listingTTL time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Options configures New.  Zero values fall back to the package defaults;
// an empty RedisAddr disables the networked tier entirely.
type Options struct {
	RedisAddr  string
	RedisDB    int
	ContentTTL time.Duration
	ListingTTL time.Duration
	MaxEntries int
}

// New constructs the cache client.  When a Redis address is configured the
// connection is probed once with a short timeout; a failed probe downgrades
// to memory-only with a warning rather than an error, because the cache is
// never authoritative.
func New(opts Options) *Client {
	c := &Client{
		mem:        newMemoryTier(opts.MaxEntries),
		contentTTL: opts.ContentTTL,
		listingTTL: opts.ListingTTL,
	}
	if c.contentTTL <= 0 {
		c.contentTTL = DefaultContentTTL
	}
	if c.listingTTL <= 0 {
		c.listingTTL = DefaultListingTTL
	}

	if opts.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         opts.RedisAddr,
			DB:           opts.RedisDB,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  redisOpTimeout,
			WriteTimeout: redisOpTimeout,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zap.S().Warnw("redis unreachable, cache degraded to in-process tier",
				"addr", opts.RedisAddr, "err", err)
		}
		// Keep the client even after a failed probe; each op carries its
		// own timeout and Redis may come back.
		c.rdb = rdb
	}
	return c
}

// Close releases the Redis connection.  The in-process tier needs no
// teardown.
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

//
// Content cache
//

// PutPage stores one rendering in both tiers.  ttl <= 0 uses the configured
// content TTL.
func (c *Client) PutPage(ctx context.Context, pageID uint64, html, css string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.contentTTL
	}
	p := Payload{PageID: pageID, HTML: html, CSS: css, CachedAt: time.Now().UTC()}
	raw, err := json.Marshal(p)
	if err != nil {
		zap.S().Errorw("cache payload marshal", "page", pageID, "err", err)
		return
	}

	key := fmt.Sprintf(keyPageContent, pageID)
	c.mem.set(key, raw, ttl)

	if c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()
		if err := c.rdb.Set(opCtx, key, raw, ttl).Err(); err != nil {
			zap.S().Debugw("redis set bypassed", "key", key, "err", err)
		}
	}
}

// GetPage returns a cached rendering.  The in-process tier is consulted
// first; a Redis hit is written back into it.
func (c *Client) GetPage(ctx context.Context, pageID uint64) (Payload, bool) {
	key := fmt.Sprintf(keyPageContent, pageID)

	if raw, ok := c.mem.get(key); ok {
		var p Payload
		if err := json.Unmarshal(raw, &p); err == nil {
			c.hits.Add(1)
			metrics.CacheHitTotal.Inc()
			return p, true
		}
		c.mem.del(key)
	}

	if c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()
		raw, err := c.rdb.Get(opCtx, key).Bytes()
		if err == nil {
			var p Payload
			if err := json.Unmarshal(raw, &p); err == nil {
				c.mem.set(key, raw, c.contentTTL)
				c.hits.Add(1)
				metrics.CacheHitTotal.Inc()
				return p, true
			}
		} else if err != redis.Nil {
			zap.S().Debugw("redis get bypassed", "key", key, "err", err)
		}
	}

	c.misses.Add(1)
	metrics.CacheMissTotal.Inc()
	return Payload{}, false
}

// Invalidate removes a page's rendering from both tiers.  The publisher
// calls this synchronously before reporting success, which is what gives
// republish its read-after-write guarantee.
func (c *Client) Invalidate(ctx context.Context, pageID uint64) {
	key := fmt.Sprintf(keyPageContent, pageID)
	c.mem.del(key)

	if c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()
		if err := c.rdb.Del(opCtx, key).Err(); err != nil {
			zap.S().Debugw("redis del bypassed", "key", key, "err", err)
		}
	}
}

//
// Site listing cache
//

// PutSitePages caches a site's published-page listing.
func (c *Client) PutSitePages(ctx context.Context, siteID uint64, pages []PageSummary) {
	raw, err := json.Marshal(pages)
	if err != nil {
		return
	}
	key := fmt.Sprintf(keySitePages, siteID)
	c.mem.set(key, raw, c.listingTTL)

	if c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()
		if err := c.rdb.Set(opCtx, key, raw, c.listingTTL).Err(); err != nil {
			zap.S().Debugw("redis set bypassed", "key", key, "err", err)
		}
	}
}

// GetSitePages returns the cached listing, if any.
func (c *Client) GetSitePages(ctx context.Context, siteID uint64) ([]PageSummary, bool) {
	key := fmt.Sprintf(keySitePages, siteID)

	raw, ok := c.mem.get(key)
	if !ok && c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()
		b, err := c.rdb.Get(opCtx, key).Bytes()
		if err == nil {
			raw, ok = b, true
			c.mem.set(key, b, c.listingTTL)
		}
	}
	if !ok {
		return nil, false
	}

	var pages []PageSummary
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, false
	}
	return pages, true
}

// InvalidateSitePages drops a site's listing cache, e.g. after a publish
// changes what the site exposes.
func (c *Client) InvalidateSitePages(ctx context.Context, siteID uint64) {
	key := fmt.Sprintf(keySitePages, siteID)
	c.mem.del(key)

	if c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()
		_ = c.rdb.Del(opCtx, key).Err()
	}
}

//
// Stats
//

// Stats snapshots hit/miss counters and tier health.
func (c *Client) Stats(ctx context.Context) Stats {
	s := Stats{
		MemoryEntries: c.mem.len(),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
	}
	if c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()
		s.RedisAvailable = c.rdb.Ping(opCtx).Err() == nil
	}
	return s
}
