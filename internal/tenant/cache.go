package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/pagemade/pagemade/internal/metrics"
	"github.com/pagemade/pagemade/internal/site"
)

// Static defaults.  Override via the constructor if desired.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 1000
	EvictInterval = 5 * time.Minute
)

// ErrNotFound is returned when a subdomain is not present in the site table.
var ErrNotFound = errors.New("tenant not found")

// Cache lazily loads tenant sites by subdomain, stores them in a sync.Map,
// and evicts them on idle TTL or LRU pressure.  Eviction also serves as the
// refresh mechanism: site-row changes (title, publish state) surface once
// the entry cycles out.
type Cache struct {
	db          *sqlx.DB
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	idleTTL     time.Duration
	maxEntries  int
}

// New constructs a Cache and starts the background evictor.
func New(db *sqlx.DB, idleTTL time.Duration, maxEntries int) *Cache {
	c := &Cache{
		db:         db,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the Tenant for subdomain, loading it on demand.  Concurrent
// misses for the same subdomain collapse into one database round trip.
func (c *Cache) Get(ctx context.Context, subdomain string) (*Tenant, error) {
	// Junk hosts (scanner probes, mistyped labels) never reach the database.
	if !site.ValidSubdomain(subdomain) {
		return nil, ErrNotFound
	}
	if v, ok := c.m.Load(subdomain); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.tenant, nil
	}

	// The load is shared by every collapsed caller, so it must not die with
	// the first caller's request context.
	loadCtx := context.WithoutCancel(ctx)

	v, err, _ := c.sfg.Do(subdomain, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(subdomain); ok {
			ent := v.(*entry)
			atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
			return ent.tenant, nil
		}
		rec, err := site.BySubdomain(loadCtx, c.db, subdomain)
		if err != nil {
			metrics.TenantLoadErrorsTotal.Inc()
			if errors.Is(err, site.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		ent := &entry{
			tenant:   &Tenant{Site: *rec},
			lastSeen: time.Now().UnixNano(),
		}
		c.m.Store(subdomain, ent)
		metrics.TenantLoadTotal.Inc()
		metrics.ActiveTenants.Inc()
		return ent.tenant, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tenant), nil
}

// Drop removes one subdomain from the cache.  The publisher calls this when
// a publish flips a site's publication state, so the next request reloads
// the fresh row instead of waiting out the idle TTL.
func (c *Cache) Drop(subdomain string) {
	if _, ok := c.m.LoadAndDelete(subdomain); ok {
		metrics.ActiveTenants.Dec()
	}
}

// Stop halts the background evictor.  Entries stay resident; Stop is for
// process shutdown, not cache clearing.
func (c *Cache) Stop() {
	c.evictTicker.Stop()
}
