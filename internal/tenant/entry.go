// internal/tenant/entry.go
//
// Tenant cache entry and aggregate.
//
// Context
// -------
// A live Tenant aggregates what the page server needs to serve one site:
// its `site` row.  The cache stores a pointer to Tenant inside `entry`,
// along with a `lastSeen` UnixNano timestamp used by the evictor for idle
// and LRU eviction.  Tenants are immutable after load; a republished site
// shows up after its entry is evicted or explicitly dropped.
package tenant

import (
	"github.com/pagemade/pagemade/internal/site"
)

type entry struct {
	tenant   *Tenant
	lastSeen int64 // UnixNano
}

// Tenant groups the per-site state handed to request handlers.
type Tenant struct {
	Site site.Record
}

// Subdomain is the cache key this tenant was loaded under.
func (t *Tenant) Subdomain() string { return t.Site.Subdomain }
