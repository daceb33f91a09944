// internal/pagecache/denylist.go
//
// Token revocation denylist.  Revoked editor tokens are keyed by their raw
// string under the `revoked_token:` namespace with a TTL equal to the
// token's remaining life—after that the token's own expiry takes over, so
// the denylist never has to outlive it.  Piggybacks on the same two-tier
// store as rendered content instead of the session layer.
package pagecache

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken records a raw token string as revoked for ttl.
func (c *Client) RevokeToken(ctx context.Context, token string, ttl time.Duration) {
	if ttl <= 0 {
		return // already expired; nothing to deny
	}
	key := fmt.Sprintf(keyRevoked, token)
	c.mem.set(key, []byte{1}, ttl)

	if c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()
		_ = c.rdb.Set(opCtx, key, 1, ttl).Err()
	}
}

// TokenRevoked reports whether a raw token string has been revoked.
func (c *Client) TokenRevoked(ctx context.Context, token string) bool {
	key := fmt.Sprintf(keyRevoked, token)
	if _, ok := c.mem.get(key); ok {
		return true
	}
	if c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()
		if n, err := c.rdb.Exists(opCtx, key).Result(); err == nil && n > 0 {
			return true
		}
	}
	return false
}
