// internal/pagecache/views.go
//
// Page view counters.  Every non-artifact serve bumps two keys per page: a
// per-day counter that expires after seven days, and an all-time counter.
// On Redis both increments ride one pipeline so the pair stays in step;
// the in-process tier is the standalone fallback, with the usual caveat
// that its numbers are per-process.
package pagecache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ViewStats is a per-page view report.
type ViewStats struct {
	Total int64            `json:"total"`
	Daily map[string]int64 `json:"daily"` // date → views
}

// IncrementViews bumps the daily and all-time counters for a page.
func (c *Client) IncrementViews(ctx context.Context, pageID uint64) {
	today := time.Now().UTC().Format("2006-01-02")
	dailyKey := fmt.Sprintf(keyViewsDaily, pageID, today)
	totalKey := fmt.Sprintf(keyViewsTotal, pageID)

	if c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()

		pipe := c.rdb.Pipeline()
		pipe.Incr(opCtx, dailyKey)
		pipe.Expire(opCtx, dailyKey, viewsDailyTTL)
		pipe.Incr(opCtx, totalKey)
		if _, err := pipe.Exec(opCtx); err == nil {
			return
		} else {
			zap.S().Debugw("redis view increment bypassed", "page", pageID, "err", err)
		}
	}

	c.mem.incr(dailyKey, viewsDailyTTL)
	c.mem.incr(totalKey, 0)
}

// Views reports the all-time total plus the last `days` daily buckets.
func (c *Client) Views(ctx context.Context, pageID uint64, days int) ViewStats {
	if days <= 0 {
		days = 7
	}
	stats := ViewStats{Daily: make(map[string]int64, days)}
	totalKey := fmt.Sprintf(keyViewsTotal, pageID)

	if c.rdb != nil {
		opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()

		if n, err := c.rdb.Get(opCtx, totalKey).Int64(); err == nil {
			stats.Total = n
			for i := 0; i < days; i++ {
				date := time.Now().UTC().AddDate(0, 0, -i).Format("2006-01-02")
				k := fmt.Sprintf(keyViewsDaily, pageID, date)
				n, _ := c.rdb.Get(opCtx, k).Int64()
				stats.Daily[date] = n
			}
			return stats
		}
	}

	stats.Total = c.mem.count(totalKey)
	for i := 0; i < days; i++ {
		date := time.Now().UTC().AddDate(0, 0, -i).Format("2006-01-02")
		stats.Daily[date] = c.mem.count(fmt.Sprintf(keyViewsDaily, pageID, date))
	}
	return stats
}
