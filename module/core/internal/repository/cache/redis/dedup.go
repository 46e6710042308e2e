package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/cache"
)

var _ cache.FixDeduper = (*FixDeduper)(nil)

const defaultTTL = 10 * time.Minute

// FixDeduper drops fixes delivered twice, either by MQTT redelivery or by the
// foreground stream and a background batch reporting the same sample.
// Key format: fix:<unix_millis>:<lat>:<lon>
type FixDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFixDeduper(client *redis.Client, ttl time.Duration) *FixDeduper {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &FixDeduper{client: client, ttl: ttl}
}

func (d *FixDeduper) MarkSeen(ctx context.Context, fix *domain.Fix) (bool, error) {
	ok, err := d.client.SetNX(ctx, Key(fix), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup mark: %w", err)
	}
	return ok, nil
}

// Key writes coordinates in their shortest exact form; no rounding.
func Key(fix *domain.Fix) string {
	return "fix:" + strconv.FormatInt(fix.Timestamp.UnixMilli(), 10) +
		":" + strconv.FormatFloat(fix.Latitude, 'g', -1, 64) +
		":" + strconv.FormatFloat(fix.Longitude, 'g', -1, 64)
}
