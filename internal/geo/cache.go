package geo

import (
	"context"
	"strconv"
	"time"

	"careshare/pkg/logger"
	"careshare/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// CachedDirectory is a read-through Redis cache in front of another
// Directory. Cache failures fall through to the wrapped directory.
type CachedDirectory struct {
	Next  Directory
	Redis redis.Cmdable
	TTL   time.Duration
}

func NewCachedDirectory(next Directory, rdb redis.Cmdable, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedDirectory{Next: next, Redis: rdb, TTL: ttl}
}

func (c *CachedDirectory) Radius(ctx context.Context, zip string, miles float64) ([]string, error) {
	z, err := NormalizeZip(zip)
	if err != nil {
		return nil, err
	}
	key := cacheKey(z, miles)
	log := logger.From(ctx)

	var zips []string
	found, err := utils.GetJSON(ctx, c.Redis, key, &zips)
	if err != nil {
		log.Warn("zip radius cache read failed", "key", key, "err", err)
	}
	if found {
		return zips, nil
	}

	zips, err = c.Next.Radius(ctx, z, miles)
	if err != nil {
		return nil, err
	}
	if err := utils.SetJSON(ctx, c.Redis, key, zips, c.TTL); err != nil {
		log.Warn("zip radius cache write failed", "key", key, "err", err)
	}
	return zips, nil
}

func cacheKey(zip string, miles float64) string {
	return "careshare:zipradius:" + zip + ":" + strconv.FormatFloat(miles, 'f', -1, 64)
}
