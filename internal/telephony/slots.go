package telephony

import (
	"context"
	"strconv"
	"time"

	"careshare/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// SlotLimiter caps concurrent outbound volunteer calls per conversation.
type SlotLimiter interface {
	// Acquire takes a slot; ok is false when the cap is reached.
	Acquire(ctx context.Context, conversationID int64) (ok bool, err error)
	Release(ctx context.Context, conversationID int64) error
}

// RedisSlots keeps one counter per conversation. The TTL bounds how long a
// slot leaked by a call that never reports back stays taken.
type RedisSlots struct {
	rdb   redis.Scripter
	limit int
	ttl   time.Duration
}

func NewRedisSlots(rdb redis.Scripter, limit int, ttl time.Duration) *RedisSlots {
	if limit <= 0 {
		limit = 1
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisSlots{rdb: rdb, limit: limit, ttl: ttl}
}

func (s *RedisSlots) Acquire(ctx context.Context, conversationID int64) (bool, error) {
	return utils.AcquireSlot(ctx, s.rdb, slotKey(conversationID), s.limit, s.ttl)
}

func (s *RedisSlots) Release(ctx context.Context, conversationID int64) error {
	return utils.ReleaseSlot(ctx, s.rdb, slotKey(conversationID))
}

func slotKey(conversationID int64) string {
	return "careshare:outbound:slots:" + strconv.FormatInt(conversationID, 10)
}

// NopSlots never limits. It is used when Redis is not configured.
type NopSlots struct{}

func (NopSlots) Acquire(context.Context, int64) (bool, error) { return true, nil }
func (NopSlots) Release(context.Context, int64) error         { return nil }
