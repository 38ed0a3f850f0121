package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "availability:"

type AvailabilityStore interface {
	GetAvailability(ctx context.Context, doctorID string) (model.WeeklyAvailability, error)
	SetAvailability(ctx context.Context, doctorID string, avail model.WeeklyAvailability) error
}

// Availability is a read-through Redis cache in front of an AvailabilityStore.
// Redis failures are logged and the inner store answers; the cache never
// turns a healthy store into an error.
type Availability struct {
	inner  AvailabilityStore
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewAvailability(inner AvailabilityStore, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Availability {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Availability{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

// Key is the cache entry for one doctor. The braces keep the entry and its
// generation counter in the same cluster slot.
func Key(doctorID string) string { return keyPrefix + "{" + doctorID + "}" }

func generationKey(doctorID string) string { return Key(doctorID) + ":gen" }

// fillIfCurrent stores the entry only while the generation is still the one
// read before the inner store was consulted.
var fillIfCurrent = redis.NewScript(`
local gen = redis.call("GET", KEYS[2]) or "0"
if gen ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *Availability) GetAvailability(ctx context.Context, doctorID string) (model.WeeklyAvailability, error) {
	raw, err := c.rdb.Get(ctx, Key(doctorID)).Bytes()
	switch {
	case err == nil:
		var avail model.WeeklyAvailability
		jerr := json.Unmarshal(raw, &avail)
		if jerr == nil {
			return avail, nil
		}
		c.logger.Warn("availability cache entry unreadable", "doctor_id", doctorID, "err", jerr)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("availability cache read failed", "doctor_id", doctorID, "err", err)
		return c.inner.GetAvailability(ctx, doctorID)
	}

	gen, err := c.rdb.Get(ctx, generationKey(doctorID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		gen = "0"
	case err != nil:
		c.logger.Warn("availability cache read failed", "doctor_id", doctorID, "err", err)
		return c.inner.GetAvailability(ctx, doctorID)
	}

	avail, err := c.inner.GetAvailability(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, doctorID, gen, avail)
	return avail, nil
}

func (c *Availability) fill(ctx context.Context, doctorID, gen string, avail model.WeeklyAvailability) {
	raw, err := json.Marshal(avail)
	if err != nil {
		return
	}
	keys := []string{Key(doctorID), generationKey(doctorID)}
	stored, err := fillIfCurrent.Run(ctx, c.rdb, keys, gen, raw, c.ttl.Milliseconds()).Int()
	switch {
	case err != nil:
		c.logger.Warn("availability cache write failed", "doctor_id", doctorID, "err", err)
	case stored == 0:
		c.logger.Debug("availability cache fill skipped, entry changed meanwhile", "doctor_id", doctorID)
	}
}

// GetAvailabilityFresh bypasses the cache.
func (c *Availability) GetAvailabilityFresh(ctx context.Context, doctorID string) (model.WeeklyAvailability, error) {
	return c.inner.GetAvailability(ctx, doctorID)
}

// SetAvailability writes through, then bumps the generation so reads that
// started earlier cannot fill the cache, and drops the cached copy.
func (c *Availability) SetAvailability(ctx context.Context, doctorID string, avail model.WeeklyAvailability) error {
	if err := c.inner.SetAvailability(ctx, doctorID, avail); err != nil {
		return err
	}
	if err := c.rdb.Incr(ctx, generationKey(doctorID)).Err(); err != nil {
		c.logger.Warn("availability cache generation bump failed", "doctor_id", doctorID, "err", err)
	}
	if err := c.rdb.Del(ctx, Key(doctorID)).Err(); err != nil {
		c.logger.Warn("availability cache invalidation failed", "doctor_id", doctorID, "err", err)
	}
	return nil
}
