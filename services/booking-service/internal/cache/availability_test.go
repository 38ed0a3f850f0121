package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage/memstore"
	"github.com/redis/go-redis/v9"
)

type countingStore struct {
	*memstore.Store
	gets int
}

func (s *countingStore) GetAvailability(ctx context.Context, doctorID string) (model.WeeklyAvailability, error) {
	s.gets++
	return s.Store.GetAvailability(ctx, doctorID)
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestFallsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memstore.New()}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewAvailability(inner, rdb, time.Minute, discard())
	avail := model.WeeklyAvailability{model.Monday: {model.MustSlot("09:00", "09:30")}}
	if err := c.SetAvailability(ctx, "doc", avail); err != nil {
		t.Fatalf("set should succeed without redis: %v", err)
	}
	got, err := c.GetAvailability(ctx, "doc")
	if err != nil || !got.Equal(avail) {
		t.Fatalf("expected inner store answer, got %v (%v)", got, err)
	}
}

func TestReadThroughAndInvalidate(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingStore{Store: memstore.New()}
	c := NewAvailability(inner, rdb, time.Minute, discard())
	doctor := "cache-test-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { rdb.Del(context.Background(), Key(doctor), generationKey(doctor)) })

	first := model.WeeklyAvailability{model.Monday: {model.MustSlot("09:00", "09:30")}}
	if err := c.SetAvailability(ctx, doctor, first); err != nil {
		t.Fatalf("set: %v", err)
	}
	for i := 0; i < 3; i++ {
		got, err := c.GetAvailability(ctx, doctor)
		if err != nil || !got.Equal(first) {
			t.Fatalf("get: %v (%v)", got, err)
		}
	}
	if inner.gets != 1 {
		t.Fatalf("expected one inner read, got %d", inner.gets)
	}

	second := model.WeeklyAvailability{model.Friday: {model.MustSlot("10:00", "10:30")}}
	if err := c.SetAvailability(ctx, doctor, second); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ := c.GetAvailability(ctx, doctor)
	if !got.Equal(second) {
		t.Fatalf("expected invalidated entry to be reloaded, got %v", got)
	}
}

// racingStore runs onRead after the inner read and before the caller fills the cache.
type racingStore struct {
	*memstore.Store
	onRead func()
}

func (s *racingStore) GetAvailability(ctx context.Context, doctorID string) (model.WeeklyAvailability, error) {
	avail, err := s.Store.GetAvailability(ctx, doctorID)
	if s.onRead != nil {
		hook := s.onRead
		s.onRead = nil
		hook()
	}
	return avail, err
}

func TestWriteDuringMissDoesNotCacheOldMap(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &racingStore{Store: memstore.New()}
	c := NewAvailability(inner, rdb, time.Minute, discard())
	doctor := "cache-race-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { rdb.Del(context.Background(), Key(doctor), generationKey(doctor)) })

	old := model.WeeklyAvailability{model.Monday: {model.MustSlot("09:00", "09:30")}}
	newer := model.WeeklyAvailability{model.Monday: {model.MustSlot("14:00", "14:30")}}
	if err := inner.Store.SetAvailability(ctx, doctor, old); err != nil {
		t.Fatalf("seed: %v", err)
	}
	inner.onRead = func() {
		if err := c.SetAvailability(ctx, doctor, newer); err != nil {
			t.Errorf("concurrent set: %v", err)
		}
	}

	got, err := c.GetAvailability(ctx, doctor)
	if err != nil || !got.Equal(old) {
		t.Fatalf("racing read should see the map it loaded, got %v (%v)", got, err)
	}
	got, err = c.GetAvailability(ctx, doctor)
	if err != nil || !got.Equal(newer) {
		t.Fatalf("expected the newer map after the write, got %v (%v)", got, err)
	}
}

func TestFreshReadSkipsCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingStore{Store: memstore.New()}
	c := NewAvailability(inner, rdb, time.Minute, discard())
	doctor := "cache-fresh-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { rdb.Del(context.Background(), Key(doctor), generationKey(doctor)) })

	cached := model.WeeklyAvailability{model.Monday: {model.MustSlot("09:00", "09:30")}}
	raw, _ := json.Marshal(cached)
	if err := rdb.Set(ctx, Key(doctor), raw, time.Minute).Err(); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	got, err := c.GetAvailabilityFresh(ctx, doctor)
	if err != nil || len(got) != 0 || inner.gets != 1 {
		t.Fatalf("expected the inner store's empty map, got %v (%v), inner reads %d", got, err, inner.gets)
	}
}
