package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
	"github.com/redis/go-redis/v9"
)

// RedisLatestReadingCache caches the newest monitoring reading per alat.
// Entries expire after ttl and are dropped whenever the buffer changes.
// A per-alat generation counter keeps a slow reader from writing back a
// reading that was deleted after it loaded it.
type RedisLatestReadingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLatestReadingCache(rdb *redis.Client, ttl time.Duration) *RedisLatestReadingCache {
	return &RedisLatestReadingCache{rdb: rdb, ttl: ttl}
}

func latestKey(idalat string) string {
	return "monitoring:" + idalat + ":latest"
}

func generationKey(idalat string) string {
	return "monitoring:" + idalat + ":gen"
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, c getter, idalat string) (int64, error) {
	gen, err := c.Get(ctx, generationKey(idalat)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisLatestReadingCache) Get(ctx context.Context, idalat string) (*hardware_models.MonitoringReading, bool, error) {
	raw, err := c.rdb.Get(ctx, latestKey(idalat)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var reading hardware_models.MonitoringReading
	if err := json.Unmarshal(raw, &reading); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached reading: %w", err)
	}
	return &reading, true, nil
}

func (c *RedisLatestReadingCache) Generation(ctx context.Context, idalat string) (int64, error) {
	return readGeneration(ctx, c.rdb, idalat)
}

// Set stores reading unless the alat was invalidated since generation was read.
// It reports whether the entry was written.
func (c *RedisLatestReadingCache) Set(ctx context.Context, reading *hardware_models.MonitoringReading, generation int64) (bool, error) {
	raw, err := json.Marshal(reading)
	if err != nil {
		return false, fmt.Errorf("failed to encode reading: %w", err)
	}

	written := false
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, reading.IDAlat)
		if err != nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, latestKey(reading.IDAlat), raw, c.ttl)
			return nil
		})
		if err == nil {
			written = true
		}
		return err
	}, generationKey(reading.IDAlat))

	// an Invalidate landed between WATCH and EXEC
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return written, err
}

// Invalidate drops the entry and bumps the generation in one transaction
func (c *RedisLatestReadingCache) Invalidate(ctx context.Context, idalat string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(idalat))
		pipe.Del(ctx, latestKey(idalat))
		return nil
	})
	return err
}

func (c *RedisLatestReadingCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
