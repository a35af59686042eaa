package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

const throttleKeyPrefix = "erfiume:throttle:"

// RedisThrottleRepository keeps one hash per identity and lets Redis evict
// it when the cool-down window ends.
type RedisThrottleRepository struct {
	client *redis.Client
}

// NewRedisThrottleRepository wraps an existing client
func NewRedisThrottleRepository(client *redis.Client) *RedisThrottleRepository {
	return &RedisThrottleRepository{client: client}
}

func throttleKey(id int64) string {
	return throttleKeyPrefix + strconv.FormatInt(id, 10)
}

// GetThrottle reads the hash of id
func (r *RedisThrottleRepository) GetThrottle(ctx context.Context, id int64) (entities.ThrottleRecord, bool, error) {
	fields, err := r.client.HGetAll(ctx, throttleKey(id)).Result()
	if err != nil {
		return entities.ThrottleRecord{}, false, &StoreError{Op: "get throttle", Err: fmt.Errorf("identity %d: %w", id, err)}
	}
	if len(fields) == 0 {
		return entities.ThrottleRecord{}, false, nil
	}

	count, err := strconv.Atoi(fields["count"])
	if err != nil {
		return entities.ThrottleRecord{}, false, &StoreError{Op: "get throttle", Err: fmt.Errorf("identity %d: bad count: %w", id, err)}
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return entities.ThrottleRecord{}, false, &StoreError{Op: "get throttle", Err: fmt.Errorf("identity %d: bad expiry: %w", id, err)}
	}

	return entities.ThrottleRecord{
		ID:        id,
		Count:     count,
		ExpiresAt: time.UnixMilli(expiresAt),
	}, true, nil
}

// IncrementThrottle runs HINCRBY, HSET and PEXPIREAT in one MULTI block
func (r *RedisThrottleRepository) IncrementThrottle(ctx context.Context, id int64, expiresAt time.Time) (int, error) {
	key := throttleKey(id)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, "count", 1)
		pipe.HSet(ctx, key, "expires_at", expiresAt.UnixMilli())
		pipe.PExpireAt(ctx, key, expiresAt)
		return nil
	})
	if err != nil {
		return 0, &StoreError{Op: "increment throttle", Err: fmt.Errorf("identity %d: %w", id, err)}
	}
	return int(incr.Val()), nil
}

// DeleteThrottle removes the hash of id
func (r *RedisThrottleRepository) DeleteThrottle(ctx context.Context, id int64) error {
	if err := r.client.Del(ctx, throttleKey(id)).Err(); err != nil {
		return &StoreError{Op: "delete throttle", Err: fmt.Errorf("identity %d: %w", id, err)}
	}
	return nil
}

// Close closes the underlying client
func (r *RedisThrottleRepository) Close() error {
	return r.client.Close()
}
