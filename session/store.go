package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Data is the key/value area of one browser session.
type Data interface {
	AddToSet(ctx context.Context, key, member string) error
	SetContains(ctx context.Context, key, member string) (bool, error)
	SetMembers(ctx context.Context, key string) ([]string, error)
	Push(ctx context.Context, key, value string) error
	// Drain returns every queued value and removes them.
	Drain(ctx context.Context, key string) ([]string, error)
}

// Store hands out per-session data areas.
type Store interface {
	For(sessionID string) Data
}

// RedisStore keeps session data in Redis under session:<id>:<key>. Each write
// pushes the key's expiry out to the session TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// For returns the data area of the given session.
func (s *RedisStore) For(sessionID string) Data {
	return &redisData{store: s, sessionID: sessionID}
}

type redisData struct {
	store     *RedisStore
	sessionID string
}

func (d *redisData) key(k string) string {
	return fmt.Sprintf("session:%s:%s", d.sessionID, k)
}

func (d *redisData) AddToSet(ctx context.Context, key, member string) error {
	k := d.key(key)
	_, err := d.store.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, k, member)
		pipe.Expire(ctx, k, d.store.ttl)
		return nil
	})
	return err
}

func (d *redisData) SetContains(ctx context.Context, key, member string) (bool, error) {
	return d.store.rdb.SIsMember(ctx, d.key(key), member).Result()
}

func (d *redisData) SetMembers(ctx context.Context, key string) ([]string, error) {
	return d.store.rdb.SMembers(ctx, d.key(key)).Result()
}

func (d *redisData) Push(ctx context.Context, key, value string) error {
	k := d.key(key)
	_, err := d.store.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, k, value)
		pipe.Expire(ctx, k, d.store.ttl)
		return nil
	})
	return err
}

func (d *redisData) Drain(ctx context.Context, key string) ([]string, error) {
	k := d.key(key)
	var values *redis.StringSliceCmd
	_, err := d.store.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		values = pipe.LRange(ctx, k, 0, -1)
		pipe.Del(ctx, k)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values.Val(), nil
}
