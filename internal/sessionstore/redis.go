package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront/pkg/redis"
)

type redisKV interface {
	GetTouch(context.Context, string, time.Duration) (string, error)
	Set(context.Context, string, any, time.Duration) error
	Del(context.Context, ...string) error
	SessionKey(sessionID, name string) string
}

// Redis stores each session value under its own namespaced key. Reads and
// writes both slide the TTL, so only idle sessions expire.
type Redis struct {
	client redisKV
	ttl    time.Duration
}

func NewRedis(client redisKV, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	val, err := r.client.GetTouch(ctx, r.client.SessionKey(sessionID, key), r.ttl)
	if errors.Is(err, redis.ErrNil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, dependencyErr(err, "get", key)
	}
	return []byte(val), true, nil
}

func (r *Redis) Set(ctx context.Context, sessionID, key string, value []byte) error {
	if err := r.client.Set(ctx, r.client.SessionKey(sessionID, key), value, r.ttl); err != nil {
		return dependencyErr(err, "set", key)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, sessionID, key string) error {
	if err := r.client.Del(ctx, r.client.SessionKey(sessionID, key)); err != nil {
		return dependencyErr(err, "delete", key)
	}
	return nil
}
