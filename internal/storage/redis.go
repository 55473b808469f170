package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "coffee"

// Redis stores values as plain string keys laid out as coffee:<owner>:<key>.
type Redis struct {
	client *redis.Client
}

var _ KV = (*Redis)(nil)

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// DialRedis builds a client and checks it answers before handing it out.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func redisKey(owner, key string) string {
	return redisKeyPrefix + ":" + owner + ":" + key
}

func (r *Redis) Get(ctx context.Context, owner, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, redisKey(owner, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, owner, key, value string) error {
	return r.SetTTL(ctx, owner, key, value, 0)
}

// SetTTL relies on the Redis key expiry; a ttl <= 0 keeps the key forever.
func (r *Redis) SetTTL(ctx context.Context, owner, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, redisKey(owner, key), value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, owner, key string) error {
	return r.client.Del(ctx, redisKey(owner, key)).Err()
}
