//go:build !no_redis

package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yeisme/kitvault/pkg/configs"
)

const redisScanCount = 256

// redisStore 使用 Redis 原生过期，不经过 expiring.
type redisStore struct {
	rdb *redis.Client
}

// NewRedisKV Redis 后端，打开时 PING 一次.
func NewRedisKV(ctx context.Context, cfg *configs.KVConfig) (KVStore, error) {
	rc := cfg.Redis

	rdb := redis.NewClient(&redis.Options{
		Addr:       rc.Addr,
		Password:   rc.Password,
		DB:         rc.DB,
		PoolSize:   rc.PoolSize,
		ClientName: configs.AppName,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", rc.Addr, err)
	}

	return &redisStore{rdb: rdb}, nil
}

func (r *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(key)
	}

	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	return b, nil
}

func (r *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

func (r *redisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}

	return nil
}

func (r *redisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}

	return n > 0, nil
}

// Keys 使用 SCAN 遍历，不阻塞 Redis.
func (r *redisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	var keys []string

	iter := r.rdb.Scan(ctx, 0, pattern, redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", pattern, err)
	}

	return keys, nil
}

func (r *redisStore) Close() error {
	return r.rdb.Close()
}

func init() {
	Register(KVTypeRedis, NewRedisKV)
}
