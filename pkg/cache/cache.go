// Package cache 在 kv.KVStore 上提供带命名空间的泛型缓存，值以 JSON 编码.
//
//	c := cache.NewCache(store, cache.WithPrefix("kit."))
//	resp, err := cache.GetOrSet(ctx, c, kitID, func() (types.KitResponse, error) {
//		return loadKit(ctx, kitID)
//	}, 30*time.Second)
//
// 同一个键的并发未命中只触发一次加载.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/kitvault/pkg/internal/storage/kv"
)

// Cache 所有键都加上 prefix 后写入底层存储.
type Cache struct {
	store  kv.KVStore
	prefix string
	flight singleflight.Group
}

// Option 配置 Cache.
type Option func(*Cache)

// WithPrefix 键前缀，Clear 只清理该前缀下的键.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// NewCache 创建缓存.
func NewCache(store kv.KVStore, opts ...Option) *Cache {
	c := &Cache{store: store}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Get 未命中时返回的错误满足 IsMiss.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var v T

	b, err := c.store.Get(ctx, c.key(key))
	if err != nil {
		return v, err
	}

	if err := sonic.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decode cached %s: %w", key, err)
	}

	return v, nil
}

// Set 写入缓存，ttl 为 0 表示不过期.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	b, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %s: %w", key, err)
	}

	return c.store.Set(ctx, c.key(key), b, ttl)
}

// GetOrSet 读取缓存，读取失败（未命中、后端错误或解码失败）时调用 load 并回填.
// 回填失败不影响返回值；load 的错误原样返回且不缓存.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, load func() (T, error), ttl time.Duration) (T, error) {
	if v, err := Get[T](ctx, c, key); err == nil {
		return v, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return v, err
		}

		_ = Set(ctx, c, key, v, ttl)

		return v, nil
	})

	return v.(T), err
}

// IsMiss 错误是否表示未命中.
func IsMiss(err error) bool {
	return errors.Is(err, kv.ErrKeyNotFound)
}

// Delete 删除键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.key(key))
}

// Exists 键是否存在且未过期.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.store.Exists(ctx, c.key(key))
}

// Clear 删除前缀下的全部键，遇到第一个错误即返回.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.store.Keys(ctx, c.prefix+"*")
	if err != nil {
		return err
	}

	for _, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return err
		}
	}

	return nil
}
