// Package kv 键值存储后端. 导入服务用它缓存构建包读取结果，后端由 kv.type 选择.
//
// 键只使用 [-/_=.a-zA-Z0-9]，保证在全部后端（包括 NATS KV）上有效.
package kv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/yeisme/kitvault/pkg/configs"
)

// ErrKeyNotFound 键不存在或已过期.
var ErrKeyNotFound = errors.New("key not found")

// KVStore 键值存储.
type KVStore interface {
	// Get 不存在或已过期时返回 ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set ttl 为 0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 返回匹配 glob 模式的键，空模式返回全部.
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// KVType 后端类型.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// Factory 从完整的 KV 配置创建后端，由后端自行取用子配置.
type Factory func(ctx context.Context, cfg *configs.KVConfig) (KVStore, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[KVType]Factory{}
)

// Register 注册后端，通常在后端文件的 init 中调用.
func Register(t KVType, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// Backends 已注册的后端，按名称排序.
func Backends() []KVType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	out := make([]KVType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	slices.Sort(out)

	return out
}

// Client 已打开的后端.
type Client struct {
	KVStore
	Backend KVType
}

// Open 按 cfg.Type 打开后端.
func Open(ctx context.Context, cfg *configs.KVConfig) (*Client, error) {
	t := KVType(cfg.Type)

	factoriesMu.RLock()
	f, ok := factories[t]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported kv backend %q", cfg.Type)
	}

	store, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s kv: %w", t, err)
	}

	return &Client{KVStore: store, Backend: t}, nil
}

// Ping 用一次存在性查询确认后端可用.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Exists(ctx, "health.probe")
	return err
}

// PeerHandler groupcache 对等节点之间取值用的 HTTP 处理器，其他后端或未配置对等节点时返回 false.
func (c *Client) PeerHandler() (http.Handler, bool) {
	e, ok := c.KVStore.(*expiring)
	if !ok {
		return nil, false
	}

	g, ok := e.raw.(*groupcacheStore)
	if !ok || g.pool == nil {
		return nil, false
	}

	return g.pool, true
}

func matchKey(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	ok, err := path.Match(pattern, key)

	return err == nil && ok
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}
