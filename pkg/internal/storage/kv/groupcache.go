package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/groupcache"

	"github.com/yeisme/kitvault/pkg/configs"
)

// groupcacheStore 本节点写入的值保存在本地，本地缺失时经 group 向持有该键的对等节点取值.
// Delete 只作用于本节点，对等节点上的副本依赖过期时间淘汰.
type groupcacheStore struct {
	group *groupcache.Group
	pool  *groupcache.HTTPPool

	mu    sync.RWMutex
	local map[string][]byte
}

// groupcache 对同名 group 重复注册会 panic，进程内只允许创建一次.
var (
	groupsMu sync.Mutex
	groups   = map[string]bool{}
)

// NewGroupcacheKV groupcache 后端. 配置了 peers 时创建 HTTP 对等池，
// 处理器通过 Client.PeerHandler 挂到服务端引擎上.
func NewGroupcacheKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	gc := cfg.Groupcache

	groupsMu.Lock()
	defer groupsMu.Unlock()

	if groups[gc.Name] {
		return nil, fmt.Errorf("groupcache group %q already created", gc.Name)
	}

	s := &groupcacheStore{local: map[string][]byte{}}
	s.group = groupcache.NewGroup(gc.Name, gc.CacheBytes, groupcache.GetterFunc(s.fill))

	if len(gc.Peers) > 0 {
		s.pool = groupcache.NewHTTPPoolOpts(gc.Self, &groupcache.HTTPPoolOptions{})
		s.pool.Set(gc.Peers...)
	}

	groups[gc.Name] = true

	return withExpiry(s), nil
}

// fill 对等节点请求本节点持有的键时调用.
func (s *groupcacheStore) fill(_ context.Context, key string, dest groupcache.Sink) error {
	s.mu.RLock()
	b, ok := s.local[key]
	s.mu.RUnlock()

	if !ok {
		return notFound(key)
	}

	return dest.SetBytes(b)
}

func (s *groupcacheStore) load(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	b, ok := s.local[key]
	s.mu.RUnlock()

	if ok || s.pool == nil {
		return b, ok, nil
	}

	var remote []byte
	if err := s.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&remote)); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("groupcache get %s: %w", key, err)
	}

	return remote, true, nil
}

func (s *groupcacheStore) store(_ context.Context, key string, b []byte) error {
	s.mu.Lock()
	s.local[key] = b
	s.mu.Unlock()

	return nil
}

func (s *groupcacheStore) remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.local, key)
	s.mu.Unlock()

	return nil
}

// list 只列出本节点的键.
func (s *groupcacheStore) list(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.local))
	for k := range s.local {
		keys = append(keys, k)
	}

	return keys, nil
}

func (s *groupcacheStore) Close() error { return nil }

func init() {
	Register(KVTypeGroupcache, NewGroupcacheKV)
}
