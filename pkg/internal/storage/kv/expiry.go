package kv

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"
)

// rawStore 没有原生按键过期的后端只需实现这些操作，过期由 expiring 负责.
type rawStore interface {
	load(ctx context.Context, key string) ([]byte, bool, error)
	store(ctx context.Context, key string, b []byte) error
	remove(ctx context.Context, key string) error
	list(ctx context.Context) ([]string, error)
	Close() error
}

// 值头部：版本字节 + 过期时间（unix 纳秒，大端，0 为不过期）.
const (
	headerVersion = 1
	headerLen     = 9
)

// expiring 在 rawStore 之上实现 KVStore，过期条目在读到时删除.
type expiring struct {
	raw rawStore
	now func() time.Time
}

func withExpiry(raw rawStore) *expiring {
	return &expiring{raw: raw, now: time.Now}
}

func (e *expiring) seal(value []byte, ttl time.Duration) []byte {
	var deadline int64
	if ttl > 0 {
		deadline = e.now().Add(ttl).UnixNano()
	}

	b := make([]byte, headerLen+len(value))
	b[0] = headerVersion
	binary.BigEndian.PutUint64(b[1:headerLen], uint64(deadline))
	copy(b[headerLen:], value)

	return b
}

// open 返回值与是否仍然有效.
func (e *expiring) open(key string, b []byte) ([]byte, bool, error) {
	if len(b) < headerLen || b[0] != headerVersion {
		return nil, false, fmt.Errorf("kv value %s: bad header", key)
	}

	deadline := int64(binary.BigEndian.Uint64(b[1:headerLen]))
	if deadline != 0 && e.now().UnixNano() >= deadline {
		return nil, false, nil
	}

	return b[headerLen:], true, nil
}

func (e *expiring) get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok, err := e.raw.load(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	val, live, err := e.open(key, b)
	if err != nil {
		return nil, false, err
	}

	if !live {
		_ = e.raw.remove(ctx, key)
		return nil, false, nil
	}

	return val, true, nil
}

func (e *expiring) Get(ctx context.Context, key string) ([]byte, error) {
	val, ok, err := e.get(ctx, key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, notFound(key)
	}

	return append([]byte(nil), val...), nil
}

func (e *expiring) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return e.raw.store(ctx, key, e.seal(value, ttl))
}

func (e *expiring) Delete(ctx context.Context, key string) error {
	return e.raw.remove(ctx, key)
}

func (e *expiring) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := e.get(ctx, key)
	return ok, err
}

func (e *expiring) Keys(ctx context.Context, pattern string) ([]string, error) {
	all, err := e.raw.list(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(all))

	for _, k := range all {
		if !matchKey(pattern, k) {
			continue
		}

		if _, ok, err := e.get(ctx, k); err == nil && ok {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

func (e *expiring) Close() error {
	return e.raw.Close()
}
