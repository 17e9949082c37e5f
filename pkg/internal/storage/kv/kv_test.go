package kv_test

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/storage/kv"
)

var groupSeq atomic.Int32

func openBackend(tb testing.TB, t kv.KVType) kv.KVStore {
	tb.Helper()

	cfg := &configs.KVConfig{
		Type: string(t),
		Groupcache: configs.GroupcacheKVConfig{
			Name:       fmt.Sprintf("kits-test-%d", groupSeq.Add(1)),
			CacheBytes: 1 << 20,
		},
		NATS: configs.NATSKVConfig{
			URL:    os.Getenv("KV_NATS_URL"),
			Bucket: "kitvault-test",
		},
		Redis: configs.RedisKVConfig{Addr: os.Getenv("KV_REDIS_ADDR")},
	}

	switch t {
	case kv.KVTypeRedis:
		if cfg.Redis.Addr == "" {
			tb.Skip("set KV_REDIS_ADDR to run against redis")
		}
	case kv.KVTypeNATS:
		if cfg.NATS.URL == "" {
			tb.Skip("set KV_NATS_URL to run against nats")
		}
	}

	c, err := kv.Open(context.Background(), cfg)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = c.Close() })

	assert.Equal(tb, t, c.Backend)

	return c
}

func TestBackends(t *testing.T) {
	for _, b := range kv.Backends() {
		t.Run(string(b), func(t *testing.T) {
			testStore(t, openBackend(t, b))
		})
	}
}

func testStore(t *testing.T, s kv.KVStore) {
	ctx := context.Background()
	prefix := fmt.Sprintf("kit.%d.", time.Now().UnixNano())
	key := prefix + "01HZX"

	_, err := s.Get(ctx, key)
	require.ErrorIs(t, err, kv.ErrKeyNotFound)

	value := []byte(`{"id":"01HZX","contents":["loop.wav"]}`)
	require.NoError(t, s.Set(ctx, key, value, 0))

	value[0] = 'x'

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, byte('{'), got[0], "stored value must not alias the caller's slice")

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Set(ctx, prefix+"other", []byte("2"), time.Hour))
	require.NoError(t, s.Set(ctx, "draft.1", []byte("3"), 0))

	keys, err := s.Keys(ctx, prefix+"*")
	require.NoError(t, err)
	slices.Sort(keys)
	assert.Equal(t, []string{prefix + "01HZX", prefix + "other"}, keys)

	require.NoError(t, s.Delete(ctx, key))

	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, prefix+"short", []byte("4"), 50*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, err := s.Get(ctx, prefix+"short")
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)

	for _, k := range []string{prefix + "other", "draft.1"} {
		_ = s.Delete(ctx, k)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := kv.Open(context.Background(), &configs.KVConfig{Type: "etcd"})
	require.ErrorContains(t, err, "etcd")
}

func TestGroupcacheNameIsUnique(t *testing.T) {
	cfg := &configs.KVConfig{
		Type:       string(kv.KVTypeGroupcache),
		Groupcache: configs.GroupcacheKVConfig{Name: "kits-test-dup", CacheBytes: 1 << 20},
	}

	c, err := kv.Open(context.Background(), cfg)
	require.NoError(t, err)

	_, ok := c.PeerHandler()
	assert.False(t, ok, "no peers configured")

	_, err = kv.Open(context.Background(), cfg)
	require.Error(t, err)
}

func BenchmarkBackends(b *testing.B) {
	ctx := context.Background()

	for _, t := range kv.Backends() {
		for _, size := range []int{512, 64 << 10} {
			b.Run(fmt.Sprintf("%s/size=%d", t, size), func(b *testing.B) {
				s := openBackend(b, t)
				payload := make([]byte, size)

				b.ReportAllocs()

				for i := 0; b.Loop(); i++ {
					key := fmt.Sprintf("kit.bench-%d", i)
					if err := s.Set(ctx, key, payload, time.Minute); err != nil {
						b.Fatal(err)
					}

					if _, err := s.Get(ctx, key); err != nil {
						b.Fatal(err)
					}

					if err := s.Delete(ctx, key); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
