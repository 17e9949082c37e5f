package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/kitvault/pkg/cache"
	"github.com/yeisme/kitvault/pkg/internal/storage/kv"
)

// cachedKit 测试用的缓存负载.
type cachedKit struct {
	ID       string   `json:"id"`
	Contents []string `json:"contents"`
	Default  string   `json:"default"`
}

func newCache(t *testing.T) *cache.Cache {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return cache.NewCache(store, cache.WithPrefix("kit."))
}

func TestCache_SetGet(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	want := cachedKit{ID: "k1", Contents: []string{"loop.wav", "kick.wav"}, Default: "c1"}
	if err := cache.Set(ctx, c, "k1", want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get[cachedKit](ctx, c, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.ID != want.ID || got.Default != want.Default || len(got.Contents) != 2 {
		t.Errorf("unexpected value %+v", got)
	}
}

func TestCache_MissIsReported(t *testing.T) {
	c := newCache(t)

	_, err := cache.Get[cachedKit](context.Background(), c, "none")
	if !cache.IsMiss(err) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestCache_DeleteInvalidates(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	_ = cache.Set(ctx, c, "k2", cachedKit{ID: "k2"}, 0)

	if ok, _ := c.Exists(ctx, "k2"); !ok {
		t.Fatal("expected key to exist")
	}

	if err := c.Delete(ctx, "k2"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := cache.Get[cachedKit](ctx, c, "k2"); !cache.IsMiss(err) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestGetOrSet(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	calls := 0

	load := func() (cachedKit, error) {
		calls++
		return cachedKit{ID: "k3"}, nil
	}

	for range 3 {
		v, err := cache.GetOrSet(ctx, c, "k3", load, time.Minute)
		if err != nil {
			t.Fatalf("get or set: %v", err)
		}

		if v.ID != "k3" {
			t.Fatalf("unexpected id %q", v.ID)
		}
	}

	if calls != 1 {
		t.Errorf("expected loader to run once, ran %d times", calls)
	}
}

func TestGetOrSet_CollapsesConcurrentMisses(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	var calls atomic.Int32

	release := make(chan struct{})
	load := func() (cachedKit, error) {
		calls.Add(1)
		<-release

		return cachedKit{ID: "k5"}, nil
	}

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			v, err := cache.GetOrSet(ctx, c, "k5", load, time.Minute)
			if err != nil || v.ID != "k5" {
				t.Errorf("unexpected %+v %v", v, err)
			}
		}()
	}

	// 等待第一个加载开始后放行
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected one load, got %d", n)
	}
}

func TestCache_ClearKeepsOtherNamespaces(t *testing.T) {
	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	ctx := context.Background()
	kits := cache.NewCache(store, cache.WithPrefix("kit."))
	drafts := cache.NewCache(store, cache.WithPrefix("draft."))

	_ = cache.Set(ctx, kits, "a", cachedKit{ID: "a"}, 0)
	_ = cache.Set(ctx, drafts, "a", cachedKit{ID: "a"}, 0)

	if err := kits.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if ok, _ := drafts.Exists(ctx, "a"); !ok {
		t.Error("clear removed keys outside its prefix")
	}
}

func TestGetOrSet_GetterError(t *testing.T) {
	c := newCache(t)
	boom := errors.New("db down")

	_, err := cache.GetOrSet(context.Background(), c, "k4", func() (cachedKit, error) {
		return cachedKit{}, boom
	}, time.Minute)
	if !errors.Is(err, boom) {
		t.Fatalf("expected getter error, got %v", err)
	}

	if ok, _ := c.Exists(context.Background(), "k4"); ok {
		t.Error("failed load must not be cached")
	}
}

func TestCache_Clear(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := cache.Set(ctx, c, id, cachedKit{ID: id}, 0); err != nil {
			t.Fatalf("set %s: %v", id, err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if ok, _ := c.Exists(ctx, id); ok {
			t.Errorf("%s survived clear", id)
		}
	}
}
