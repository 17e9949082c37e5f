package ingest_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/client"
	"github.com/yeisme/kitvault/pkg/internal/handle"
	"github.com/yeisme/kitvault/pkg/internal/ingest"
	"github.com/yeisme/kitvault/pkg/internal/model"
	"github.com/yeisme/kitvault/pkg/internal/router"
	"github.com/yeisme/kitvault/pkg/internal/service"
	"github.com/yeisme/kitvault/pkg/internal/storage/db"
	"github.com/yeisme/kitvault/pkg/kit"
)

// bucket 模拟对象存储：接受预签名 PUT.
type bucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	srv     *httptest.Server
}

func newBucket(t *testing.T) *bucket {
	b := &bucket{objects: map[string][]byte{}, types: map[string]string{}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		data, _ := io.ReadAll(r.Body)
		key := strings.TrimPrefix(r.URL.Path, "/")

		b.mu.Lock()
		b.objects[key] = data
		b.types[key] = r.Header.Get("Content-Type")
		b.mu.Unlock()
	}))
	t.Cleanup(b.srv.Close)

	return b
}

func (b *bucket) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return b.srv.URL + "/" + key + "?X-Amz-Signature=test", nil
}

func (b *bucket) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return b.srv.URL + "/" + key, nil
}

func (b *bucket) ObjectURL(key string) string { return b.srv.URL + "/" + key }

func (b *bucket) RemovePrefix(context.Context, string) (int, error) { return 0, nil }

func importServer(t *testing.T, store service.ObjectStore) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()

	dbc, err := db.Open(ctx, sqlite.Open(":memory:"), db.WithPool(1, 1))
	require.NoError(t, err)
	require.NoError(t, dbc.Migrate(ctx, model.Models()...))
	t.Cleanup(func() { _ = dbc.Close() })

	svc := service.NewKitServiceWith(dbc.GetDB(), store, service.WithImportConfig(configs.Defaults().Import))

	prev := handle.KitServiceFactory
	handle.KitServiceFactory = func(*gin.Context) *service.KitService { return svc }
	t.Cleanup(func() { handle.KitServiceFactory = prev })

	e := gin.New()
	router.RegisterImportRoutes(e.Group(configs.DefaultBasePath))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return srv
}

func TestRoundTrip(t *testing.T) {
	store := newBucket(t)
	srv := importServer(t, store)

	cfg := configs.Defaults().Client
	cfg.BaseURL = srv.URL + configs.DefaultBasePath
	api := client.New(cfg)
	ctx := context.Background()

	kitID, err := api.CreateKit(ctx, "Night Drive")
	require.NoError(t, err)

	dir := t.TempDir()
	for _, n := range []string{"loop.wav", "loop2.wav", "kick.wav", "chords.mid"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("bytes of "+n), 0o600))
	}

	// 首次导入：全部是新文件
	b := kit.NewBatch(kit.WithKitID(kitID))
	var inputs []kit.FileInput
	for _, n := range []string{"loop.wav", "loop2.wav", "kick.wav", "chords.mid"} {
		inputs = append(inputs, kit.FileInput{Name: n, Path: filepath.Join(dir, n)})
	}
	require.NoError(t, b.Add(inputs).Err())

	set := func(name, category, group, subtype string) {
		rec, ok := b.Lookup(name)
		require.True(t, ok)

		if category != rec.Category {
			require.NoError(t, b.SetCategory(rec.ID, category))
		}

		if group != "" {
			require.NoError(t, b.SetGroup(rec.ID, group))
		}

		if subtype != "" {
			require.NoError(t, b.SetSubtype(rec.ID, subtype))
		}
	}

	set("loop.wav", kit.CategoryFullLoop, "", "")
	set("loop2.wav", kit.CategoryFullLoop, "", "")
	set("kick.wav", kit.CategoryOneShot, "Drums", "Kick")
	set("chords.mid", kit.CategoryMIDI, "", "Chords")

	res, err := ingest.NewOrchestrator(api).Submit(ctx, b)
	require.NoError(t, err)
	assert.Len(t, res.Uploaded, 4)
	assert.Equal(t, "loop.wav", res.DefaultFileName)

	store.mu.Lock()
	assert.Len(t, store.objects, 4)
	for key, data := range store.objects {
		assert.True(t, strings.HasPrefix(key, "kits/"+kitID+"/"), key)
		assert.Contains(t, string(data), "bytes of ")
	}
	store.mu.Unlock()

	// 再次打开：编辑已有内容并改默认
	b, err = ingest.LoadKit(ctx, api, kitID)
	require.NoError(t, err)
	assert.Empty(t, b.New())

	def, ok := b.Default()
	require.True(t, ok)
	assert.Equal(t, "loop.wav", def.Name)

	kick, _ := b.Lookup("kick.wav")
	assert.Equal(t, "Drums", kick.Group)
	assert.Equal(t, "Kick", kick.Subtype)
	require.NoError(t, b.SetSubtype(kick.ID, "Clap"))

	loop2, _ := b.Lookup("loop2.wav")
	require.NoError(t, b.SetDefault(loop2.ID))

	res, err = ingest.NewOrchestrator(api).Submit(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"kick.wav"}, res.Updated)
	assert.True(t, res.DefaultReconciled)

	got, err := api.GetKit(ctx, kitID)
	require.NoError(t, err)
	assert.Equal(t, loop2.ContentID, got.DefaultFullLoopID)

	for _, c := range got.Contents {
		if c.ContentName == "kick.wav" {
			assert.Equal(t, "Clap", c.SubGroup)
		}
	}

	// 已有同名内容时服务端拒绝重复上传
	dup := kit.NewBatch(kit.WithKitID(kitID))
	require.NoError(t, dup.Add([]kit.FileInput{{Name: "loop.wav", Path: filepath.Join(dir, "loop.wav")}}).Err())
	rec, _ := dup.Lookup("loop.wav")
	require.NoError(t, dup.SetCategory(rec.ID, kit.CategoryFullLoop))

	_, err = ingest.NewOrchestrator(api).Submit(ctx, dup)
	require.ErrorIs(t, err, ingest.ErrSubmissionFailed)
	assert.True(t, client.IsStatus(err, http.StatusConflict))

	require.NoError(t, api.DeleteKit(ctx, kitID))

	_, err = api.GetKit(ctx, kitID)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

// TestRoundTripAudioByMIME 扩展名不在列表中但 MIME 为 audio/* 的文件，服务端沿用客户端的类型判定.
func TestRoundTripAudioByMIME(t *testing.T) {
	store := newBucket(t)
	srv := importServer(t, store)

	cfg := configs.Defaults().Client
	cfg.BaseURL = srv.URL + configs.DefaultBasePath
	api := client.New(cfg)
	ctx := context.Background()

	kitID, err := api.CreateKit(ctx, "Lossless")
	require.NoError(t, err)

	dir := t.TempDir()
	for _, n := range []string{"loop.flac", "snare.flac"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("flac "+n), 0o600))
	}

	b := kit.NewBatch(kit.WithKitID(kitID))
	require.NoError(t, b.Add([]kit.FileInput{
		{Name: "loop.flac", Path: filepath.Join(dir, "loop.flac"), MIME: "audio/flac"},
		{Name: "snare.flac", Path: filepath.Join(dir, "snare.flac"), MIME: "audio/flac"},
	}).Err())

	loop, _ := b.Lookup("loop.flac")
	require.NoError(t, b.SetCategory(loop.ID, kit.CategoryFullLoop))

	snare, _ := b.Lookup("snare.flac")
	require.NoError(t, b.SetCategory(snare.ID, kit.CategoryOneShot))
	require.NoError(t, b.SetGroup(snare.ID, "Drums"))
	require.NoError(t, b.SetSubtype(snare.ID, "Kick"))

	res, err := ingest.NewOrchestrator(api).Submit(ctx, b)
	require.NoError(t, err)
	assert.Len(t, res.Uploaded, 2)

	store.mu.Lock()
	for key, typ := range store.types {
		assert.Equal(t, "audio/flac", typ, key)
	}
	store.mu.Unlock()

	// 重新分类走已保存的类型，不再按文件名判断
	b, err = ingest.LoadKit(ctx, api, kitID)
	require.NoError(t, err)

	snare, _ = b.Lookup("snare.flac")
	require.NoError(t, b.SetSubtype(snare.ID, "Clap"))

	res, err = ingest.NewOrchestrator(api).Submit(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"snare.flac"}, res.Updated)

	got, err := api.GetKit(ctx, kitID)
	require.NoError(t, err)

	for _, c := range got.Contents {
		if c.ContentName == "snare.flac" {
			assert.Equal(t, "Clap", c.SubGroup)
		}
	}
}
