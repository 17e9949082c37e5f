package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeisme/kitvault/pkg/cache"
	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/model"
	"github.com/yeisme/kitvault/pkg/internal/service"
	"github.com/yeisme/kitvault/pkg/internal/storage/db"
	"github.com/yeisme/kitvault/pkg/internal/storage/kv"
	"github.com/yeisme/kitvault/pkg/internal/types"
	"github.com/yeisme/kitvault/pkg/kit"
	"github.com/yeisme/kitvault/pkg/queue"
)

type fakeStore struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeStore) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/put/" + key, nil
}

func (f *fakeStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/get/" + key, nil
}

func (f *fakeStore) ObjectURL(key string) string { return "https://s3.test/" + key }

func (f *fakeStore) RemovePrefix(_ context.Context, prefix string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.removed = append(f.removed, prefix)

	return 3, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.topics = append(p.topics, topic)

	return nil
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.topics...)
}

type fixture struct {
	svc   *service.KitService
	db    *gorm.DB
	store *fakeStore
	pub   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()

	client, err := db.Open(ctx, sqlite.Open(":memory:"), db.WithPool(1, 1))
	require.NoError(t, err)
	require.NoError(t, client.Migrate(ctx, model.Models()...))

	return fixtureOn(t, client)
}

func fixtureOn(t *testing.T, client *db.Client) *fixture {
	t.Helper()

	t.Cleanup(func() { _ = client.Close() })

	defaults := configs.Defaults()
	events := defaults.Events
	events.Enabled = true
	events.Kit.ContentUpdated = true

	mem, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	f := &fixture{db: client.GetDB(), store: &fakeStore{}, pub: &recordingPublisher{}}
	f.svc = service.NewKitServiceWith(f.db, f.store,
		service.WithImportConfig(defaults.Import),
		service.WithEvents(f.pub, events),
		service.WithCache(cache.NewCache(mem, cache.WithPrefix("kit."))),
	)

	return f
}

// presignAndCreate 模拟客户端 Phase B：签发地址后写入元数据.
func (f *fixture) presignAndCreate(t *testing.T, kitID, def string, files ...types.NewContentFile) {
	t.Helper()

	ctx := context.Background()
	req := types.PresignRequest{}

	for _, file := range files {
		req.Files = append(req.Files, types.PresignFile{Filename: file.FileName})
	}

	resp, err := f.svc.PresignUploads(ctx, kitID, req)
	require.NoError(t, err)
	require.Len(t, resp.Uploads, len(files))

	for i := range files {
		files[i].Key = resp.Uploads[i].Key
		files[i].URL = resp.Uploads[i].URL
	}

	require.NoError(t, f.svc.CreateContents(ctx, kitID, types.CreateContentsRequest{
		Files:                   files,
		DefaultFullLoopFileName: def,
	}))
}

func TestKitLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateKit(ctx, "  Night Drive ")
	require.NoError(t, err)

	got, err := f.svc.GetKit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Night Drive", got.Name)
	assert.Equal(t, types.KitStatus(model.KitStatusDraft), got.Status)
	assert.Empty(t, got.Contents)

	f.presignAndCreate(t, id, "loop.wav",
		types.NewContentFile{FileName: "loop.wav", Category: kit.CategoryFullLoop},
		types.NewContentFile{FileName: "kick.wav", Category: kit.CategoryOneShot, Type: "Drums > Kick"},
		types.NewContentFile{FileName: "chords.mid", Category: kit.CategoryMIDI, Type: "Chords"},
	)

	got, err = f.svc.GetKit(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, types.KitStatus(model.KitStatusReady), got.Status)

	byName := map[string]types.KitContent{}
	for _, c := range got.Contents {
		byName[c.ContentName] = c
		assert.True(t, strings.HasPrefix(c.StreamURL, "https://s3.test/get/kits/"+id+"/"))
	}

	assert.Equal(t, byName["loop.wav"].ID, got.DefaultFullLoopID)
	assert.Equal(t, "Drums", byName["kick.wav"].SoundGroup)
	assert.Equal(t, "Kick", byName["kick.wav"].SubGroup)
	assert.Equal(t, "Chords", byName["chords.mid"].SubGroup)
	assert.Empty(t, byName["chords.mid"].SoundGroup)

	assert.Equal(t, []string{
		queue.TopicKitCreated,
		queue.TopicKitContentsCreated,
		queue.TopicKitDefaultChanged,
	}, f.pub.Topics())
}

func TestPresignRejectsDuplicatesAndLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateKit(ctx, "dup")
	require.NoError(t, err)

	f.presignAndCreate(t, id, "loop.wav", types.NewContentFile{FileName: "loop.wav", Category: kit.CategoryFullLoop})

	_, err = f.svc.PresignUploads(ctx, id, types.PresignRequest{Files: []types.PresignFile{{Filename: "loop.wav"}}})
	require.ErrorIs(t, err, service.ErrDuplicateContent)

	_, err = f.svc.PresignUploads(ctx, id, types.PresignRequest{Files: []types.PresignFile{{Filename: "a.wav"}, {Filename: "a.wav"}}})
	require.ErrorIs(t, err, service.ErrDuplicateContent)

	_, err = f.svc.PresignUploads(ctx, id, types.PresignRequest{Files: []types.PresignFile{{Filename: "big.wav", Size: configs.DefaultImportMaxFileSize + 1}}})
	require.ErrorIs(t, err, service.ErrFileTooLarge)

	many := make([]types.PresignFile, configs.DefaultImportMaxFiles+1)
	_, err = f.svc.PresignUploads(ctx, id, types.PresignRequest{Files: many})
	require.ErrorIs(t, err, service.ErrTooManyFiles)

	_, err = f.svc.PresignUploads(ctx, "missing", types.PresignRequest{Files: []types.PresignFile{{Filename: "x.wav"}}})
	require.ErrorIs(t, err, service.ErrKitNotFound)
}

func TestCreateContentsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateKit(ctx, "validation")
	require.NoError(t, err)

	prefix := "kits/" + id + "/"

	cases := []struct {
		name string
		req  types.CreateContentsRequest
		want error
	}{
		{
			name: "no default",
			req:  types.CreateContentsRequest{Files: []types.NewContentFile{{FileName: "loop.wav", Category: kit.CategoryFullLoop, Key: prefix + "1-loop.wav"}}},
			want: service.ErrDefaultRequired,
		},
		{
			name: "default is not a full loop",
			req: types.CreateContentsRequest{
				Files:                   []types.NewContentFile{{FileName: "kick.wav", Category: kit.CategoryOneShot, Type: "Drums > Kick", Key: prefix + "1-kick.wav"}},
				DefaultFullLoopFileName: "kick.wav",
			},
			want: kit.ErrNotFullLoop,
		},
		{
			name: "unknown default",
			req: types.CreateContentsRequest{
				Files:                   []types.NewContentFile{{FileName: "loop.wav", Category: kit.CategoryFullLoop, Key: prefix + "1-loop.wav"}},
				DefaultFullLoopFileName: "other.wav",
			},
			want: service.ErrDefaultNotFound,
		},
		{
			name: "category not allowed for kind",
			req: types.CreateContentsRequest{
				Files:                   []types.NewContentFile{{FileName: "lead.fxp", Category: kit.CategoryFullLoop, Key: prefix + "1-lead.fxp"}},
				DefaultFullLoopFileName: "lead.fxp",
			},
			want: kit.ErrInvalidCategory,
		},
		{
			name: "incomplete one-shot",
			req: types.CreateContentsRequest{
				Files: []types.NewContentFile{
					{FileName: "loop.wav", Category: kit.CategoryFullLoop, Key: prefix + "1-loop.wav"},
					{FileName: "kick.wav", Category: kit.CategoryOneShot, Type: "Drums", Key: prefix + "2-kick.wav"},
				},
				DefaultFullLoopFileName: "loop.wav",
			},
			want: service.ErrInvalidContent,
		},
		{
			name: "key outside kit",
			req: types.CreateContentsRequest{
				Files:                   []types.NewContentFile{{FileName: "loop.wav", Category: kit.CategoryFullLoop, Key: "kits/other/1-loop.wav"}},
				DefaultFullLoopFileName: "loop.wav",
			},
			want: service.ErrInvalidContent,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, f.svc.CreateContents(ctx, id, tc.req), tc.want)
		})
	}

	var count int64

	require.NoError(t, f.db.Model(&model.KitContent{}).Count(&count).Error)
	assert.Zero(t, count, "failed batches must not leave rows behind")
}

func TestUpdateContentClearsDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateKit(ctx, "recat")
	require.NoError(t, err)

	f.presignAndCreate(t, id, "loop.wav",
		types.NewContentFile{FileName: "loop.wav", Category: kit.CategoryFullLoop},
		types.NewContentFile{FileName: "loop2.wav", Category: kit.CategoryFullLoop},
	)

	got, err := f.svc.GetKit(ctx, id)
	require.NoError(t, err)

	def := got.DefaultFullLoopID

	require.ErrorIs(t, f.svc.UpdateContent(ctx, def, types.UpdateContentRequest{Category: kit.CategoryMIDI, Type: "Chords"}), kit.ErrInvalidCategory)
	require.ErrorIs(t, f.svc.UpdateContent(ctx, "nope", types.UpdateContentRequest{Category: kit.CategoryFullLoop}), service.ErrContentNotFound)

	require.NoError(t, f.svc.UpdateContent(ctx, def, types.UpdateContentRequest{Category: kit.CategorySampleLoop, Type: "Drums > Top Loop"}))

	got, err = f.svc.GetKit(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.DefaultFullLoopID)

	var other string

	for _, c := range got.Contents {
		if c.ContentName == "loop2.wav" {
			other = c.ID
		}
	}

	require.ErrorIs(t, f.svc.UpdateDefault(ctx, id, def), kit.ErrNotFullLoop)
	require.ErrorIs(t, f.svc.UpdateDefault(ctx, id, "nope"), service.ErrDefaultNotFound)
	require.NoError(t, f.svc.UpdateDefault(ctx, id, other))

	got, err = f.svc.GetKit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, other, got.DefaultFullLoopID)
	assert.Contains(t, f.pub.Topics(), queue.TopicKitContentUpdated)
}

// TestContentKindFollowsDeclaredMIME 类型以写入时声明的 MIME 判定，重新分类沿用已保存的类型.
func TestContentKindFollowsDeclaredMIME(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateKit(ctx, "lossless")
	require.NoError(t, err)

	err = f.svc.CreateContents(ctx, id, types.CreateContentsRequest{
		Files:                   []types.NewContentFile{{FileName: "pad.flac", Category: kit.CategoryFullLoop, Key: "kits/" + id + "/1-pad.flac"}},
		DefaultFullLoopFileName: "pad.flac",
	})
	require.ErrorIs(t, err, kit.ErrClassificationAmbiguous)

	f.presignAndCreate(t, id, "loop.flac",
		types.NewContentFile{FileName: "loop.flac", ContentType: "audio/flac", Category: kit.CategoryFullLoop},
		types.NewContentFile{FileName: "loop.wav", Category: kit.CategoryFullLoop},
	)

	var stored model.KitContent

	require.NoError(t, f.db.First(&stored, "content_name = ?", "loop.flac").Error)
	assert.Equal(t, string(kit.KindAudio), stored.Kind)

	require.NoError(t, f.svc.UpdateContent(ctx, stored.ID, types.UpdateContentRequest{Category: kit.CategorySampleLoop, Type: "Drums > Top Loop"}))
	require.ErrorIs(t, f.svc.UpdateContent(ctx, stored.ID, types.UpdateContentRequest{Category: kit.CategoryMIDI, Type: "Chords"}), kit.ErrInvalidCategory)

	require.NoError(t, f.db.First(&stored, "id = ?", stored.ID).Error)
	assert.Equal(t, kit.CategorySampleLoop, stored.ContentType)
	assert.Equal(t, "Top Loop", stored.SubGroup)
}

// TestConcurrentUpdatesOnFileSQLite 默认配置的文件 sqlite 上并发修改内容不会因锁冲突失败.
func TestConcurrentUpdatesOnFileSQLite(t *testing.T) {
	ctx := context.Background()

	cfg := configs.Defaults().DB
	cfg.Path = filepath.Join(t.TempDir(), "kits.db")

	client, err := db.New(ctx, &cfg, model.Models()...)
	require.NoError(t, err)

	f := fixtureOn(t, client)

	id, err := f.svc.CreateKit(ctx, "busy")
	require.NoError(t, err)

	files := []types.NewContentFile{{FileName: "loop.wav", Category: kit.CategoryFullLoop}}
	for i := range 16 {
		files = append(files, types.NewContentFile{
			FileName: fmt.Sprintf("kick%02d.wav", i),
			Category: kit.CategoryOneShot,
			Type:     "Drums > Kick",
		})
	}

	f.presignAndCreate(t, id, "loop.wav", files...)

	got, err := f.svc.GetKit(ctx, id)
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)

	for _, c := range got.Contents {
		if c.ContentType != kit.CategoryOneShot {
			continue
		}

		wg.Add(1)

		go func(contentID string) {
			defer wg.Done()

			err := f.svc.UpdateContent(ctx, contentID, types.UpdateContentRequest{Category: kit.CategoryOneShot, Type: "Drums > Clap"})
			if err != nil {
				failed.Add(1)
				t.Errorf("update %s: %v", contentID, err)
			}
		}(c.ID)
	}

	wg.Wait()
	assert.Zero(t, failed.Load())

	got, err = f.svc.GetKit(ctx, id)
	require.NoError(t, err)

	for _, c := range got.Contents {
		if c.ContentType == kit.CategoryOneShot {
			assert.Equal(t, "Clap", c.SubGroup, c.ContentName)
		}
	}
}

func TestDeleteAndPurge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ready, err := f.svc.CreateKit(ctx, "ready")
	require.NoError(t, err)
	f.presignAndCreate(t, ready, "loop.wav", types.NewContentFile{FileName: "loop.wav", Category: kit.CategoryFullLoop})

	draft, err := f.svc.CreateKit(ctx, "draft")
	require.NoError(t, err)

	n, err := f.svc.PurgeStaleDrafts(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, f.db.Model(&model.Kit{}).Where("id = ?", draft).
		UpdateColumn("updated_at", time.Now().Add(-2*time.Hour)).Error)

	n, err = f.svc.PurgeStaleDrafts(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.svc.GetKit(ctx, draft)
	require.ErrorIs(t, err, service.ErrKitNotFound)

	require.NoError(t, f.svc.DeleteKit(ctx, ready, service.DiscardManual))

	_, err = f.svc.GetKit(ctx, ready)
	require.ErrorIs(t, err, service.ErrKitNotFound)
	require.ErrorIs(t, f.svc.DeleteKit(ctx, ready, service.DiscardManual), service.ErrKitNotFound)

	assert.Equal(t, []string{"kits/" + draft + "/", "kits/" + ready + "/"}, f.store.removed)

	var count int64

	require.NoError(t, f.db.Model(&model.KitContent{}).Where("kit_id = ?", ready).Count(&count).Error)
	assert.Zero(t, count)
}

func TestServiceWithoutStorage(t *testing.T) {
	svc := service.NewKitServiceWith(nil, nil)

	_, err := svc.GetKit(context.Background(), "x")
	require.ErrorIs(t, err, service.ErrNotConfigured)
}
