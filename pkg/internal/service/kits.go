package service

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid"
	"gorm.io/gorm"

	"github.com/yeisme/kitvault/pkg/cache"
	"github.com/yeisme/kitvault/pkg/configs"
	ctxPkg "github.com/yeisme/kitvault/pkg/context"
	"github.com/yeisme/kitvault/pkg/internal/model"
	"github.com/yeisme/kitvault/pkg/internal/types"
	"github.com/yeisme/kitvault/pkg/kit"
	"github.com/yeisme/kitvault/pkg/metrics"
	"github.com/yeisme/kitvault/pkg/queue"
)

var (
	ErrKitNotFound      = errors.New("kit not found")
	ErrContentNotFound  = errors.New("content not found")
	ErrInvalidContent   = errors.New("invalid content")
	ErrDuplicateContent = errors.New("content name already exists in kit")
	ErrTooManyFiles     = errors.New("too many files in one request")
	ErrFileTooLarge     = errors.New("file exceeds size limit")
	ErrDefaultNotFound  = errors.New("default full loop not found in kit")
	ErrDefaultRequired  = errors.New("kit has no default full loop")
	ErrNotConfigured    = errors.New("storage not configured")
)

// 丢弃原因.
const (
	DiscardManual  = "manual"
	DiscardExpired = "expired"
)

// ObjectStore 导入服务使用的对象存储能力，s3.Client 满足该接口.
type ObjectStore interface {
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	ObjectURL(key string) string
	RemovePrefix(ctx context.Context, prefix string) (int, error)
}

// KitService 构建包导入服务：签发上传地址、维护内容元数据与默认 Full Loop.
type KitService struct {
	db     *gorm.DB
	store  ObjectStore
	cache  *cache.Cache
	events queue.Publisher
	cfg    configs.ImportConfig
	evCfg  configs.EventsConfig
	model  *kit.CategoryModel
}

// KitServiceOption 配置 KitService.
type KitServiceOption func(*KitService)

// WithCache 启用构建包读取缓存.
func WithCache(c *cache.Cache) KitServiceOption {
	return func(s *KitService) { s.cache = c }
}

// WithEvents 启用事件发布.
func WithEvents(pub queue.Publisher, cfg configs.EventsConfig) KitServiceOption {
	return func(s *KitService) {
		s.events = pub
		s.evCfg = cfg
	}
}

// WithImportConfig 覆盖导入限制.
func WithImportConfig(cfg configs.ImportConfig) KitServiceOption {
	return func(s *KitService) { s.cfg = cfg }
}

// NewKitServiceWith 使用显式依赖创建服务.
func NewKitServiceWith(db *gorm.DB, store ObjectStore, opts ...KitServiceOption) *KitService {
	s := &KitService{
		db:    db,
		store: store,
		cfg:   configs.GetConfig().Import,
		model: kit.DefaultCategoryModel(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewKitService 从 context 中的存储管理器创建服务.
func NewKitService(c context.Context) *KitService {
	cfg := configs.GetConfig()

	var (
		db    *gorm.DB
		store ObjectStore
		opts  []KitServiceOption
	)

	if dbc := ctxPkg.GetDBClient(c); dbc != nil {
		db = dbc.GetDB()
	}

	if s3c := ctxPkg.GetS3Client(c); s3c != nil {
		store = s3c
	}

	if kvc := ctxPkg.GetKVClient(c); kvc != nil && cfg.Import.CacheTTL > 0 {
		opts = append(opts, WithCache(cache.NewCache(kvc, cache.WithPrefix(kitCachePrefix))))
	}

	if mqc := ctxPkg.GetMQClient(c); mqc != nil && cfg.Events.Enabled {
		opts = append(opts, WithEvents(mqc, cfg.Events))
	}

	return NewKitServiceWith(db, store, opts...)
}

func (s *KitService) ready() error {
	if s.db == nil || s.store == nil {
		return ErrNotConfigured
	}

	return nil
}

func newContentID() string {
	return ulid.MustNew(ulid.Now(), crand.Reader).String()
}

// kitCachePrefix 构建包读取缓存的键前缀，键为 kit.<kitID>.
const kitCachePrefix = "kit."

// kitPrefix 构建包对象键前缀，以 / 结尾.
func (s *KitService) kitPrefix(kitID string) string {
	return path.Join(s.cfg.KeyPrefix, kitID) + "/"
}

// CreateKit 创建草稿构建包.
func (s *KitService) CreateKit(ctx context.Context, name string) (string, error) {
	if s.db == nil {
		return "", ErrNotConfigured
	}

	k := model.Kit{ID: uuid.NewString(), Name: strings.TrimSpace(name), Status: model.KitStatusDraft}
	if err := s.db.WithContext(ctx).Create(&k).Error; err != nil {
		return "", fmt.Errorf("create kit: %w", err)
	}

	s.publish(ctx, s.evCfg.Kit.Created, func(pub queue.Publisher) error {
		return queue.PublishKitCreated(ctx, pub, queue.KitCreatedPayload{Kit: queue.KitRef{KitID: k.ID, Name: k.Name}})
	})

	return k.ID, nil
}

// GetKit 返回构建包及其内容，每条内容附带限时播放地址.
func (s *KitService) GetKit(ctx context.Context, kitID string) (types.KitResponse, error) {
	if err := s.ready(); err != nil {
		return types.KitResponse{}, err
	}

	if s.cache == nil {
		return s.loadKit(ctx, kitID)
	}

	return cache.GetOrSet(ctx, s.cache, kitID, func() (types.KitResponse, error) {
		return s.loadKit(ctx, kitID)
	}, s.cfg.CacheTTL)
}

func (s *KitService) findKit(ctx context.Context, tx *gorm.DB, kitID string) (model.Kit, error) {
	var k model.Kit

	err := tx.WithContext(ctx).
		Preload("Contents", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&k, "id = ?", kitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return k, fmt.Errorf("%w: %s", ErrKitNotFound, kitID)
	}

	if err != nil {
		return k, fmt.Errorf("load kit: %w", err)
	}

	return k, nil
}

func (s *KitService) loadKit(ctx context.Context, kitID string) (types.KitResponse, error) {
	k, err := s.findKit(ctx, s.db, kitID)
	if err != nil {
		return types.KitResponse{}, err
	}

	resp := types.KitResponse{
		ID:                k.ID,
		Name:              k.Name,
		Status:            types.KitStatus(k.Status),
		Contents:          make([]types.KitContent, 0, len(k.Contents)),
		DefaultFullLoopID: k.DefaultFullLoopID,
	}

	for _, c := range k.Contents {
		stream, err := s.store.PresignGet(ctx, c.ObjectKey, s.cfg.StreamURLExpiry)
		if err != nil {
			return types.KitResponse{}, err
		}

		resp.Contents = append(resp.Contents, types.KitContent{
			ID:          c.ID,
			ContentType: c.ContentType,
			ContentName: c.ContentName,
			SoundGroup:  c.SoundGroup,
			SubGroup:    c.SubGroup,
			StreamURL:   stream,
		})
	}

	return resp, nil
}

// classification 校验后的分类结果.
type classification struct {
	kind     kit.Kind
	category string
	group    string
	subtype  string
}

// classify 用与客户端相同的完整性规则校验文件类型 k 下的分类与类型字符串.
func (s *KitService) classify(k kit.Kind, name, category, typ string) (classification, error) {
	if !k.Valid() {
		return classification{}, fmt.Errorf("%w: %s: %w", ErrInvalidContent, name, kit.ErrClassificationAmbiguous)
	}

	if !s.model.Allows(k, category) {
		return classification{}, fmt.Errorf("%w: %s: %w", ErrInvalidContent, name, kit.ErrInvalidCategory)
	}

	group, subtype := kit.ParseType(k, typ)

	if group != "" && !s.model.ValidGroup(category, group) {
		return classification{}, fmt.Errorf("%w: %s: %w", ErrInvalidContent, name, kit.ErrInvalidGroup)
	}

	if subtype != "" && !s.model.ValidSubtype(category, group, subtype) {
		return classification{}, fmt.Errorf("%w: %s: %w", ErrInvalidContent, name, kit.ErrInvalidSubtype)
	}

	rec := kit.FileRecord{Name: name, Kind: k, Category: category, Group: group, Subtype: subtype}
	if missing := kit.MissingFields(&rec); len(missing) > 0 {
		return classification{}, fmt.Errorf("%w: %s: missing %v", ErrInvalidContent, name, missing)
	}

	return classification{kind: k, category: category, group: group, subtype: subtype}, nil
}

// storedKind 返回写入时判定的类型，旧记录没有类型时按文件名判断.
func storedKind(c model.KitContent) kit.Kind {
	if k := kit.Kind(c.Kind); k.Valid() {
		return k
	}

	return kit.Classify(c.ContentName, "")
}

// UpdateContent 修改已有内容的分类与类型.
// 若该内容是默认 Full Loop 且不再是 Full Loop，默认值被清空，需要重新指定.
func (s *KitService) UpdateContent(ctx context.Context, contentID string, req types.UpdateContentRequest) error {
	if err := s.ready(); err != nil {
		return err
	}

	var (
		content model.KitContent
		k       model.Kit
		cls     classification
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&content, "id = ?", contentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrContentNotFound, contentID)
		}

		if err != nil {
			return fmt.Errorf("load content: %w", err)
		}

		if cls, err = s.classify(storedKind(content), content.ContentName, req.Category, req.Type); err != nil {
			return err
		}

		content.ContentType, content.SoundGroup, content.SubGroup = cls.category, cls.group, cls.subtype
		if err := tx.Save(&content).Error; err != nil {
			return fmt.Errorf("update content: %w", err)
		}

		if err := tx.First(&k, "id = ?", content.KitID).Error; err != nil {
			return fmt.Errorf("load kit: %w", err)
		}

		if k.DefaultFullLoopID == content.ID && cls.category != kit.CategoryFullLoop {
			k.DefaultFullLoopID = ""
			if err := tx.Model(&k).Update("default_full_loop_id", "").Error; err != nil {
				return fmt.Errorf("clear default: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, content.KitID)

	s.publish(ctx, s.evCfg.Kit.ContentUpdated, func(pub queue.Publisher) error {
		return queue.PublishKitContentUpdated(ctx, pub, queue.KitContentUpdatedPayload{
			Kit:      queue.KitRef{KitID: content.KitID},
			Content:  contentRef(content),
			Category: req.Category,
			Type:     req.Type,
		})
	})

	return nil
}

// PresignUploads 为一批新文件签发上传地址，对象键为 {prefix}/{kitId}/{ulid}-{filename}.
func (s *KitService) PresignUploads(ctx context.Context, kitID string, req types.PresignRequest) (types.PresignResponse, error) {
	if err := s.ready(); err != nil {
		return types.PresignResponse{}, err
	}

	if len(req.Files) > s.cfg.MaxFiles {
		return types.PresignResponse{}, fmt.Errorf("%w: %d > %d", ErrTooManyFiles, len(req.Files), s.cfg.MaxFiles)
	}

	k, err := s.findKit(ctx, s.db, kitID)
	if err != nil {
		return types.PresignResponse{}, err
	}

	seen := make(map[string]struct{}, len(k.Contents)+len(req.Files))
	for _, c := range k.Contents {
		seen[c.ContentName] = struct{}{}
	}

	resp := types.PresignResponse{Uploads: make([]types.PresignedUpload, 0, len(req.Files))}

	for _, f := range req.Files {
		if _, dup := seen[f.Filename]; dup {
			return types.PresignResponse{}, fmt.Errorf("%w: %s", ErrDuplicateContent, f.Filename)
		}

		seen[f.Filename] = struct{}{}

		if f.Size > s.cfg.MaxFileSize {
			return types.PresignResponse{}, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, f.Filename, f.Size)
		}

		key := s.kitPrefix(kitID) + newContentID() + "-" + f.Filename

		put, err := s.store.PresignPut(ctx, key, s.cfg.PresignExpiry)
		if err != nil {
			return types.PresignResponse{}, err
		}

		resp.Uploads = append(resp.Uploads, types.PresignedUpload{
			PresignedURL: put,
			Key:          key,
			URL:          s.store.ObjectURL(key),
			Filename:     f.Filename,
		})
	}

	metrics.PresignedUploads.Add(float64(len(resp.Uploads)))

	return resp, nil
}

// CreateContents 写入一批已上传文件的元数据并设置默认 Full Loop.
// defaultFullLoopFileName 可以指向本次新文件，也可以指向已有内容；
// 为空时沿用已有默认值，构建包仍没有默认值则拒绝.
func (s *KitService) CreateContents(ctx context.Context, kitID string, req types.CreateContentsRequest) error {
	if err := s.ready(); err != nil {
		return err
	}

	var (
		created     []model.KitContent
		prevDefault string
		newDefault  string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		k, err := s.findKit(ctx, tx, kitID)
		if err != nil {
			return err
		}

		prevDefault = k.DefaultFullLoopID
		byName := make(map[string]model.KitContent, len(k.Contents)+len(req.Files))

		for _, c := range k.Contents {
			byName[c.ContentName] = c
		}

		prefix := s.kitPrefix(kitID)

		for _, f := range req.Files {
			if _, dup := byName[f.FileName]; dup {
				return fmt.Errorf("%w: %s", ErrDuplicateContent, f.FileName)
			}

			if !strings.HasPrefix(f.Key, prefix) {
				return fmt.Errorf("%w: %s: key outside kit", ErrInvalidContent, f.FileName)
			}

			cls, err := s.classify(kit.Classify(f.FileName, f.ContentType), f.FileName, f.Category, f.Type)
			if err != nil {
				return err
			}

			url := f.URL
			if url == "" {
				url = s.store.ObjectURL(f.Key)
			}

			c := model.KitContent{
				ID:          newContentID(),
				KitID:       kitID,
				ContentName: f.FileName,
				ContentType: cls.category,
				SoundGroup:  cls.group,
				SubGroup:    cls.subtype,
				Kind:        string(cls.kind),
				ObjectKey:   f.Key,
				URL:         url,
			}
			byName[c.ContentName] = c
			created = append(created, c)
		}

		newDefault = prevDefault

		if req.DefaultFullLoopFileName != "" {
			def, ok := byName[req.DefaultFullLoopFileName]
			if !ok {
				return fmt.Errorf("%w: %s", ErrDefaultNotFound, req.DefaultFullLoopFileName)
			}

			if def.ContentType != kit.CategoryFullLoop {
				return fmt.Errorf("%w: %s: %w", ErrInvalidContent, def.ContentName, kit.ErrNotFullLoop)
			}

			newDefault = def.ID
		}

		if newDefault == "" {
			return ErrDefaultRequired
		}

		if len(created) > 0 {
			if err := tx.Create(&created).Error; err != nil {
				return fmt.Errorf("create contents: %w", err)
			}
		}

		return tx.Model(&model.Kit{ID: kitID}).Updates(map[string]any{
			"default_full_loop_id": newDefault,
			"status":               model.KitStatusReady,
		}).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, kitID)

	refs := make([]queue.ContentRef, 0, len(created))
	for _, c := range created {
		metrics.KitContentsCreated.WithLabelValues(c.ContentType).Inc()
		refs = append(refs, contentRef(c))
	}

	l := ctxPkg.Logger(ctx, "import")
	l.Info().Str("kit", kitID).Int("contents", len(created)).Msg("kit contents created")

	s.publish(ctx, s.evCfg.Kit.ContentsCreated, func(pub queue.Publisher) error {
		return queue.PublishKitContentsCreated(ctx, pub, queue.KitContentsCreatedPayload{
			Kit:             queue.KitRef{KitID: kitID},
			Contents:        refs,
			DefaultFullLoop: req.DefaultFullLoopFileName,
		})
	})

	if newDefault != prevDefault {
		s.publishDefaultChanged(ctx, kitID, prevDefault, newDefault)
	}

	return nil
}

// UpdateDefault 将已有的 Full Loop 内容设为默认.
func (s *KitService) UpdateDefault(ctx context.Context, kitID, contentID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	var prev string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		k, err := s.findKit(ctx, tx, kitID)
		if err != nil {
			return err
		}

		prev = k.DefaultFullLoopID

		var target *model.KitContent

		for i := range k.Contents {
			if k.Contents[i].ID == contentID {
				target = &k.Contents[i]
				break
			}
		}

		if target == nil {
			return fmt.Errorf("%w: %s", ErrDefaultNotFound, contentID)
		}

		if target.ContentType != kit.CategoryFullLoop {
			return fmt.Errorf("%w: %s: %w", ErrInvalidContent, target.ContentName, kit.ErrNotFullLoop)
		}

		return tx.Model(&model.Kit{ID: kitID}).Updates(map[string]any{
			"default_full_loop_id": contentID,
			"status":               model.KitStatusReady,
		}).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, kitID)

	if prev != contentID {
		s.publishDefaultChanged(ctx, kitID, prev, contentID)
	}

	return nil
}

// DeleteKit 丢弃构建包：删除前缀下的全部对象（含未登记的孤儿对象）以及数据库记录.
func (s *KitService) DeleteKit(ctx context.Context, kitID, reason string) error {
	if err := s.ready(); err != nil {
		return err
	}

	k, err := s.findKit(ctx, s.db, kitID)
	if err != nil {
		return err
	}

	removed, err := s.store.RemovePrefix(ctx, s.kitPrefix(kitID))
	if err != nil {
		return fmt.Errorf("remove objects: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("kit_id = ?", kitID).Delete(&model.KitContent{}).Error; err != nil {
			return fmt.Errorf("delete contents: %w", err)
		}

		return tx.Delete(&model.Kit{ID: kitID}).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, kitID)
	metrics.KitsDiscarded.WithLabelValues(reason).Inc()

	l := ctxPkg.Logger(ctx, "import")
	l.Info().Str("kit", kitID).Str("reason", reason).Int("objects", removed).Msg("kit discarded")

	s.publish(ctx, s.evCfg.Kit.Discarded, func(pub queue.Publisher) error {
		return queue.PublishKitDiscarded(ctx, pub, queue.KitDiscardedPayload{
			Kit:     queue.KitRef{KitID: kitID, Name: k.Name},
			Objects: removed,
			Reason:  reason,
		})
	})

	return nil
}

// PurgeStaleDrafts 丢弃超过 ttl 未更新的草稿构建包，返回丢弃数量.
func (s *KitService) PurgeStaleDrafts(ctx context.Context, ttl time.Duration) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	var ids []string

	err := s.db.WithContext(ctx).Model(&model.Kit{}).
		Where("status = ? AND updated_at < ?", model.KitStatusDraft, time.Now().Add(-ttl)).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("list stale drafts: %w", err)
	}

	var (
		purged int
		errs   []error
	)

	for _, id := range ids {
		if err := s.DeleteKit(ctx, id, DiscardExpired); err != nil {
			errs = append(errs, err)
			continue
		}

		purged++
	}

	return purged, errors.Join(errs...)
}

func (s *KitService) invalidate(ctx context.Context, kitID string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, kitID); err != nil {
		l := ctxPkg.Logger(ctx, "import")
		l.Warn().Err(err).Str("kit", kitID).Msg("invalidate kit cache failed")
	}
}

func (s *KitService) publishDefaultChanged(ctx context.Context, kitID, prev, current string) {
	s.publish(ctx, s.evCfg.Kit.DefaultChanged, func(pub queue.Publisher) error {
		return queue.PublishKitDefaultChanged(ctx, pub, queue.KitDefaultChangedPayload{
			Kit:      queue.KitRef{KitID: kitID},
			Previous: prev,
			Current:  current,
		})
	})
}

// publish 尽力发布事件，失败只记录日志.
func (s *KitService) publish(ctx context.Context, enabled bool, fn func(queue.Publisher) error) {
	if s.events == nil || !s.evCfg.Enabled || !enabled {
		return
	}

	if err := fn(s.events); err != nil {
		l := ctxPkg.Logger(ctx, "import")
		l.Warn().Err(err).Msg("publish kit event failed")
	}
}

func contentRef(c model.KitContent) queue.ContentRef {
	return queue.ContentRef{
		ContentID:   c.ID,
		ContentName: c.ContentName,
		ContentType: c.ContentType,
		ObjectKey:   c.ObjectKey,
	}
}
