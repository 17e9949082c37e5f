package kit

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

// Batch 一次导入会话的文件集合（BatchState），所有状态转换都通过方法完成.
// 同名文件不能同时存在；至多一个文件标记为默认 Full Loop.
type Batch struct {
	kitID string
	// prevDefault 该 kit 上次持久化的默认 Full Loop 内容 ID.
	prevDefault string
	records     []FileRecord
	selector    DefaultLoopSelector
	model       *CategoryModel
	newID       func() FileID
}

// BatchOption 自定义 Batch.
type BatchOption func(*Batch)

// WithCategoryModel 使用自定义分类体系.
func WithCategoryModel(m *CategoryModel) BatchOption {
	return func(b *Batch) { b.model = m }
}

// WithIDGenerator 自定义文件 ID 生成器.
func WithIDGenerator(fn func() FileID) BatchOption {
	return func(b *Batch) { b.newID = fn }
}

// WithKitID 关联的 kit.
func WithKitID(id string) BatchOption {
	return func(b *Batch) { b.kitID = id }
}

// NewBatch 创建空批次.
func NewBatch(opts ...BatchOption) *Batch {
	b := &Batch{
		model: DefaultCategoryModel(),
		newID: func() FileID { return FileID(uuid.NewString()) },
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// AddResult 添加文件的结果，被拒绝的文件不会进入批次.
type AddResult struct {
	Added        []FileRecord
	Duplicates   []string
	Unclassified []string
}

// Err 汇总被拒绝的文件，全部接受时返回 nil.
func (r AddResult) Err() error {
	var errs []error

	if len(r.Duplicates) > 0 {
		errs = append(errs, &DuplicateFilenameError{Names: r.Duplicates})
	}

	if len(r.Unclassified) > 0 {
		errs = append(errs, &UnclassifiedError{Names: r.Unclassified})
	}

	return errors.Join(errs...)
}

// Add 加入新文件：先过滤与批次内已有文件或本次输入中更早文件同名的文件，再分类；
// 无法分类的文件被拒绝而不是默认为音频.
func (b *Batch) Add(inputs []FileInput) AddResult {
	var res AddResult

	seen := make(map[string]struct{}, len(b.records)+len(inputs))
	for i := range b.records {
		seen[b.records[i].Name] = struct{}{}
	}

	for _, in := range inputs {
		if _, dup := seen[in.Name]; dup {
			res.Duplicates = append(res.Duplicates, in.Name)
			continue
		}

		// 被拒绝的名字同样占位，重名判定只看输入顺序
		seen[in.Name] = struct{}{}

		kind := Classify(in.Name, in.MIME)
		if kind == KindUnknown {
			res.Unclassified = append(res.Unclassified, in.Name)
			continue
		}

		rec := FileRecord{
			ID:   b.newID(),
			Name: in.Name,
			Size: in.Size,
			MIME: in.MIME,
			Path: in.Path,
			Kind: kind,
		}
		// 只有一个可选分类时直接带上（MIDI、Preset）
		if cats := b.model.CategoriesFor(kind); len(cats) == 1 {
			rec.Category = cats[0]
		}

		b.records = append(b.records, rec)
		b.selector.Observe(b.records, rec.ID)
		res.Added = append(res.Added, b.records[len(b.records)-1])
	}

	return res
}

// LoadExisting 用已持久化的内容重置批次，defaultContentID 为 kit 记录的默认 Full Loop.
func (b *Batch) LoadExisting(records []FileRecord, defaultContentID string) {
	b.records = b.records[:0]
	b.prevDefault = defaultContentID

	var defaultID FileID

	for _, r := range records {
		if r.ID == "" {
			r.ID = b.newID()
		}

		r.IsExisting = true
		r.OriginalCategory, r.OriginalGroup, r.OriginalSubtype = r.Category, r.Group, r.Subtype

		if r.ContentID != "" && r.ContentID == defaultContentID {
			defaultID = r.ID
		}

		b.records = append(b.records, r)
	}

	b.selector.Restore(b.records, defaultID)
}

// KitID 关联的 kit ID.
func (b *Batch) KitID() string { return b.kitID }

// SetKitID 设置关联的 kit ID.
func (b *Batch) SetKitID(id string) { b.kitID = id }

// PreviousDefault kit 上次持久化的默认内容 ID.
func (b *Batch) PreviousDefault() string { return b.prevDefault }

// Model 当前分类体系.
func (b *Batch) Model() *CategoryModel { return b.model }

// Records 返回文件快照.
func (b *Batch) Records() []FileRecord {
	return slices.Clone(b.records)
}

// Len 文件数量.
func (b *Batch) Len() int { return len(b.records) }

// Get 按 ID 获取文件.
func (b *Batch) Get(id FileID) (FileRecord, bool) {
	if idx := indexOf(b.records, id); idx >= 0 {
		return b.records[idx], true
	}

	return FileRecord{}, false
}

// Lookup 按文件名获取文件.
func (b *Batch) Lookup(name string) (FileRecord, bool) {
	for i := range b.records {
		if b.records[i].Name == name {
			return b.records[i], true
		}
	}

	return FileRecord{}, false
}

// Kind 返回文件类型，实现 RecordSource.
func (b *Batch) Kind(id FileID) (Kind, bool) {
	r, ok := b.Get(id)

	return r.Kind, ok
}

// Remove 删除文件；删除当前默认只清空默认.
func (b *Batch) Remove(id FileID) error {
	idx := indexOf(b.records, id)
	if idx < 0 {
		return ErrRecordNotFound
	}

	b.records = slices.Delete(b.records, idx, idx+1)
	b.selector.Removed(b.records, id)

	return nil
}

// SetCategory 修改分类并清空 group 与 subtype，旧选择不能跨分类沿用.
// 传入空字符串表示取消分类.
func (b *Batch) SetCategory(id FileID, category string) error {
	idx := indexOf(b.records, id)
	if idx < 0 {
		return ErrRecordNotFound
	}

	rec := &b.records[idx]
	if category != "" && !b.model.Allows(rec.Kind, category) {
		return ErrInvalidCategory
	}

	rec.Category = category
	rec.Group = ""
	rec.Subtype = ""

	b.selector.Observe(b.records, id)

	return nil
}

// SetGroup 修改声音分组并清空 subtype.
func (b *Batch) SetGroup(id FileID, group string) error {
	idx := indexOf(b.records, id)
	if idx < 0 {
		return ErrRecordNotFound
	}

	rec := &b.records[idx]
	if group != "" && !b.model.ValidGroup(rec.Category, group) {
		return ErrInvalidGroup
	}

	rec.Group = group
	rec.Subtype = ""

	return nil
}

// SetSubtype 修改 subtype.
func (b *Batch) SetSubtype(id FileID, subtype string) error {
	idx := indexOf(b.records, id)
	if idx < 0 {
		return ErrRecordNotFound
	}

	rec := &b.records[idx]
	if subtype != "" && !b.model.ValidSubtype(rec.Category, rec.Group, subtype) {
		return ErrInvalidSubtype
	}

	rec.Subtype = subtype

	return nil
}

// SetDefault 显式设置默认 Full Loop.
func (b *Batch) SetDefault(id FileID) error {
	return b.selector.Set(b.records, id)
}

// DefaultID 当前默认文件 ID.
func (b *Batch) DefaultID() FileID { return b.selector.Current() }

// Default 当前默认文件.
func (b *Batch) Default() (FileRecord, bool) {
	id := b.selector.Current()
	if id == "" {
		return FileRecord{}, false
	}

	return b.Get(id)
}

// DefaultChanged 默认 Full Loop 是否与 kit 上次记录的不同.
func (b *Batch) DefaultChanged() bool {
	def, ok := b.Default()
	if !ok {
		return false
	}

	if !def.IsExisting {
		return true
	}

	return def.ContentID != b.prevDefault
}

// AllOrganized 所有文件都满足完整性要求.
func (b *Batch) AllOrganized() bool { return AllOrganized(b.records) }

// HasFullLoop 至少存在一个 Full Loop.
func (b *Batch) HasFullLoop() bool { return HasFullLoop(b.records) }

// Incomplete 未完成的文件列表.
func (b *Batch) Incomplete() []IncompleteRecord { return Incomplete(b.records) }

// CheckSubmittable 提交前置检查.
func (b *Batch) CheckSubmittable() error {
	return CheckSubmittable(b.records, b.selector.Current())
}

// Submittable 是否可以提交.
func (b *Batch) Submittable() bool { return b.CheckSubmittable() == nil }

// Modified 已存在且被修改过的内容（元数据 PUT 的集合）.
func (b *Batch) Modified() []FileRecord {
	var out []FileRecord

	for i := range b.records {
		if b.records[i].IsModified() {
			out = append(out, b.records[i])
		}
	}

	return out
}

// New 尚未上传的文件.
func (b *Batch) New() []FileRecord {
	var out []FileRecord

	for i := range b.records {
		if !b.records[i].IsExisting {
			out = append(out, b.records[i])
		}
	}

	return out
}

// Snapshot 可序列化的只读快照.
func (b *Batch) Snapshot() BatchSnapshot {
	return BatchSnapshot{
		KitID:           b.kitID,
		Records:         b.Records(),
		DefaultID:       b.selector.Current(),
		PreviousDefault: b.prevDefault,
		AllOrganized:    b.AllOrganized(),
		HasFullLoop:     b.HasFullLoop(),
		Submittable:     b.Submittable(),
	}
}

// BatchSnapshot 交给表现层渲染的批次状态.
type BatchSnapshot struct {
	KitID           string       `json:"kit_id,omitempty"`
	Records         []FileRecord `json:"records"`
	DefaultID       FileID       `json:"default_id,omitempty"`
	PreviousDefault string       `json:"previous_default,omitempty"`
	AllOrganized    bool         `json:"all_organized"`
	HasFullLoop     bool         `json:"has_full_loop"`
	Submittable     bool         `json:"submittable"`
}
