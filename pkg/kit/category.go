package kit

import "slices"

// 分类名称.
const (
	CategoryOneShot    = "One-Shot"
	CategorySampleLoop = "Sample Loop"
	CategoryFullLoop   = "Full Loop"
	CategoryMIDI       = "MIDI"
	CategoryPreset     = "Preset"
)

// TypeSeparator 组合 group 与 subtype 时使用的分隔符，例如 "Drums > Kick".
const TypeSeparator = " > "

// SoundGroup 分类下的声音分组以及其可选子分组.
type SoundGroup struct {
	Name      string   `json:"name"`
	SubGroups []string `json:"sub_groups"`
}

// Category 静态分类描述.
// Groups 为空且 Subtypes 非空时，表示该分类直接选择 subtype（MIDI、Preset）；
// 两者都为空时只需要分类本身（Full Loop）.
type Category struct {
	Name     string       `json:"name"`
	Kinds    []Kind       `json:"kinds"`
	Groups   []SoundGroup `json:"groups,omitempty"`
	Subtypes []string     `json:"subtypes,omitempty"`
}

// CategoryModel 分类 -> 声音分组 -> 子分组 的静态体系.
type CategoryModel struct {
	categories []Category
}

// DefaultCategoryModel 默认分类体系.
func DefaultCategoryModel() *CategoryModel {
	return NewCategoryModel([]Category{
		{
			Name:  CategoryOneShot,
			Kinds: []Kind{KindAudio},
			Groups: []SoundGroup{
				{Name: "Drums", SubGroups: []string{"Kick", "Snare", "Clap", "Hi-Hat", "Cymbal", "Percussion"}},
				{Name: "Bass", SubGroups: []string{"808", "Sub", "Synth Bass"}},
				{Name: "Melodic", SubGroups: []string{"Keys", "Pad", "Lead", "Pluck", "Stab"}},
				{Name: "Vocal", SubGroups: []string{"Chop", "Phrase", "Shout"}},
				{Name: "FX", SubGroups: []string{"Riser", "Impact", "Sweep", "Texture"}},
			},
		},
		{
			Name:  CategorySampleLoop,
			Kinds: []Kind{KindAudio},
			Groups: []SoundGroup{
				{Name: "Drums", SubGroups: []string{"Full Drums", "Top Loop", "Kick Loop", "Hat Loop", "Percussion"}},
				{Name: "Bass", SubGroups: []string{"808", "Sub", "Synth Bass"}},
				{Name: "Melodic", SubGroups: []string{"Chords", "Melody", "Arp", "Pad"}},
				{Name: "Vocal", SubGroups: []string{"Hook", "Adlib", "Chop"}},
				{Name: "FX", SubGroups: []string{"Riser", "Texture", "Transition"}},
			},
		},
		{
			Name:  CategoryFullLoop,
			Kinds: []Kind{KindAudio},
		},
		{
			Name:     CategoryMIDI,
			Kinds:    []Kind{KindMIDI},
			Subtypes: []string{"Melody", "Chords", "Bassline", "Drums", "Arp"},
		},
		{
			Name:     CategoryPreset,
			Kinds:    []Kind{KindPreset},
			Subtypes: []string{"Lead", "Pad", "Bass", "Pluck", "Keys", "FX"},
		},
	})
}

// NewCategoryModel 以给定分类列表创建分类体系，顺序即展示顺序.
func NewCategoryModel(categories []Category) *CategoryModel {
	return &CategoryModel{categories: slices.Clone(categories)}
}

// Categories 返回全部分类.
func (m *CategoryModel) Categories() []Category {
	return slices.Clone(m.categories)
}

// Category 按名称查找分类.
func (m *CategoryModel) Category(name string) (Category, bool) {
	for _, c := range m.categories {
		if c.Name == name {
			return c, true
		}
	}

	return Category{}, false
}

// CategoriesFor 返回某类型文件可选的分类名称.
func (m *CategoryModel) CategoriesFor(kind Kind) []string {
	out := make([]string, 0, len(m.categories))

	for _, c := range m.categories {
		if slices.Contains(c.Kinds, kind) {
			out = append(out, c.Name)
		}
	}

	return out
}

// GroupsFor 返回分类下的声音分组名称；无分组时返回 nil.
func (m *CategoryModel) GroupsFor(category string) []string {
	c, ok := m.Category(category)
	if !ok || len(c.Groups) == 0 {
		return nil
	}

	out := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		out = append(out, g.Name)
	}

	return out
}

// SubtypesFor 根据已选的分类与分组返回可选 subtype.
// 对于直接选 subtype 的分类忽略 group；需要分组但 group 未选时返回 nil.
func (m *CategoryModel) SubtypesFor(category, group string) []string {
	c, ok := m.Category(category)
	if !ok {
		return nil
	}

	if len(c.Groups) == 0 {
		return slices.Clone(c.Subtypes)
	}

	for _, g := range c.Groups {
		if g.Name == group {
			return slices.Clone(g.SubGroups)
		}
	}

	return nil
}

// Allows 检查 kind 能否使用该分类.
func (m *CategoryModel) Allows(kind Kind, category string) bool {
	c, ok := m.Category(category)

	return ok && slices.Contains(c.Kinds, kind)
}

// ValidGroup 检查分组是否属于该分类.
func (m *CategoryModel) ValidGroup(category, group string) bool {
	return slices.Contains(m.GroupsFor(category), group)
}

// ValidSubtype 检查 subtype 在当前选择下是否合法.
func (m *CategoryModel) ValidSubtype(category, group, subtype string) bool {
	return slices.Contains(m.SubtypesFor(category, group), subtype)
}
