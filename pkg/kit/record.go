package kit

import "strings"

// FileID 批次内文件的标识.
type FileID string

// FileInput 新加入批次的原始文件（拖放或选择）.
type FileInput struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	MIME string `json:"mime,omitempty"`
	// Path 本地文件路径，上传时读取；表现层可以留空并自行提供读取方式.
	Path string `json:"path,omitempty"`
}

// FileRecord 一个待上传或已存在的素材.
type FileRecord struct {
	ID   FileID `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	MIME string `json:"mime,omitempty"`
	Path string `json:"path,omitempty"`
	Kind Kind   `json:"kind"`

	Category string `json:"category,omitempty"`
	Group    string `json:"group,omitempty"`
	Subtype  string `json:"subtype,omitempty"`

	IsExisting bool   `json:"is_existing"`
	ContentID  string `json:"content_id,omitempty"`
	StreamURL  string `json:"stream_url,omitempty"`

	OriginalCategory string `json:"original_category,omitempty"`
	OriginalGroup    string `json:"original_group,omitempty"`
	OriginalSubtype  string `json:"original_subtype,omitempty"`

	IsDefaultFullLoop bool `json:"is_default_full_loop"`
}

// IsFullLoop 是否为 Full Loop.
func (r *FileRecord) IsFullLoop() bool {
	return r.Category == CategoryFullLoop
}

// IsModified 已存在的内容是否被修改（分类、分组或 subtype 与快照不同）.
func (r *FileRecord) IsModified() bool {
	if !r.IsExisting {
		return false
	}

	return r.Category != r.OriginalCategory ||
		r.Group != r.OriginalGroup ||
		r.Subtype != r.OriginalSubtype
}

// ContentType 上传时使用的 Content-Type，优先使用声明的 MIME.
func (r *FileRecord) ContentType() string {
	if r.MIME != "" {
		return r.MIME
	}

	return DefaultContentType(r.Name)
}

// ResolvedType 写入元数据存储的类型字符串：
// MIDI/Preset 为 subtype；其它为 "group > subtype"；Full Loop 没有分组与 subtype 时为空.
func (r *FileRecord) ResolvedType() string {
	if r.Kind == KindMIDI || r.Kind == KindPreset {
		return r.Subtype
	}

	if r.Group == "" && r.Subtype == "" {
		return ""
	}

	return r.Group + TypeSeparator + r.Subtype
}

// ParseType 将存储的类型字符串拆回 group 与 subtype，与 ResolvedType 互逆.
func ParseType(kind Kind, typ string) (group, subtype string) {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return "", ""
	}

	if kind == KindMIDI || kind == KindPreset {
		return "", typ
	}

	if g, s, ok := strings.Cut(typ, strings.TrimSpace(TypeSeparator)); ok {
		return strings.TrimSpace(g), strings.TrimSpace(s)
	}

	return "", typ
}
