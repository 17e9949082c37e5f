// Package kit 实现 construction kit 导入流程的本地领域模型：文件分类、分类体系、
// 组织完整性校验、默认 Full Loop 选择、配对引擎以及批次状态.
//
// 该包不做任何网络调用，所有状态转换都是同步且确定的，便于表现层只渲染快照并派发意图.
//
// Example:
//
//	b := kit.NewBatch()
//	res := b.Add([]kit.FileInput{{Name: "loop.wav", Size: 1024, MIME: "audio/wav"}})
//	if err := res.Err(); err != nil {
//		// 展示重复文件名或无法识别的文件
//	}
//
//	rec, _ := b.Lookup("loop.wav")
//	_ = b.SetCategory(rec.ID, kit.CategoryFullLoop)
//
//	if err := b.CheckSubmittable(); err != nil {
//		// 提交按钮保持禁用
//	}
package kit

import (
	"path/filepath"
	"strings"
)

// Kind 文件的语义类型，由文件名和 MIME 推导，计算后不可变.
type Kind string

const (
	KindAudio   Kind = "audio"
	KindMIDI    Kind = "midi"
	KindPreset  Kind = "preset"
	KindUnknown Kind = "unknown"
)

var (
	midiExts   = map[string]struct{}{".mid": {}, ".midi": {}}
	audioExts  = map[string]struct{}{".wav": {}, ".mp3": {}, ".aiff": {}, ".aif": {}}
	presetExts = map[string]struct{}{".serumpreset": {}, ".h2p": {}, ".fxp": {}, ".preset": {}}
)

// Classify 按优先级判定文件类型：MIDI 扩展名 > audio/ MIME 或音频扩展名 > 预设扩展名或文件名含 preset > Unknown.
// 纯函数，对任意输入都有定义.
func Classify(name, mime string) Kind {
	ext := strings.ToLower(filepath.Ext(name))

	if _, ok := midiExts[ext]; ok {
		return KindMIDI
	}

	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "audio/") {
		return KindAudio
	}

	if _, ok := audioExts[ext]; ok {
		return KindAudio
	}

	if _, ok := presetExts[ext]; ok {
		return KindPreset
	}

	if strings.Contains(strings.ToLower(name), "preset") {
		return KindPreset
	}

	return KindUnknown
}

// String 实现 fmt.Stringer.
func (k Kind) String() string { return string(k) }

// Valid 是否为已知类型.
func (k Kind) Valid() bool {
	switch k {
	case KindAudio, KindMIDI, KindPreset:
		return true
	default:
		return false
	}
}

// Extensions 返回该类型对应的扩展名列表（小写，带点），顺序稳定.
func (k Kind) Extensions() []string {
	switch k {
	case KindMIDI:
		return []string{".mid", ".midi"}
	case KindAudio:
		return []string{".wav", ".mp3", ".aiff", ".aif"}
	case KindPreset:
		return []string{".serumpreset", ".h2p", ".fxp", ".preset"}
	default:
		return nil
	}
}

// DefaultContentType 为没有声明 MIME 的文件推断上传时使用的 Content-Type.
func DefaultContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".aiff", ".aif":
		return "audio/aiff"
	case ".mid", ".midi":
		return "audio/midi"
	default:
		return "application/octet-stream"
	}
}
