package model

import (
	"time"

	"gorm.io/gorm"
)

// 构建包状态.
const (
	KitStatusDraft = "draft"
	KitStatusReady = "ready"
)

// Kit 构建包模型.
type Kit struct {
	ID     string `gorm:"primaryKey;size:36"  json:"id"`
	Name   string `gorm:"size:255;index"      json:"name"`
	Status string `gorm:"size:16;index"       json:"status"`
	// DefaultFullLoopID 默认 Full Loop 的内容 ID，为空表示尚未选择
	DefaultFullLoopID string       `gorm:"size:26"            json:"default_full_loop_id"`
	Contents          []KitContent `gorm:"foreignKey:KitID"   json:"contents"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// KitContent 构建包中的一条内容，对应对象存储中的一个对象.
type KitContent struct {
	ID    string `gorm:"primaryKey;size:26"                          json:"id"`
	KitID string `gorm:"size:36;index:idx_kit_content_name,unique"  json:"kit_id"`
	// ContentName 原始文件名，在同一构建包内唯一
	ContentName string `gorm:"size:255;index:idx_kit_content_name,unique" json:"content_name"`
	// ContentType 分类，例如 "Full Loop"
	ContentType string `gorm:"size:64;index"   json:"content_type"`
	SoundGroup  string `gorm:"size:128"        json:"sound_group"`
	SubGroup    string `gorm:"size:128"        json:"sub_group"`
	Kind        string `gorm:"size:16"         json:"kind"`
	ObjectKey   string `gorm:"size:1024"       json:"object_key"`
	URL         string `gorm:"size:2048"       json:"url"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Models 返回需要自动迁移的模型.
func Models() []any {
	return []any{&Kit{}, &KitContent{}}
}
