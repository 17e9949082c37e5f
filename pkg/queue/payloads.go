package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 构建包领域 --------------------------

// KitRef 标识一个构建包.
type KitRef struct {
	KitID string `json:"kit_id"`
	Name  string `json:"name,omitempty"`
}

// ContentRef 标识构建包中的一条内容及其对象.
type ContentRef struct {
	ContentID   string `json:"content_id"`
	ContentName string `json:"content_name"`
	ContentType string `json:"content_type"`
	ObjectKey   string `json:"object_key,omitempty"`
}

// KitCreatedPayload 草稿构建包已创建.
type KitCreatedPayload struct {
	Kit KitRef `json:"kit"`
}

// KitContentsCreatedPayload 一批新内容写入.
type KitContentsCreatedPayload struct {
	Kit             KitRef       `json:"kit"`
	Contents        []ContentRef `json:"contents"`
	DefaultFullLoop string       `json:"default_full_loop,omitempty"`
}

// KitContentUpdatedPayload 已有内容的分类被修改.
type KitContentUpdatedPayload struct {
	Kit      KitRef     `json:"kit"`
	Content  ContentRef `json:"content"`
	Category string     `json:"category"`
	Type     string     `json:"type"`
}

// KitDefaultChangedPayload 默认 Full Loop 变更.
type KitDefaultChangedPayload struct {
	Kit      KitRef `json:"kit"`
	Previous string `json:"previous,omitempty"`
	Current  string `json:"current"`
}

// KitDiscardedPayload 构建包被丢弃.
type KitDiscardedPayload struct {
	Kit     KitRef `json:"kit"`
	Objects int    `json:"objects"`
	Reason  string `json:"reason,omitempty"` // manual / expired
}
