// Package queue 构建包生命周期事件的信封与编解码.
//
// 导入服务在构建包创建、写入内容、修改分类、修改默认 Full Loop、丢弃时发布事件，
// 主题见 topics.go，负载见 payloads.go. 每条事件都是 JSON 信封：
//
//	{
//	  "header": {
//	    "topic": "kv.kit.contents.created",
//	    "trace_id": "4bf92f3577b34da6a3ce929d0e0e4736",
//	    "producer": "kitvault",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { "kit": { "kit_id": "..." }, ... }
//	}
//
// occurred_at 为 UTC. 消费者应忽略未知字段. 发布为尽力而为，失败只记录日志，不影响导入请求.
package queue

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/kitvault/pkg/configs"
)

const PayloadVersionV1 = "v1"

// HeaderOption 修改事件头.
type HeaderOption func(*EventHeader)

// WithTraceID 覆盖 trace_id.
func WithTraceID(id string) HeaderOption { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 覆盖 producer，默认为应用名.
func WithProducer(p string) HeaderOption { return func(h *EventHeader) { h.Producer = p } }

// NewEventHeader 创建事件头，trace_id 取自 ctx 中的 span.
func NewEventHeader(ctx context.Context, topic string, opts ...HeaderOption) EventHeader {
	h := EventHeader{
		Topic:      topic,
		Producer:   configs.AppName,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		h.TraceID = sc.TraceID().String()
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Encode 编码信封.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 解码信封.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]
	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 把负载封装为信封，头部字段同时写入消息元数据，便于不解码负载的路由.
func NewWatermillMessage[T any](ctx context.Context, topic string, payload T, opts ...HeaderOption) (*message.Message, error) {
	h := NewEventHeader(ctx, topic, opts...)

	data, err := Encode(Message[T]{Header: h, Payload: payload})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	msg.Metadata.Set("producer", h.Producer)
	msg.Metadata.Set("version", h.Version)
	msg.Metadata.Set("occurred_at", h.OccurredAt.Format(time.RFC3339Nano))

	if h.TraceID != "" {
		msg.Metadata.Set("trace_id", h.TraceID)
	}

	return msg, nil
}

// ParseWatermillMessage 解出强类型信封.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}

// KitEvent 任意构建包事件的公共部分.
type KitEvent struct {
	Kit KitRef `json:"kit"`
}

// Peek 不区分主题地读出事件头与构建包.
func Peek(msg *message.Message) (EventHeader, KitRef, error) {
	env, err := Decode[KitEvent](msg.Payload)
	if err != nil {
		return EventHeader{}, KitRef{}, err
	}

	return env.Header, env.Payload.Kit, nil
}
