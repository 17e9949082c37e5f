package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher 事件发布方，mq.Client 满足该接口.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Publish 把负载封装为信封后发布到主题，ctx 中的 span 写入 trace_id.
func Publish[T any](ctx context.Context, pub Publisher, topic string, payload T, opts ...HeaderOption) error {
	msg, err := NewWatermillMessage(ctx, topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, topic, msg)
}

// PublishKitCreated 发布 kv.kit.created 事件.
func PublishKitCreated(ctx context.Context, pub Publisher, payload KitCreatedPayload, opts ...HeaderOption) error {
	return Publish(ctx, pub, TopicKitCreated, payload, opts...)
}

// PublishKitContentsCreated 发布 kv.kit.contents.created 事件.
func PublishKitContentsCreated(ctx context.Context, pub Publisher, payload KitContentsCreatedPayload, opts ...HeaderOption) error {
	return Publish(ctx, pub, TopicKitContentsCreated, payload, opts...)
}

// PublishKitContentUpdated 发布 kv.kit.content.updated 事件.
func PublishKitContentUpdated(ctx context.Context, pub Publisher, payload KitContentUpdatedPayload, opts ...HeaderOption) error {
	return Publish(ctx, pub, TopicKitContentUpdated, payload, opts...)
}

// PublishKitDefaultChanged 发布 kv.kit.default.changed 事件.
func PublishKitDefaultChanged(ctx context.Context, pub Publisher, payload KitDefaultChangedPayload, opts ...HeaderOption) error {
	return Publish(ctx, pub, TopicKitDefaultChanged, payload, opts...)
}

// PublishKitDiscarded 发布 kv.kit.discarded 事件.
func PublishKitDiscarded(ctx context.Context, pub Publisher, payload KitDiscardedPayload, opts ...HeaderOption) error {
	return Publish(ctx, pub, TopicKitDiscarded, payload, opts...)
}

// ParseKitContentsCreated 将 Watermill 消息解析为强类型信封.
func ParseKitContentsCreated(msg *message.Message) (Message[KitContentsCreatedPayload], error) {
	return ParseWatermillMessage[KitContentsCreatedPayload](msg)
}
