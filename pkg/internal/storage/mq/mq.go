// Package mq 构建包生命周期事件的总线，基于 Watermill. 后端在 mq.type 中选择，
// 导入服务只发布，kitvault mq tail 订阅.
//
//	client, err := mq.Open(ctx, &cfg.MQ)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.Publish(ctx, queue.TopicKitCreated, msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/log"
	appmetrics "github.com/yeisme/kitvault/pkg/metrics"
)

// ErrNotReady 客户端未初始化.
var ErrNotReady = errors.New("mq client not initialized")

// Factory 创建指定后端的 Publisher 与 Subscriber.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[configs.MQType]Factory{}
)

// RegisterFactory 注册后端.
func RegisterFactory(t configs.MQType, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// GetRegisteredMQTypes 已注册的后端，按名称排序.
func GetRegisteredMQTypes() []configs.MQType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	out := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	slices.Sort(out)

	return out
}

// Client 持有一对 Publisher/Subscriber.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

// NewClient 使用现成的 Publisher/Subscriber，测试中可传入 gochannel.
func NewClient(pub message.Publisher, sub message.Subscriber) *Client {
	return &Client{publisher: pub, subscriber: sub}
}

// Open 按 cfg.Type 连接事件总线. 全局开启指标且 mq.metrics 为 true 时为发布订阅加上 Prometheus 装饰.
func Open(ctx context.Context, cfg *configs.MQConfig) (*Client, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Type]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported mq type %q", cfg.Type)
	}

	logger := log.Component("mq")

	pub, sub, err := factory(ctx, cfg, NewLoggerAdapter(logger))
	if err != nil {
		return nil, fmt.Errorf("open %s mq: %w", cfg.Type, err)
	}

	if configs.GetConfig().Metrics.Enabled && cfg.Metrics {
		b := metrics.NewPrometheusMetricsBuilder(appmetrics.GetRegistry(), configs.AppName, "mq")

		if pub, err = b.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("mq publisher metrics: %w", err)
		}

		if sub, err = b.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("mq subscriber metrics: %w", err)
		}
	}

	logger.Info().Str("type", string(cfg.Type)).Bool("metrics", cfg.Metrics).Msg("event bus connected")

	return &Client{publisher: pub, subscriber: sub}, nil
}

// Publish 发布消息，ctx 随消息传递给后端.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return ErrNotReady
	}

	for _, m := range msgs {
		m.SetContext(ctx)
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 订阅主题，ctx 结束后通道关闭.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, ErrNotReady
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// HealthCheck 客户端是否可用.
func (c *Client) HealthCheck(context.Context) error {
	if c == nil || c.publisher == nil {
		return ErrNotReady
	}

	return nil
}

// Close 关闭发布与订阅.
func (c *Client) Close() error {
	var errs []error

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	if c.subscriber != nil {
		errs = append(errs, c.subscriber.Close())
	}

	return errors.Join(errs...)
}
