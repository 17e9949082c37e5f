//go:build !no_redis

package mq

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/kitvault/pkg/configs"
)

func init() {
	RegisterFactory(configs.MQTypeRedis, openRedis)
}

// openRedis 基于 Redis Pub/Sub，不持久化：没有订阅者时发布的事件直接丢弃.
// 只传递消息负载，元数据不经过 Redis.
func openRedis(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ClientName: configs.AppName + "-events",
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}

	sub := &redisSubscriber{
		rdb:    rdb,
		logger: logger,
		buffer: max(cfg.Redis.Buffer, 1),
		done:   make(chan struct{}),
	}

	return redisPublisher{rdb: rdb}, sub, nil
}

type redisPublisher struct {
	rdb *redis.Client
}

func (p redisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, m := range msgs {
		if err := p.rdb.Publish(m.Context(), topic, []byte(m.Payload)).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Close 连接由订阅方关闭.
func (redisPublisher) Close() error { return nil }

type redisSubscriber struct {
	rdb    *redis.Client
	logger watermill.LoggerAdapter
	buffer int

	mu     sync.Mutex
	subs   []*redis.PubSub
	closed bool
	done   chan struct{}
}

// Subscribe 每条消息等待 Ack 或 Nack 后再投递下一条；Nack 的消息不会重投.
func (s *redisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(chan *message.Message, s.buffer)
	if s.closed {
		close(out)
		return out, nil
	}

	ps := s.rdb.Subscribe(ctx, topic)
	s.subs = append(s.subs, ps)

	go s.forward(ctx, ps, topic, out)

	return out, nil
}

func (s *redisSubscriber) forward(ctx context.Context, ps *redis.PubSub, topic string, out chan<- *message.Message) {
	defer close(out)

	for {
		rm, err := ps.ReceiveMessage(ctx)
		if err != nil {
			return
		}

		m := message.NewMessage(watermill.NewUUID(), []byte(rm.Payload))
		m.SetContext(ctx)

		select {
		case out <- m:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}

		select {
		case <-m.Acked():
		case <-m.Nacked():
			s.logger.Info("redis message nacked, dropped", watermill.LogFields{"topic": topic, "uuid": m.UUID})
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *redisSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.done)

	for _, ps := range s.subs {
		if err := ps.Close(); err != nil {
			s.logger.Error("close redis subscription", err, nil)
		}
	}

	return s.rdb.Close()
}
