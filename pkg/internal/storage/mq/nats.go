package mq

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	"github.com/yeisme/kitvault/pkg/configs"
)

const natsDrainTimeout = 30 * time.Second

func init() {
	RegisterFactory(configs.MQTypeNATS, openNATS)
}

// natsOptions 连接选项，鉴权优先级 JWT > NKey > 用户名密码.
func natsOptions(cfg configs.MQNATSConfig) []nats.Option {
	opts := []nats.Option{
		nats.Name(configs.AppName + "-events"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, time.Second),
		nats.DrainTimeout(natsDrainTimeout),
		nats.RetryOnFailedConnect(!cfg.StrictConnect),
	}

	switch {
	case cfg.JWT != "":
		opts = append(opts, nats.UserJWTAndSeed(cfg.JWT, cfg.NKey))
	case cfg.NKey != "":
		opts = append(opts, nats.Nkey(cfg.NKey, nil))
	case cfg.User != "":
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	return opts
}

func jetStreamConfig(cfg configs.MQNATSConfig) wmnats.JetStreamConfig {
	if !cfg.JetStream {
		return wmnats.JetStreamConfig{Disabled: true}
	}

	return wmnats.JetStreamConfig{
		AutoProvision: cfg.AutoProvision,
		TrackMsgId:    cfg.TrackMsgID,
		AckAsync:      cfg.AckAsync,
		DurablePrefix: cfg.DurablePrefix,
	}
}

// openNATS JetStream 开启时事件持久化，消费者可以在服务重启后补读.
func openNATS(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	nc := cfg.NATS
	opts := natsOptions(nc)
	js := jetStreamConfig(nc)
	codec := &wmnats.JSONMarshaler{}

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         nc.URL,
		NatsOptions: opts,
		JetStream:   js,
		Marshaler:   codec,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:         nc.URL,
		NatsOptions: opts,
		JetStream:   js,
		Unmarshaler: codec,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	logger.Debug("nats event bus ready", watermill.LogFields{
		"url":       nc.URL,
		"jetstream": nc.JetStream,
	})

	return pub, sub, nil
}
