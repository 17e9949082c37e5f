package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MQType 事件总线类型.
type MQType string

const (
	MQTypeNATS  MQType = "nats"
	MQTypeRedis MQType = "redis"
)

// MQConfig 构建包生命周期事件的总线. 只有 events.enabled 为 true 时才会连接.
type MQConfig struct {
	Type    MQType        `mapstructure:"type"    rule:"oneof=nats redis"`
	Metrics bool          `mapstructure:"metrics"` // 在 /metrics 暴露 watermill 发布订阅指标
	NATS    MQNATSConfig  `mapstructure:"nats"`
	Redis   MQRedisConfig `mapstructure:"redis"`
}

type MQNATSConfig struct {
	// URL 多个地址用逗号分隔.
	URL           string        `mapstructure:"url"             rule:"required"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	JWT           string        `mapstructure:"jwt"`
	NKey          string        `mapstructure:"nkey"`
	MaxReconnects int           `mapstructure:"max_reconnects"  rule:"min=-1,max=100"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	StrictConnect bool          `mapstructure:"strict_connect"` // false 时启动阶段连不上也会后台重试
	JetStream     bool          `mapstructure:"jetstream"`
	AutoProvision bool          `mapstructure:"auto_provision"`
	TrackMsgID    bool          `mapstructure:"track_msg_id"`
	AckAsync      bool          `mapstructure:"ack_async"`
	DurablePrefix string        `mapstructure:"durable_prefix"`
}

type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
	// Buffer 每个订阅的本地缓冲消息数.
	Buffer int `mapstructure:"buffer" rule:"min=1"`
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeNATS)
	v.SetDefault("mq.metrics", true)

	v.SetDefault("mq.nats.url", "nats://localhost:4222")
	v.SetDefault("mq.nats.max_reconnects", 5)
	v.SetDefault("mq.nats.reconnect_wait", "5s")
	v.SetDefault("mq.nats.jetstream", true)
	v.SetDefault("mq.nats.auto_provision", true)
	v.SetDefault("mq.nats.track_msg_id", true)
	v.SetDefault("mq.nats.ack_async", false)
	v.SetDefault("mq.nats.durable_prefix", AppName)

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.db", 0)
	v.SetDefault("mq.redis.buffer", 64)
}
