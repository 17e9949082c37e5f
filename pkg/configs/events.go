package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled bool            `mapstructure:"enabled"` // 总开关
	Kit     KitEventsConfig `mapstructure:"kit"`
}

// KitEventsConfig 针对构建包（construction kit）领域的事件开关.
type KitEventsConfig struct {
	Created         bool `mapstructure:"created"`
	ContentsCreated bool `mapstructure:"contents_created"`
	ContentUpdated  bool `mapstructure:"content_updated"`
	DefaultChanged  bool `mapstructure:"default_changed"`
	Discarded       bool `mapstructure:"discarded"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认关闭，需要部署 MQ 后开启
	v.SetDefault("events.enabled", false)

	v.SetDefault("events.kit.created", true)
	v.SetDefault("events.kit.contents_created", true)
	v.SetDefault("events.kit.default_changed", true)
	v.SetDefault("events.kit.discarded", true)

	// 单条内容的分类修改量可能很大，默认关闭
	v.SetDefault("events.kit.content_updated", false)
}
