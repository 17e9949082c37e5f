package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KVConfig 构建包读取缓存的后端. 是否缓存由 import.cache_ttl 决定.
type KVConfig struct {
	Type       string             `mapstructure:"type"       rule:"oneof=memory redis nats groupcache"`
	Redis      RedisKVConfig      `mapstructure:"redis"`
	NATS       NATSKVConfig       `mapstructure:"nats"`
	Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
}

type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"      rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"        rule:"min=0,max=15"`
	PoolSize int    `mapstructure:"pool_size" rule:"min=0"` // 0 使用 go-redis 默认值
}

type NATSKVConfig struct {
	URL      string        `mapstructure:"url"      rule:"hostname_port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Bucket   string        `mapstructure:"bucket"   rule:"required"`
	TTL      time.Duration `mapstructure:"ttl"` // bucket 级最长保留，仅在创建 bucket 时生效
}

// GroupcacheKVConfig Peers 为空时只使用本地缓存.
type GroupcacheKVConfig struct {
	Name       string   `mapstructure:"name"        rule:"required"`
	CacheBytes int64    `mapstructure:"cache_bytes" rule:"min=1048576"`
	Peers      []string `mapstructure:"peers"`
	Self       string   `mapstructure:"self"        rule:"omitempty,url"`
}

func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", "memory")

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.pool_size", 0)

	v.SetDefault("kv.nats.url", "localhost:4222")
	v.SetDefault("kv.nats.bucket", "kitvault-kits")
	v.SetDefault("kv.nats.ttl", "1h")

	v.SetDefault("kv.groupcache.name", "kitvault-kits")
	v.SetDefault("kv.groupcache.cache_bytes", 64<<20)
	v.SetDefault("kv.groupcache.peers", []string{})
	v.SetDefault("kv.groupcache.self", "http://localhost:8080")
}
