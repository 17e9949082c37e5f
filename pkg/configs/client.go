package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultClientBaseURL           = "http://localhost:8080/import" // 导入接口地址，包含 server.base_path
	DefaultClientTimeout           = 30                             // 元数据请求超时，单位秒
	DefaultClientUploadTimeout     = 0                              // 二进制上传超时，0 表示不限制
	DefaultClientUploadConcurrency = 4                              // 同时进行的二进制上传数
)

// ClientConfig 导入客户端（ingest 命令）配置.
type ClientConfig struct {
	BaseURL           string `mapstructure:"base_url"           rule:"required,url"`
	Timeout           int    `mapstructure:"timeout"            rule:"min=1,max=600"`
	UploadTimeout     int    `mapstructure:"upload_timeout"     rule:"min=0"`
	UploadConcurrency int    `mapstructure:"upload_concurrency" rule:"min=1,max=64"`
	UserAgent         string `mapstructure:"user_agent"`
	// Breaker 包裹元数据请求的熔断器，二进制上传不经过熔断.
	Breaker CircuitBreakerConfig `mapstructure:"breaker"`
}

// GetTimeoutDuration 元数据请求超时.
func (c *ClientConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetUploadTimeoutDuration 二进制上传超时，0 表示不限制.
func (c *ClientConfig) GetUploadTimeoutDuration() time.Duration {
	return time.Duration(c.UploadTimeout) * time.Second
}

func (c *ClientConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("client.base_url", DefaultClientBaseURL)
	v.SetDefault("client.timeout", DefaultClientTimeout)
	v.SetDefault("client.upload_timeout", DefaultClientUploadTimeout)
	v.SetDefault("client.upload_concurrency", DefaultClientUploadConcurrency)
	v.SetDefault("client.user_agent", AppName+"/"+AppVersion)

	v.SetDefault("client.breaker.enabled", true)
	v.SetDefault("client.breaker.failure_rate", DefaultCBFailureRate)
	v.SetDefault("client.breaker.min_requests", 5)
	v.SetDefault("client.breaker.interval_seconds", DefaultCBIntervalSeconds)
	v.SetDefault("client.breaker.timeout_seconds", DefaultCBTimeoutSeconds)
	v.SetDefault("client.breaker.max_requests_in_half", 1)
}
