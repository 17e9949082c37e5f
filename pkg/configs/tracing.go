package configs

import (
	"time"

	"github.com/spf13/viper"
)

// TracingConfig OpenTelemetry 追踪配置.
// 导入客户端与导入接口共用同一份配置，trace 通过 traceparent 头串联.
type TracingConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	ServiceName    string            `mapstructure:"service_name"    rule:"required_if=Enabled true"`
	ServiceVersion string            `mapstructure:"service_version"`
	ExporterType   string            `mapstructure:"exporter_type"   rule:"oneof=otlp-http otlp-grpc zipkin"`
	Endpoint       string            `mapstructure:"endpoint"        rule:"required_if=Enabled true"`
	Insecure       bool              `mapstructure:"insecure"` // 仅 otlp-grpc，关闭 TLS
	Headers        map[string]string `mapstructure:"headers"`  // 导出请求附带的头，如鉴权 token
	SampleRate     float64           `mapstructure:"sample_rate"     rule:"min=0,max=1"`
	BatchTimeout   time.Duration     `mapstructure:"batch_timeout"`
	MaxBatchSize   int               `mapstructure:"max_batch_size"  rule:"min=0"`
	MaxQueueSize   int               `mapstructure:"max_queue_size"  rule:"min=0"`
	ResourceLabels map[string]string `mapstructure:"resource_labels"` // 附加资源属性，service.* 键会被忽略
}

func (c *TracingConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", AppName)
	v.SetDefault("tracing.service_version", AppVersion)
	v.SetDefault("tracing.exporter_type", "otlp-http")
	v.SetDefault("tracing.endpoint", "http://localhost:4318")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.batch_timeout", 5*time.Second)
	v.SetDefault("tracing.max_batch_size", 512)
	v.SetDefault("tracing.max_queue_size", 2048)
}
