package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultImportMaxFiles    = 200               // 单次预签名请求的最大文件数
	DefaultImportMaxFileSize = 512 * 1024 * 1024 // 单个文件最大字节数
	DefaultImportKeyPrefix   = "kits"            // 对象键前缀
)

// ImportConfig 导入接口（服务端）配置.
type ImportConfig struct {
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"    rule:"min=1m,max=168h"`
	StreamURLExpiry time.Duration `mapstructure:"stream_url_expiry" rule:"min=1m,max=168h"`
	MaxFiles        int           `mapstructure:"max_files"         rule:"min=1"`
	MaxFileSize     int64         `mapstructure:"max_file_size"     rule:"min=1"`
	KeyPrefix       string        `mapstructure:"key_prefix"        rule:"required"`
	// CacheTTL 构建包读取缓存时长，0 表示不缓存.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func (c *ImportConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("import.presign_expiry", "15m")
	v.SetDefault("import.stream_url_expiry", "1h")
	v.SetDefault("import.max_files", DefaultImportMaxFiles)
	v.SetDefault("import.max_file_size", DefaultImportMaxFileSize)
	v.SetDefault("import.key_prefix", DefaultImportKeyPrefix)
	v.SetDefault("import.cache_ttl", "30s")
}
