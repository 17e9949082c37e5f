package configs

import (
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort     = 8080
	DefaultHost     = "0.0.0.0"
	DefaultBasePath = "/import" // 导入接口前缀
)

// ServerConfig 导入接口的 HTTP 服务配置.
type ServerConfig struct {
	Host              string        `mapstructure:"host"                rule:"ip"`
	Port              int           `mapstructure:"port"                rule:"min=1,max=65535"`
	BasePath          string        `mapstructure:"base_path"           rule:"omitempty,startswith=/"`
	Debug             bool          `mapstructure:"debug"`         // 调试模式：gin debug、swagger、调用方信息
	ReloadConfig      bool          `mapstructure:"reload_config"` // 监听配置文件变化
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" rule:"min=1s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"    rule:"min=1s"`
}

// Addr 监听地址.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.base_path", DefaultBasePath)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.reload_config", true)
	v.SetDefault("server.read_header_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}
