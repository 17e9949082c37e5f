// Package configs 管理应用程序配置，包括数据库、对象存储、队列以及导入客户端的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing the ingest client config:
//
//	cfg := configs.GetConfig().Client
//	fmt.Println(cfg.BaseURL, cfg.GetTimeoutDuration())
//
// Example accessing the import API limits:
//
//	cfg := configs.GetConfig().Import
//	fmt.Println(cfg.MaxFiles, cfg.PresignExpiry)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/kitvault/pkg/rule"
)

// AppName 应用名称，用于对象存储 AppInfo、追踪服务名等.
const AppName = "kitvault"

// AppVersion 应用版本，构建时可通过 -ldflags "-X" 覆盖.
var AppVersion = "0.1.0"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 数据库配置
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 键值存储配置
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器端口、调试模式等
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 追踪配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 服务端熔断
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件发布开关
		Client         ClientConfig         `mapstructure:"client"`          // ClientConfig 导入客户端配置
		Jobs           JobsConfig           `mapstructure:"jobs"`            // JobsConfig 定时任务配置
		Import         ImportConfig         `mapstructure:"import"`          // ImportConfig 导入接口限制
	}
)

var (
	current  atomic.Pointer[AppConfig]
	fallback AppConfig
	appViper *viper.Viper

	hooksMu sync.Mutex
	hooks   []func(*AppConfig)
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 目录下没有配置文件时使用默认值与环境变量.
func InitConfig(path string) error {
	appViper = viper.New()
	setAllDefaults(appViper)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，Viper 会根据扩展名检测类型
		appViper.SetConfigFile(path)
	} else {
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix("KITVAULT")
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := load(appViper); err != nil {
		return err
	}

	watch(appViper, GetConfig().Server.ReloadConfig)

	return nil
}

// load 解析并校验配置，校验失败时保留当前配置.
func load(v *viper.Viper) error {
	cfg := new(AppConfig)
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	current.Store(cfg)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	defaults := []interface{ setDefaults(*viper.Viper) }{
		&ServerConfig{},
		&DBConfig{},
		&S3Config{},
		&MQConfig{},
		&KVConfig{},
		&LogConfig{},
		&MetricsConfig{},
		&TracingConfig{},
		&RateLimitConfig{},
		&CircuitBreakerConfig{},
		&EventsConfig{},
		&ClientConfig{},
		&JobsConfig{},
		&ImportConfig{},
	}

	for _, d := range defaults {
		d.setDefaults(v)
	}
}

// watch 监听配置文件，变更通过校验后替换当前配置并依次调用 OnReload 注册的回调.
func watch(v *viper.Viper, enabled bool) {
	if !enabled || v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := load(v); err != nil {
			fmt.Fprintf(os.Stderr, "config %s not reloaded: %v\n", e.Name, err)
			return
		}

		cfg := GetConfig()

		hooksMu.Lock()
		defer hooksMu.Unlock()

		for _, fn := range hooks {
			fn(cfg)
		}
	})
	v.WatchConfig()
}

// OnReload 注册配置热重载后的回调，只在新配置通过校验后调用.
// 端口、存储连接等启动期参数不会因重载而改变，回调只应处理日志级别这类可在线调整的项.
func OnReload(fn func(*AppConfig)) {
	hooksMu.Lock()
	defer hooksMu.Unlock()

	hooks = append(hooks, fn)
}

// GetConfig 返回当前配置，InitConfig 之前为零值配置.
func GetConfig() *AppConfig {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}

	return &fallback
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}

// Defaults 返回只包含默认值的配置，便于测试与未加载配置文件的命令使用.
func Defaults() AppConfig {
	v := viper.New()
	setAllDefaults(v)

	var cfg AppConfig

	_ = v.Unmarshal(&cfg)

	return cfg
}
