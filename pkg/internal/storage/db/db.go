// Package db 打开构建包元数据库，驱动按构建标签注册.
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/log"
)

// Dialect 由连接串构造 gorm dialector.
type Dialect func(dsn string) gorm.Dialector

var (
	dialectsMu sync.RWMutex
	dialects   = map[configs.DBType]Dialect{}
)

// RegisterDialect 登记驱动，同名覆盖.
func RegisterDialect(t configs.DBType, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()

	dialects[t] = d
}

// GetRegisteredDBTypes 返回已编译进来的驱动，按名称排序.
func GetRegisteredDBTypes() []configs.DBType {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()

	types := make([]configs.DBType, 0, len(dialects))
	for t := range dialects {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

// Client 包装 gorm.DB.
type Client struct {
	*gorm.DB
}

type options struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	slowQuery   time.Duration
	logger      zerolog.Logger
}

// Option 调整连接池与慢查询日志.
type Option func(*options)

// WithPool 设置连接池大小，0 表示不限制.
func WithPool(maxOpen, maxIdle int) Option {
	return func(o *options) {
		o.maxOpen = maxOpen
		o.maxIdle = maxIdle
	}
}

// WithMaxLifetime 设置连接最长存活时间.
func WithMaxLifetime(d time.Duration) Option {
	return func(o *options) { o.maxLifetime = d }
}

// WithSlowQuery 超过阈值的 SQL 以 warn 级别记录，0 关闭.
func WithSlowQuery(d time.Duration) Option {
	return func(o *options) { o.slowQuery = d }
}

// New 按配置选择驱动并连接，随后迁移 models.
func New(ctx context.Context, cfg *configs.DBConfig, models ...any) (*Client, error) {
	driver := cfg.Driver()

	dialectsMu.RLock()
	dialect, ok := dialects[driver]
	dialectsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("db driver %q not compiled in (have %v)", cfg.Type, GetRegisteredDBTypes())
	}

	maxOpen := cfg.MaxOpenConns

	if driver == configs.SQLite {
		if cfg.DSN == "" {
			if err := os.MkdirAll(filepath.Dir(cfg.Target()), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}

		// sqlite 同一时刻只允许一个写事务，单连接让并发事务在连接池中排队.
		if maxOpen == 0 {
			maxOpen = 1
		}
	}

	dsn := cfg.ConnString()
	if dsn == "" {
		return nil, fmt.Errorf("db driver %q: empty connection string", driver)
	}

	client, err := Open(ctx, dialect(dsn),
		WithPool(maxOpen, cfg.MaxIdleConns),
		WithMaxLifetime(cfg.ConnMaxLifetime),
		WithSlowQuery(cfg.SlowQuery),
	)
	if err != nil {
		return nil, err
	}

	if configs.GetConfig().Metrics.Enabled {
		if err := client.Use(gormPrometheus.New(gormPrometheus.Config{
			DBName:          configs.AppName,
			RefreshInterval: 15,
		})); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("register gorm metrics: %w", err)
		}
	}

	if err := client.Migrate(ctx, models...); err != nil {
		_ = client.Close()
		return nil, err
	}

	l := log.Component("db")
	l.Info().
		Str("driver", string(driver)).
		Str("target", cfg.Target()).
		Int("models", len(models)).
		Msg("metadata store ready")

	return client, nil
}

// Open 用给定 dialector 建立连接并 ping 一次，测试中可直接传入内存 sqlite.
func Open(ctx context.Context, dialector gorm.Dialector, opts ...Option) (*Client, error) {
	o := options{maxIdle: configs.DefaultDBMaxIdleConns, logger: log.Component("db")}
	for _, opt := range opts {
		opt(&o)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(&o.logger, logger.Config{
			SlowThreshold:             o.slowQuery,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB.SetMaxOpenConns(o.maxOpen)
	sqlDB.SetMaxIdleConns(o.maxIdle)
	sqlDB.SetConnMaxLifetime(o.maxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &Client{DB: gdb}, nil
}

// Migrate 自动迁移给定模型.
func (c *Client) Migrate(ctx context.Context, models ...any) error {
	if len(models) == 0 {
		return nil
	}

	if err := c.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}

// GetDB 返回 gorm.DB.
func (c *Client) GetDB() *gorm.DB {
	return c.DB
}

// Ping 供健康检查使用.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Close 关闭连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
