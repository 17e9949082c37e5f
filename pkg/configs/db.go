package configs

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// DBType 元数据库驱动名.
type DBType string

const (
	Postgres DBType = "postgres"
	MySQL    DBType = "mysql"
	SQLite   DBType = "sqlite"
)

// dbAliases 配置中接受的驱动别名.
var dbAliases = map[DBType]DBType{
	"postgresql": Postgres,
	"pg":         Postgres,
	"mariadb":    MySQL,
	"sqlite3":    SQLite,
}

const (
	DefaultDBType         = SQLite
	DefaultDBPath         = "data/kitvault.db"
	DefaultDBName         = "kitvault"
	DefaultDBMaxIdleConns = 5
	DefaultDBMaxLifetime  = 30 * time.Minute
	DefaultDBSlowQuery    = 200 * time.Millisecond
)

// DBConfig 构建包元数据库配置.
// DSN 非空时直接使用，否则按 Type 由各字段拼出.
// MaxOpenConns 为 0 表示不限制，sqlite 下为 0 时只用一个连接.
type DBConfig struct {
	Type            DBType        `mapstructure:"type"              rule:"required"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"              rule:"omitempty,hostname|ip"`
	Port            int           `mapstructure:"port"              rule:"min=0,max=65535"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"           rule:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    rule:"min=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    rule:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowQuery       time.Duration `mapstructure:"slow_query"`
}

// Driver 返回归一化后的驱动名.
func (c *DBConfig) Driver() DBType {
	if t, ok := dbAliases[c.Type]; ok {
		return t
	}

	return c.Type
}

// ConnString 返回驱动使用的连接串，未知驱动返回空串.
func (c *DBConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}

	switch c.Driver() {
	case Postgres:
		port := c.Port
		if port == 0 {
			port = 5432
		}

		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, port, c.User, c.Password, c.Database, orDefault(c.SSLMode, "disable"))
	case MySQL:
		port := c.Port
		if port == 0 {
			port = 3306
		}

		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, port, c.Database)
	case SQLite:
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", orDefault(c.Path, DefaultDBPath))
	default:
		return ""
	}
}

// Target 返回适合写入日志的连接目标，不含凭据.
func (c *DBConfig) Target() string {
	if c.Driver() == SQLite {
		return orDefault(c.Path, DefaultDBPath)
	}

	if c.DSN != "" {
		if u, err := url.Parse(c.DSN); err == nil && u.Host != "" {
			return u.Host + u.Path
		}

		return "dsn"
	}

	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Database)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return v
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", DefaultDBType)
	v.SetDefault("db.path", DefaultDBPath)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.database", DefaultDBName)
	v.SetDefault("db.max_idle_conns", DefaultDBMaxIdleConns)
	v.SetDefault("db.conn_max_lifetime", DefaultDBMaxLifetime)
	v.SetDefault("db.slow_query", DefaultDBSlowQuery)
}
