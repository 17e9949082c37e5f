//go:build !no_mysql

package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/kitvault/pkg/configs"
)

func init() {
	RegisterDialect(configs.MySQL, func(dsn string) gorm.Dialector {
		return mysql.New(mysql.Config{DSN: dsn, DefaultStringSize: 512})
	})
}
