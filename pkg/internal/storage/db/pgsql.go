//go:build !no_postgres

package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/kitvault/pkg/configs"
)

func init() {
	RegisterDialect(configs.Postgres, func(dsn string) gorm.Dialector {
		return postgres.New(postgres.Config{DSN: dsn})
	})
}
