//go:build !no_sqlite && cgo

package db

import (
	"gorm.io/driver/sqlite"

	"github.com/yeisme/kitvault/pkg/configs"
)

// cgo 可用时使用 mattn/go-sqlite3.
func init() {
	RegisterDialect(configs.SQLite, sqlite.Open)
}
