//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"

	"github.com/yeisme/kitvault/pkg/configs"
)

// 无 cgo 时使用纯 Go 的 modernc sqlite.
func init() {
	RegisterDialect(configs.SQLite, sqlite.Open)
}
