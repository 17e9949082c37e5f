package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/kitvault/pkg/configs"
)

type row struct {
	ID   uint
	Name string `gorm:"size:64"`
}

func TestRegisteredDriversIncludeSQLite(t *testing.T) {
	assert.Contains(t, GetRegisteredDBTypes(), configs.SQLite)
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), &configs.DBConfig{Type: "duckdb"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not compiled in")
}

func TestNewSQLiteCreatesDirAndMigrates(t *testing.T) {
	ctx := context.Background()
	cfg := &configs.DBConfig{
		Type: "sqlite3",
		Path: filepath.Join(t.TempDir(), "nested", "kits.db"),
	}

	client, err := New(ctx, cfg, &row{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(ctx))

	sqlDB, err := client.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, client.WithContext(ctx).Create(&row{Name: "808"}).Error)

	var got row
	require.NoError(t, client.WithContext(ctx).First(&got).Error)
	assert.Equal(t, "808", got.Name)
}

func TestNewSQLiteKeepsExplicitPool(t *testing.T) {
	ctx := context.Background()
	cfg := &configs.DBConfig{
		Type:         configs.SQLite,
		Path:         filepath.Join(t.TempDir(), "kits.db"),
		MaxOpenConns: 4,
	}

	client, err := New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 4, sqlDB.Stats().MaxOpenConnections)
}
