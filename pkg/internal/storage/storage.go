// Package storage 聚合构建包导入服务使用的存储资源：对象存储、数据库、消息队列与 KV 缓存.
//
// Example:
//
//	mgr, err := storage.Init(ctx, configs.GetConfig(), &model.Kit{}, &model.KitContent{})
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close()
//
//	s3Client := mgr.GetS3Client()
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/kitvault/pkg/configs"
	dbc "github.com/yeisme/kitvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/kitvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/kitvault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/kitvault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/kitvault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	S3 *s3c.Client
	DB *dbc.Client
	MQ *mqc.Client // 事件未启用时为 nil
	KV *kvc.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 初始化默认存储，重复调用只返回已初始化实例.
// models 为需要自动迁移的 gorm 模型.
func Init(ctx context.Context, cfg *configs.AppConfig, models ...any) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = open(ctx, cfg, models...)
	})

	return mgr, mgrErr
}

func open(ctx context.Context, cfg *configs.AppConfig, models ...any) (*Manager, error) {
	m := &Manager{}

	dbi, err := dbc.New(ctx, &cfg.DB, models...)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	m.DB = dbi

	s3i, err := s3c.New(ctx, &cfg.S3)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init s3: %w", err)
	}

	m.S3 = s3i

	kvi, err := kvc.Open(ctx, &cfg.KV)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init kv: %w", err)
	}

	m.KV = kvi

	if cfg.Events.Enabled {
		mqi, err := mqc.Open(ctx, &cfg.MQ)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init mq: %w", err)
		}

		m.MQ = mqi
	}

	nlog.Logger().Info().
		Bool("events", m.MQ != nil).
		Str("kv", cfg.KV.Type).
		Msg("storage manager initialized")

	return m, nil
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// Close 释放所有已打开的资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
