// Package context 在 context.Context 上传递存储管理器、调度器与请求相关的日志字段，
// HTTP 处理链与后台任务都通过它取得依赖.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/kitvault/pkg/internal/storage"
	dbc "github.com/yeisme/kitvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/kitvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/kitvault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/kitvault/pkg/internal/storage/s3"
	"github.com/yeisme/kitvault/pkg/log"
	"github.com/yeisme/kitvault/pkg/scheduler"
)

type (
	managerKey   struct{}
	schedulerKey struct{}
)

func value[T any](ctx context.Context, key any) T {
	v, _ := ctx.Value(key).(T)
	return v
}

// WithStorageManager 将 Manager 存入 context.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, mgr)
}

// GetManager 取出 Manager，未注入时为 nil.
func GetManager(ctx context.Context) *storage.Manager {
	return value[*storage.Manager](ctx, managerKey{})
}

// WithScheduler 将调度器存入 context.
func WithScheduler(ctx context.Context, sched *scheduler.Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey{}, sched)
}

// GetScheduler 取出调度器，未启用时为 nil.
func GetScheduler(ctx context.Context) *scheduler.Scheduler {
	return value[*scheduler.Scheduler](ctx, schedulerKey{})
}

// GetS3Client 对象存储客户端.
func GetS3Client(ctx context.Context) *s3c.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetS3Client()
	}

	return nil
}

// GetDBClient 元数据库客户端.
func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

// GetMQClient 事件总线客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// GetKVClient 构建包缓存使用的 KV 客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// WithTraceContext 为 logger 附加当前 span 的 trace_id 与 span_id.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return logger
	}

	return logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
}

// Logger 返回带 component 与追踪字段的 logger.
func Logger(ctx context.Context, component string) zerolog.Logger {
	return WithTraceContext(ctx, log.Component(component))
}
