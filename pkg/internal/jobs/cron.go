// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/kitvault/pkg/configs"
	ctxPkg "github.com/yeisme/kitvault/pkg/context"
	"github.com/yeisme/kitvault/pkg/internal/service"
	"github.com/yeisme/kitvault/pkg/internal/storage"
	"github.com/yeisme/kitvault/pkg/log"
	"github.com/yeisme/kitvault/pkg/scheduler"
)

// DraftPurger 丢弃过期草稿构建包，KitService 满足该接口.
type DraftPurger interface {
	PurgeStaleDrafts(ctx context.Context, ttl time.Duration) (int, error)
}

// RegisterCronJobs 配置业务定时任务：按 jobs.purge_drafts_cron 清理超过 jobs.draft_ttl 未完成的草稿构建包.
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, cfg configs.JobsConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if mgr == nil {
		return errors.New("storage manager is nil")
	}

	if !cfg.Enabled {
		return nil
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	return sched.AddCron(baseCtx, JobPurgeDrafts, cfg.PurgeDraftsCron, func(ctx context.Context) error {
		_, err := RunPurgeDrafts(ctx, service.NewKitService(ctx), cfg.DraftTTL)
		return err
	})
}

// RunPurgeDrafts 执行一次草稿清理. 部分失败时返回已清理的数量与错误.
func RunPurgeDrafts(ctx context.Context, p DraftPurger, ttl time.Duration) (int, error) {
	l := log.Component("jobs").With().Str("job", JobPurgeDrafts).Logger()

	n, err := p.PurgeStaleDrafts(ctx, ttl)
	if n > 0 {
		l.Info().Int("purged", n).Dur("ttl", ttl).Msg("purged stale draft kits")
	}

	return n, err
}
