package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/kitvault/pkg/context"
	"github.com/yeisme/kitvault/pkg/internal/storage"
	"github.com/yeisme/kitvault/pkg/scheduler"
)

// InjectMiddleware 将存储管理器与调度器放入请求 context，为 nil 的依赖不注入.
// 服务与处理器通过 pkg/context 读取.
func InjectMiddleware(mgr *storage.Manager, sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if mgr != nil {
			ctx = ctxPkg.WithStorageManager(ctx, mgr)
		}

		if sched != nil {
			ctx = ctxPkg.WithScheduler(ctx, sched)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
