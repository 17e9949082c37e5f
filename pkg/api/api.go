// Package api 组装导入接口的 gin 引擎：中间件栈与全部路由.
package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/router"
	"github.com/yeisme/kitvault/pkg/internal/storage"
	"github.com/yeisme/kitvault/pkg/metrics"
	"github.com/yeisme/kitvault/pkg/middleware"
	"github.com/yeisme/kitvault/pkg/scheduler"
)

// NewEngine 创建挂载了中间件与路由的引擎，mgr 与 sched 可以为 nil.
func NewEngine(cfg *configs.AppConfig, mgr *storage.Manager, sched *scheduler.Scheduler) *gin.Engine {
	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
		middleware.InjectMiddleware(mgr, sched),
	)

	metrics.Mount(cfg.Metrics, engine)

	// groupcache 对等节点取值
	if mgr != nil && mgr.KV != nil {
		if h, ok := mgr.KV.PeerHandler(); ok {
			engine.Any("/_groupcache/*path", gin.WrapH(h))
		}
	}

	return RegisterGroup(engine)
}

// RegisterGroup 注册全部路由组到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine) *gin.Engine {
	return router.Register(e)
}
