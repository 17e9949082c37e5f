// Package router 管理路由配置，将处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/handle"
	"github.com/yeisme/kitvault/pkg/middleware"
)

// Register 注册全部路由：
//
//	{server.base_path}/... 导入接口，默认 /import
//	/api/v1/health/...     存储健康检查
//	/api/v1/scheduler/...  定时任务管理（需要 scheduler 中间件）
//	/swagger/*any          调试模式下的接口文档
func Register(e *gin.Engine) *gin.Engine {
	base := configs.GetConfig().Server.BasePath
	if base == "" {
		base = configs.DefaultBasePath
	}

	RegisterImportRoutes(e.Group(base, middleware.ETagMiddleware()))

	v1 := e.Group("/api/v1")
	RegisterHealthCheckRoute(v1)
	RegisterSchedulerRoutes(v1)

	RegisterSwaggerRoute(e)

	e.NoRoute(handle.NoRoute)

	return e
}
