package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/kitvault/pkg/internal/handle"
)

// RegisterHealthCheckRoute 健康检查：/health 汇总，/health/:component 单项.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	g.GET("/health", handle.Health)
	g.GET("/health/:component", handle.HealthComponent)
}
