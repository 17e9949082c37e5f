package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/kitvault/pkg/internal/handle"
)

// RegisterSchedulerRoutes 后台任务管理接口.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	jobs := g.Group("/scheduler/jobs")

	jobs.GET("", handle.SchedulerJobs)
	jobs.POST("/stop", handle.SchedulerStopJobs)
	jobs.DELETE("/:id", handle.SchedulerRemoveJob)
	jobs.POST("/:id/run", handle.SchedulerRunJob)
}
