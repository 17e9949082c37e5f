package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ctxPkg "github.com/yeisme/kitvault/pkg/context"
	"github.com/yeisme/kitvault/pkg/internal/types"
	"github.com/yeisme/kitvault/pkg/scheduler"
)

// JobsResponse 任务列表.
type JobsResponse struct {
	Jobs    []scheduler.JobInfo `json:"jobs"`
	Waiting int                 `json:"waiting"`
}

// requireScheduler 取出请求中的调度器，未启用时写 503.
func requireScheduler(c *gin.Context) (*scheduler.Scheduler, bool) {
	sched := ctxPkg.GetScheduler(c.Request.Context())
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: "scheduler not enabled"})
		return nil, false
	}

	return sched, true
}

// SchedulerJobs 列出后台任务及其最近一次运行记录.
//
//	@Summary	后台任务列表
//	@Tags		调度器
//	@Produce	json
//	@Success	200	{object}	JobsResponse
//	@Failure	503	{object}	types.ErrorResponse
//	@Router		/api/v1/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched, ok := requireScheduler(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, JobsResponse{Jobs: sched.GetJobInfos(), Waiting: sched.JobsWaitingInQueue()})
}

// SchedulerStopJobs 暂停全部任务的调度，正在运行的任务不受影响.
//
//	@Summary	暂停后台任务
//	@Tags		调度器
//	@Success	204
//	@Failure	503	{object}	types.ErrorResponse
//	@Router		/api/v1/scheduler/jobs/stop [post]
func SchedulerStopJobs(c *gin.Context) {
	sched, ok := requireScheduler(c)
	if !ok {
		return
	}

	if err := sched.StopJobs(); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// SchedulerRemoveJob 移除任务.
//
//	@Summary	移除后台任务
//	@Tags		调度器
//	@Param		id	path	string	true	"任务 ID"
//	@Success	204
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/v1/scheduler/jobs/{id} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	withJob(c, http.StatusNoContent, (*scheduler.Scheduler).RemoveJob)
}

// SchedulerRunJob 立即执行一次任务，如手动清理过期草稿.
//
//	@Summary	立即执行后台任务
//	@Tags		调度器
//	@Param		id	path	string	true	"任务 ID"
//	@Success	202
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/v1/scheduler/jobs/{id}/run [post]
func SchedulerRunJob(c *gin.Context) {
	withJob(c, http.StatusAccepted, (*scheduler.Scheduler).RunNow)
}

// withJob 解析路径中的任务 ID 并执行 action.
func withJob(c *gin.Context, okStatus int, action func(*scheduler.Scheduler, uuid.UUID) error) {
	sched, ok := requireScheduler(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid job id"})
		return
	}

	if err := action(sched, id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scheduler.ErrJobNotFound) {
			status = http.StatusNotFound
		}

		c.JSON(status, types.ErrorResponse{Error: err.Error()})

		return
	}

	c.Status(okStatus)
}
