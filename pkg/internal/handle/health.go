package handle

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	ctxPkg "github.com/yeisme/kitvault/pkg/context"
)

const healthTimeout = 2 * time.Second

var errNotConfigured = errors.New("not configured")

// ComponentHealth 单个依赖的检查结果.
type ComponentHealth struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// HealthResponse 全部依赖的检查结果，任一必需依赖失败时 Status 为 unhealthy.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components []ComponentHealth `json:"components"`
}

type probe struct {
	check    func(context.Context) error
	optional bool // 未配置时记为 disabled 而不是失败
}

// probes 从请求 context 中收集各依赖的检查函数.
func probes(ctx context.Context) map[string]probe {
	p := map[string]probe{
		"db": {}, "s3": {}, "kv": {},
		"mq": {optional: true},
	}

	if c := ctxPkg.GetDBClient(ctx); c != nil {
		p["db"] = probe{check: c.Ping}
	}

	if c := ctxPkg.GetS3Client(ctx); c != nil {
		p["s3"] = probe{check: c.HealthCheck}
	}

	if c := ctxPkg.GetKVClient(ctx); c != nil {
		p["kv"] = probe{check: c.Ping}
	}

	if c := ctxPkg.GetMQClient(ctx); c != nil {
		p["mq"] = probe{check: c.HealthCheck, optional: true}
	}

	return p
}

func runProbe(ctx context.Context, name string, p probe) ComponentHealth {
	h := ComponentHealth{Component: name, Status: "ok"}

	if p.check == nil {
		if p.optional {
			h.Status = "disabled"
			return h
		}

		h.Status, h.Error = "unhealthy", errNotConfigured.Error()

		return h
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	started := time.Now()
	err := p.check(ctx)
	h.LatencyMS = time.Since(started).Milliseconds()

	if err != nil {
		h.Status, h.Error = "unhealthy", err.Error()
	}

	return h
}

// Health 并发检查全部依赖.
//
//	@Summary	健康检查
//	@Tags		运维
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/api/v1/health [get]
func Health(c *gin.Context) {
	ctx := c.Request.Context()
	all := probes(ctx)

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}

	slices.Sort(names)

	results := make([]ComponentHealth, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			results[i] = runProbe(ctx, name, all[name])
			return nil
		})
	}

	_ = g.Wait()

	resp := HealthResponse{Status: "ok", Components: results}
	status := http.StatusOK

	for _, r := range results {
		if r.Status == "unhealthy" {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, resp)
}

// HealthComponent 检查单个依赖（db、s3、kv、mq）.
//
//	@Summary	单个依赖健康检查
//	@Tags		运维
//	@Produce	json
//	@Param		component	path		string	true	"db | s3 | kv | mq"
//	@Success	200			{object}	ComponentHealth
//	@Failure	503			{object}	ComponentHealth
//	@Router		/api/v1/health/{component} [get]
func HealthComponent(c *gin.Context) {
	name := c.Param("component")

	p, ok := probes(c.Request.Context())[name]
	if !ok {
		c.JSON(http.StatusNotFound, ComponentHealth{Component: name, Status: "unknown"})
		return
	}

	h := runProbe(c.Request.Context(), name, p)

	status := http.StatusOK
	if h.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, h)
}
