// Package middleware 提供导入接口使用的 gin 中间件.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/kitvault/pkg/metrics"
)

// PrometheusMiddleware 记录请求数、耗时与活跃连接数.
// endpoint 标签使用路由模板（如 /import/constructionKit/:kitId），避免 ID 造成标签爆炸.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		method := c.Request.Method
		metrics.RequestCounter.WithLabelValues(method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}
