package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/yeisme/kitvault/pkg/configs"
)

// errServerStatus 标记 5xx 响应，只用于熔断计数.
var errServerStatus = errors.New("server error status")

// NewBreakerSettings 按配置构建熔断器参数，服务端中间件与导入客户端共用.
func NewBreakerSettings(name string, cfg configs.CircuitBreakerConfig) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			// 失败比例
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
	}
}

// CircuitBreakerMiddleware 基于 gobreaker 的简单熔断，5xx 计为失败.
func CircuitBreakerMiddleware(cfg configs.CircuitBreakerConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	cb := gobreaker.NewCircuitBreaker(NewBreakerSettings("import-api", cfg))

	return func(c *gin.Context) {
		_, err := cb.Execute(func() (any, error) {
			c.Next()

			if c.Writer.Status() >= http.StatusInternalServerError {
				return nil, errServerStatus
			}

			return nil, nil
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
			return
		}
	}
}
