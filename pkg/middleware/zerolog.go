package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	ctxPkg "github.com/yeisme/kitvault/pkg/context"
	"github.com/yeisme/kitvault/pkg/log"
)

// GinLoggerMiddleware 使用 zerolog 记录请求日志，4xx 为 warn，5xx 为 error.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		logger := ctxPkg.WithTraceContext(c.Request.Context(), log.Component("http"))

		var event *zerolog.Event

		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		default:
			event = logger.Info()
		}

		event = event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Str("client_ip", c.ClientIP())

		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("HTTP request")
	}
}
