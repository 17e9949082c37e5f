package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/kitvault/pkg/tracing"
)

// TracingMiddleware 为每个请求创建服务端 span，沿用请求头中的上游追踪上下文.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.FullPath()
		if name == "" {
			name = "http.request"
		}

		ctx := tracing.Extract(c.Request.Context(), c.Request.Header)

		ctx, span := tracing.StartSpan(ctx, c.Request.Method+" "+name,
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", name),
				attribute.String("http.host", c.Request.Host),
				attribute.String("http.path", c.Request.URL.Path),
				attribute.String("http.user_agent", c.Request.UserAgent()),
				attribute.String("http.remote_addr", c.ClientIP()),
			),
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))

		switch {
		case len(c.Errors) > 0:
			span.SetStatus(codes.Error, c.Errors.String())
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, http.StatusText(status))
		default:
			span.SetStatus(codes.Ok, "")
		}
	}
}
