package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
)

// bodyCaptureWriter 缓冲响应体，由中间件决定最终写出 200 还是 304.
type bodyCaptureWriter struct {
	gin.ResponseWriter

	buf bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

// ETagMiddleware 为 GET/HEAD 的 200 响应计算 xxhash ETag，并处理 If-None-Match 条件请求.
// 其它方法直接透传.
func ETagMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Next()
			return
		}

		orig := c.Writer
		bw := &bodyCaptureWriter{ResponseWriter: orig}
		c.Writer = bw

		c.Next()

		c.Writer = orig

		if orig.Status() != http.StatusOK {
			_, _ = orig.Write(bw.buf.Bytes())
			return
		}

		etag := fmt.Sprintf("\"%x\"", xxhash.Sum64(bw.buf.Bytes()))
		orig.Header().Set("ETag", etag)

		if matchETag(c.GetHeader("If-None-Match"), etag) {
			orig.Header().Del("Content-Length")
			orig.WriteHeader(http.StatusNotModified)
			orig.WriteHeaderNow()

			return
		}

		_, _ = orig.Write(bw.buf.Bytes())
	}
}

// matchETag 检查 If-None-Match 是否包含 etag，支持逗号分隔列表与 *.
func matchETag(header, etag string) bool {
	if header == "" {
		return false
	}

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}

	return false
}
