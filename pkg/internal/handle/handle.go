// Package handle 提供导入接口的 HTTP 处理器.
package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/kitvault/pkg/internal/types"
)

// NoRoute 未注册路由统一返回 JSON 404.
func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "route not found: " + c.Request.Method + " " + c.Request.URL.Path})
}
