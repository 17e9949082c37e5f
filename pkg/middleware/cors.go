package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware 允许浏览器端导入界面跨域调用，并暴露 ETag 供条件请求使用.
func CORSMiddleware() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AddAllowHeaders("If-None-Match")
	config.AddExposeHeaders("ETag")

	return cors.New(config)
}
