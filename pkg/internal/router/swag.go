package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/kitvault/docs"
	"github.com/yeisme/kitvault/pkg/configs"
)

// RegisterSwaggerRoute 调试模式下挂载 /swagger 文档.
func RegisterSwaggerRoute(r *gin.Engine) {
	cfg := configs.GetConfig()
	if !cfg.Server.Debug {
		return
	}

	docs.SwaggerInfo.Host = cfg.Server.Addr()
	docs.SwaggerInfo.Version = configs.AppVersion

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
