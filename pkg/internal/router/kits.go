package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/kitvault/pkg/internal/handle"
)

// RegisterImportRoutes 注册构建包导入路由.
func RegisterImportRoutes(g *gin.RouterGroup) {
	kits := g.Group("/constructionKit")
	{
		kits.POST("", handle.CreateKit)

		// 修改已有内容的分类
		kits.PUT("/content/:contentId", handle.UpdateContent)

		single := kits.Group("/:kitId")
		{
			single.GET("", handle.GetKit)
			single.POST("", handle.CreateContents) // 写入新内容元数据
			single.PUT("", handle.UpdateDefault)   // 仅修改默认 Full Loop
			single.DELETE("", handle.DeleteKit)    // 丢弃构建包
		}
	}

	// 申请预签名上传地址
	g.POST("/upload/:kitId", handle.PresignUploads)
}
