package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/kitvault/pkg/internal/service"
	"github.com/yeisme/kitvault/pkg/internal/types"
	"github.com/yeisme/kitvault/pkg/kit"
	"github.com/yeisme/kitvault/pkg/log"
	"github.com/yeisme/kitvault/pkg/rule"
)

// KitServiceFactory 按请求构建导入服务，默认从请求 context 中的存储管理器构建.
var KitServiceFactory = func(c *gin.Context) *service.KitService {
	return service.NewKitService(c.Request.Context())
}

// bindJSON 解码请求体并执行 rule 校验，失败时直接写 400.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return false
	}

	if err := rule.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "validation failed", Details: rule.Errors(err)})

		return false
	}

	return true
}

// kitError 将服务错误映射为 HTTP 状态码.
func kitError(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrKitNotFound), errors.Is(err, service.ErrContentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateContent):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidContent),
		errors.Is(err, service.ErrTooManyFiles),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrDefaultNotFound),
		errors.Is(err, service.ErrDefaultRequired),
		errors.Is(err, kit.ErrNotFullLoop):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}

	l := log.Logger()
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Msg(msg)
	} else {
		l.Warn().Err(err).Msg(msg)
	}

	c.JSON(status, types.ErrorResponse{Error: err.Error()})
}

// CreateKit 创建草稿构建包.
//
//	@Summary		创建构建包
//	@Description	创建一个草稿状态的构建包，返回其 ID
//	@Tags			构建包
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.CreateKitRequest	true	"构建包名称"
//	@Success		201		{object}	types.CreateKitResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Router			/import/constructionKit [post]
func CreateKit(c *gin.Context) {
	var req types.CreateKitRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := KitServiceFactory(c).CreateKit(c.Request.Context(), req.Name)
	if err != nil {
		kitError(c, err, "failed to create kit")
		return
	}

	c.JSON(http.StatusCreated, types.CreateKitResponse{ID: id})
}

// GetKit 返回构建包内容与默认 Full Loop.
//
//	@Summary		获取构建包
//	@Description	返回构建包的全部内容，每条内容附带限时播放地址
//	@Tags			构建包
//	@Produce		json
//	@Param			kitId	path		string	true	"构建包 ID"
//	@Success		200		{object}	types.KitResponse
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/import/constructionKit/{kitId} [get]
func GetKit(c *gin.Context) {
	resp, err := KitServiceFactory(c).GetKit(c.Request.Context(), c.Param("kitId"))
	if err != nil {
		kitError(c, err, "failed to load kit")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateContent 修改已有内容的分类与类型.
//
//	@Summary		更新内容分类
//	@Tags			构建包
//	@Accept			json
//	@Produce		json
//	@Param			contentId	path		string						true	"内容 ID"
//	@Param			body		body		types.UpdateContentRequest	true	"分类与类型"
//	@Success		200			{object}	map[string]string
//	@Failure		400			{object}	types.ErrorResponse
//	@Failure		404			{object}	types.ErrorResponse
//	@Router			/import/constructionKit/content/{contentId} [put]
func UpdateContent(c *gin.Context) {
	var req types.UpdateContentRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := KitServiceFactory(c).UpdateContent(c.Request.Context(), c.Param("contentId"), req); err != nil {
		kitError(c, err, "failed to update content")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "content updated"})
}

// PresignUploads 为新文件签发上传地址.
//
//	@Summary		申请上传地址
//	@Description	为每个文件签发一个限时 PUT 地址，客户端直接上传到对象存储
//	@Tags			构建包
//	@Accept			json
//	@Produce		json
//	@Param			kitId	path		string					true	"构建包 ID"
//	@Param			body	body		types.PresignRequest	true	"待上传文件"
//	@Success		200		{object}	types.PresignResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		409		{object}	types.ErrorResponse
//	@Router			/import/upload/{kitId} [post]
func PresignUploads(c *gin.Context) {
	var req types.PresignRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := KitServiceFactory(c).PresignUploads(c.Request.Context(), c.Param("kitId"), req)
	if err != nil {
		kitError(c, err, "failed to presign uploads")
		return
	}

	log.Logger().Info().Str("kit", c.Param("kitId")).Int("uploads", len(resp.Uploads)).Msg("presigned uploads")
	c.JSON(http.StatusOK, resp)
}

// CreateContents 写入已上传文件的元数据.
//
//	@Summary		写入内容元数据
//	@Tags			构建包
//	@Accept			json
//	@Produce		json
//	@Param			kitId	path		string						true	"构建包 ID"
//	@Param			body	body		types.CreateContentsRequest	true	"文件元数据与默认 Full Loop"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		409		{object}	types.ErrorResponse
//	@Router			/import/constructionKit/{kitId} [post]
func CreateContents(c *gin.Context) {
	var req types.CreateContentsRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := KitServiceFactory(c).CreateContents(c.Request.Context(), c.Param("kitId"), req); err != nil {
		kitError(c, err, "failed to create contents")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "contents created"})
}

// UpdateDefault 设置默认 Full Loop.
//
//	@Summary		设置默认 Full Loop
//	@Tags			构建包
//	@Accept			json
//	@Produce		json
//	@Param			kitId	path		string						true	"构建包 ID"
//	@Param			body	body		types.UpdateDefaultRequest	true	"默认 Full Loop 内容 ID"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	types.ErrorResponse
//	@Router			/import/constructionKit/{kitId} [put]
func UpdateDefault(c *gin.Context) {
	var req types.UpdateDefaultRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := KitServiceFactory(c).UpdateDefault(c.Request.Context(), c.Param("kitId"), req.DefaultFullLoopIdentifier); err != nil {
		kitError(c, err, "failed to update default")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "default updated"})
}

// DeleteKit 丢弃构建包及其全部对象.
//
//	@Summary		丢弃构建包
//	@Tags			构建包
//	@Produce		json
//	@Param			kitId	path		string	true	"构建包 ID"
//	@Success		200		{object}	map[string]string
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/import/constructionKit/{kitId} [delete]
func DeleteKit(c *gin.Context) {
	if err := KitServiceFactory(c).DeleteKit(c.Request.Context(), c.Param("kitId"), service.DiscardManual); err != nil {
		kitError(c, err, "failed to delete kit")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "kit discarded"})
}
