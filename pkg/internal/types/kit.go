// Package types 定义导入接口的请求与响应结构，服务端处理器与导入客户端共用.
package types

// KitStatus 构建包状态.
type KitStatus string

const (
	KitStatusDraft KitStatus = "draft" // 已创建，尚未写入带默认 Full Loop 的内容
	KitStatusReady KitStatus = "ready" // 已写入内容并选定默认 Full Loop
)

// CreateKitRequest 创建草稿构建包.
type CreateKitRequest struct {
	Name string `json:"name" rule:"required,max=255"`
}

// CreateKitResponse 创建结果.
type CreateKitResponse struct {
	ID string `json:"id"`
}

// KitContent GET 构建包返回的单条内容.
// contentType 为分类，soundGroup/subGroup 为分组与 subtype.
type KitContent struct {
	ID          string `json:"id"`
	ContentType string `json:"contentType"`
	ContentName string `json:"contentName"`
	SoundGroup  string `json:"soundGroup"`
	SubGroup    string `json:"subGroup"`
	StreamURL   string `json:"streamUrl,omitempty"`
}

// KitResponse GET /import/constructionKit/{kitId} 响应.
type KitResponse struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Status            KitStatus    `json:"status"`
	Contents          []KitContent `json:"contents"`
	DefaultFullLoopID string       `json:"defaultFullLoopId"`
}

// UpdateContentRequest PUT /import/constructionKit/content/{contentId}.
type UpdateContentRequest struct {
	Category string `json:"category" rule:"required,kit_category"`
	Type     string `json:"type"     rule:"max=255"`
}

// PresignFile 申请上传地址的单个文件.
type PresignFile struct {
	Filename    string `json:"filename"    rule:"required,max=255,kit_filename"`
	ContentType string `json:"contentType" rule:"max=255"`
	// Size 可选，声明的文件大小（字节），用于服务端限制
	Size int64 `json:"size,omitempty" rule:"min=0"`
}

// PresignRequest POST /import/upload/{kitId}.
type PresignRequest struct {
	Files []PresignFile `json:"files" rule:"required,min=1,dive"`
}

// PresignedUpload 单个文件的上传描述.
type PresignedUpload struct {
	PresignedURL string `json:"presignedUrl"`
	Key          string `json:"key"`
	URL          string `json:"url"`
	Filename     string `json:"filename"`
}

// PresignResponse 上传描述列表，顺序与请求一致.
type PresignResponse struct {
	Uploads []PresignedUpload `json:"uploads"`
}

// NewContentFile 新文件的元数据.
// ContentType 为客户端判定类型时使用的 MIME，服务端据此复核文件类型.
type NewContentFile struct {
	FileName    string `json:"fileName"              rule:"required,max=255,kit_filename"`
	ContentType string `json:"contentType,omitempty" rule:"max=255"`
	Category    string `json:"category"              rule:"required,kit_category"`
	Type        string `json:"type"                  rule:"max=255"`
	Key         string `json:"key"                   rule:"required,max=1024"`
	URL         string `json:"url"                   rule:"max=2048"`
}

// CreateContentsRequest POST /import/constructionKit/{kitId}.
type CreateContentsRequest struct {
	Files                   []NewContentFile `json:"files"                   rule:"required,min=1,dive"`
	DefaultFullLoopFileName string           `json:"defaultFullLoopFileName" rule:"max=255"`
}

// UpdateDefaultRequest PUT /import/constructionKit/{kitId}.
type UpdateDefaultRequest struct {
	DefaultFullLoopIdentifier string `json:"defaultFullLoopIdentifier" rule:"required"`
}

// ErrorResponse 错误响应.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}
