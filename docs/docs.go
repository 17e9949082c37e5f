// Package docs 导入接口的 Swagger 文档，结构与 swag init 生成的文件一致.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/import/constructionKit": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["构建包"],
                "summary": "创建构建包",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.CreateKitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.CreateKitResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/import/constructionKit/content/{contentId}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["构建包"],
                "summary": "更新内容分类",
                "parameters": [
                    {"type": "string", "name": "contentId", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.UpdateContentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/import/constructionKit/{kitId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["构建包"],
                "summary": "获取构建包",
                "parameters": [
                    {"type": "string", "name": "kitId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.KitResponse"}},
                    "304": {"description": "Not Modified"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["构建包"],
                "summary": "写入内容元数据",
                "parameters": [
                    {"type": "string", "name": "kitId", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.CreateContentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["构建包"],
                "summary": "设置默认 Full Loop",
                "parameters": [
                    {"type": "string", "name": "kitId", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.UpdateDefaultRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["构建包"],
                "summary": "丢弃构建包",
                "parameters": [
                    {"type": "string", "name": "kitId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/import/upload/{kitId}": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["构建包"],
                "summary": "申请上传地址",
                "parameters": [
                    {"type": "string", "name": "kitId", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.PresignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PresignResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["运维"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handle.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handle.HealthResponse"}}
                }
            }
        },
        "/api/v1/health/{component}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["运维"],
                "summary": "单个依赖健康检查",
                "parameters": [
                    {"type": "string", "description": "db | s3 | kv | mq", "name": "component", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handle.ComponentHealth"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handle.ComponentHealth"}}
                }
            }
        },
        "/api/v1/scheduler/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["调度器"],
                "summary": "后台任务列表",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handle.JobsResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/v1/scheduler/jobs/stop": {
            "post": {
                "tags": ["调度器"],
                "summary": "暂停后台任务",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/v1/scheduler/jobs/{id}": {
            "delete": {
                "tags": ["调度器"],
                "summary": "移除后台任务",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/v1/scheduler/jobs/{id}/run": {
            "post": {
                "tags": ["调度器"],
                "summary": "立即执行后台任务",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Accepted"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handle.ComponentHealth": {
            "type": "object",
            "properties": {
                "component": {"type": "string"},
                "status": {"type": "string"},
                "error": {"type": "string"},
                "latency_ms": {"type": "integer"}
            }
        },
        "handle.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "components": {"type": "array", "items": {"$ref": "#/definitions/handle.ComponentHealth"}}
            }
        },
        "handle.JobsResponse": {
            "type": "object",
            "properties": {
                "jobs": {"type": "array", "items": {"$ref": "#/definitions/scheduler.JobInfo"}},
                "waiting": {"type": "integer"}
            }
        },
        "scheduler.JobInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "cron_expr": {"type": "string"},
                "status": {"type": "string"},
                "next_run": {"type": "string"},
                "last_run": {"type": "string"},
                "last_success": {"type": "string"},
                "last_elapsed": {"type": "integer"},
                "runs": {"type": "integer"},
                "failures": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "types.CreateKitRequest": {
            "type": "object",
            "properties": {"name": {"type": "string"}}
        },
        "types.CreateKitResponse": {
            "type": "object",
            "properties": {"id": {"type": "string"}}
        },
        "types.KitContent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "contentType": {"type": "string"},
                "contentName": {"type": "string"},
                "soundGroup": {"type": "string"},
                "subGroup": {"type": "string"},
                "streamUrl": {"type": "string"}
            }
        },
        "types.KitResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "status": {"type": "string"},
                "contents": {"type": "array", "items": {"$ref": "#/definitions/types.KitContent"}},
                "defaultFullLoopId": {"type": "string"}
            }
        },
        "types.UpdateContentRequest": {
            "type": "object",
            "properties": {"category": {"type": "string"}, "type": {"type": "string"}}
        },
        "types.PresignFile": {
            "type": "object",
            "properties": {"filename": {"type": "string"}, "contentType": {"type": "string"}, "size": {"type": "integer"}}
        },
        "types.PresignRequest": {
            "type": "object",
            "properties": {"files": {"type": "array", "items": {"$ref": "#/definitions/types.PresignFile"}}}
        },
        "types.PresignedUpload": {
            "type": "object",
            "properties": {
                "presignedUrl": {"type": "string"},
                "key": {"type": "string"},
                "url": {"type": "string"},
                "filename": {"type": "string"}
            }
        },
        "types.PresignResponse": {
            "type": "object",
            "properties": {"uploads": {"type": "array", "items": {"$ref": "#/definitions/types.PresignedUpload"}}}
        },
        "types.NewContentFile": {
            "type": "object",
            "properties": {
                "fileName": {"type": "string"},
                "contentType": {"type": "string"},
                "category": {"type": "string"},
                "type": {"type": "string"},
                "key": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "types.CreateContentsRequest": {
            "type": "object",
            "properties": {
                "files": {"type": "array", "items": {"$ref": "#/definitions/types.NewContentFile"}},
                "defaultFullLoopFileName": {"type": "string"}
            }
        },
        "types.UpdateDefaultRequest": {
            "type": "object",
            "properties": {"defaultFullLoopIdentifier": {"type": "string"}}
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "kitvault import API",
	Description:      "Construction kit import API: presigned uploads, content metadata and default full loop.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
