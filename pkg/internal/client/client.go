// Package client 导入接口的 HTTP 客户端，覆盖构建包的全部接口与对象存储直传.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sony/gobreaker"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/types"
	"github.com/yeisme/kitvault/pkg/middleware"
	"github.com/yeisme/kitvault/pkg/tracing"
)

// StatusError 接口返回了非 2xx 状态码.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// IsStatus err 是否为指定状态码的 StatusError.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Client 导入接口客户端，可并发使用.
type Client struct {
	baseURL   string
	userAgent string
	meta      *http.Client
	upload    *http.Client
	breaker   *gobreaker.CircuitBreaker
}

// Option 自定义 Client.
type Option func(*Client)

// WithHTTPClient 替换元数据请求使用的 http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.meta = h }
}

// WithUploadClient 替换二进制上传使用的 http.Client.
func WithUploadClient(h *http.Client) Option {
	return func(c *Client) { c.upload = h }
}

// New 按配置创建客户端；熔断器只包裹元数据请求.
func New(cfg configs.ClientConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		meta:      &http.Client{Timeout: cfg.GetTimeoutDuration()},
		upload:    &http.Client{Timeout: cfg.GetUploadTimeoutDuration()},
	}

	if cfg.Breaker.Enabled {
		settings := middleware.NewBreakerSettings(configs.AppName+"-client", cfg.Breaker)
		// 4xx 是调用方的问题，不计入熔断
		settings.IsSuccessful = func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < http.StatusInternalServerError
			}

			return err == nil
		}
		c.breaker = gobreaker.NewCircuitBreaker(settings)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL 接口根地址.
func (c *Client) BaseURL() string { return c.baseURL }

// CreateKit 创建草稿构建包并返回 ID.
func (c *Client) CreateKit(ctx context.Context, name string) (string, error) {
	var resp types.CreateKitResponse
	if err := c.call(ctx, http.MethodPost, "/constructionKit", types.CreateKitRequest{Name: name}, &resp); err != nil {
		return "", err
	}

	return resp.ID, nil
}

// GetKit 读取构建包的已有内容与默认 Full Loop.
func (c *Client) GetKit(ctx context.Context, kitID string) (*types.KitResponse, error) {
	var resp types.KitResponse
	if err := c.call(ctx, http.MethodGet, "/constructionKit/"+url.PathEscape(kitID), nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// UpdateContent 修改已有内容的分类与类型.
func (c *Client) UpdateContent(ctx context.Context, contentID string, req types.UpdateContentRequest) error {
	return c.call(ctx, http.MethodPut, "/constructionKit/content/"+url.PathEscape(contentID), req, nil)
}

// Presign 为新文件申请上传地址，返回顺序与请求一致.
func (c *Client) Presign(ctx context.Context, kitID string, files []types.PresignFile) ([]types.PresignedUpload, error) {
	var resp types.PresignResponse
	if err := c.call(ctx, http.MethodPost, "/upload/"+url.PathEscape(kitID), types.PresignRequest{Files: files}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Uploads) != len(files) {
		return nil, fmt.Errorf("presign returned %d uploads for %d files", len(resp.Uploads), len(files))
	}

	return resp.Uploads, nil
}

// CreateContents 写入新文件元数据与默认 Full Loop 文件名.
func (c *Client) CreateContents(ctx context.Context, kitID string, req types.CreateContentsRequest) error {
	return c.call(ctx, http.MethodPost, "/constructionKit/"+url.PathEscape(kitID), req, nil)
}

// UpdateDefault 按内容 ID 设置默认 Full Loop.
func (c *Client) UpdateDefault(ctx context.Context, kitID, contentID string) error {
	return c.call(ctx, http.MethodPut, "/constructionKit/"+url.PathEscape(kitID),
		types.UpdateDefaultRequest{DefaultFullLoopIdentifier: contentID}, nil)
}

// DeleteKit 丢弃构建包.
func (c *Client) DeleteKit(ctx context.Context, kitID string) error {
	return c.call(ctx, http.MethodDelete, "/constructionKit/"+url.PathEscape(kitID), nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	if c.breaker == nil {
		return c.do(ctx, method, path, body, out)
	}

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.do(ctx, method, path, body, out)
	})

	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader

	if body != nil {
		b, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}

		rd = bytes.NewReader(b)
	}

	target := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	tracing.Inject(ctx, req.Header)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.meta.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(method, target, resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}

	return nil
}

func statusError(method, target string, code int, body []byte) *StatusError {
	se := &StatusError{Method: method, URL: target, StatusCode: code}

	var er types.ErrorResponse
	if err := sonic.Unmarshal(body, &er); err == nil && er.Error != "" {
		se.Message = er.Error
	} else {
		se.Message = strings.TrimSpace(string(body))
	}

	return se
}
