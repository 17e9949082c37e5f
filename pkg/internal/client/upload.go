package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
)

// ProgressFunc 上传进度回调，sent 为已发送字节数，total 为总字节数（未知时 <= 0）.
type ProgressFunc func(sent, total int64)

// progressReader 统计已读字节并回调.
type progressReader struct {
	r     io.Reader
	total int64
	sent  atomic.Int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		sent := p.sent.Add(int64(n))
		if p.fn != nil {
			p.fn(sent, p.total)
		}
	}

	return n, err
}

// Upload 将 body 以二进制 PUT 直传到预签名地址，Content-Type 使用文件原始 MIME.
// size 必须为 body 的准确长度，对象存储要求 Content-Length.
func (c *Client) Upload(ctx context.Context, presignedURL, contentType string, body io.Reader, size int64, progress ProgressFunc) error {
	pr := &progressReader{r: body, total: size, fn: progress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, pr)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}

	req.ContentLength = size
	if size == 0 {
		req.Body = http.NoBody
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.upload.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(http.MethodPut, redact(presignedURL), resp.StatusCode, data)
	}

	if progress != nil && size == 0 {
		progress(0, 0)
	}

	return nil
}

// redact 去掉预签名地址中的签名参数，避免写入日志.
func redact(raw string) string {
	base, _, _ := strings.Cut(raw, "?")
	return base
}
