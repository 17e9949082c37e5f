// Package s3 处理构建包音频、MIDI 与预设文件的对象存储操作.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/kitvault/pkg/configs"
	nlog "github.com/yeisme/kitvault/pkg/log"
)

// Client 包装 MinIO 客户端，并固定使用配置中的 bucket.
type Client struct {
	*minio.Client
	cfg configs.S3Config
}

// Connect 只构建 MinIO 客户端，不访问网络.
func Connect(cfg *configs.S3Config) (*Client, error) {
	c := *cfg
	endpoint := c.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			c.UseSSL = true
		}

		c.Endpoint = endpoint
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKeyID, c.SecretAccessKey, ""),
		Secure: c.UseSSL,
		Region: c.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	return &Client{Client: cli, cfg: c}, nil
}

// New 初始化 MinIO 客户端，若 bucket 不存在则尝试创建.
func New(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	c, err := Connect(cfg)
	if err != nil {
		return nil, err
	}

	if err := c.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	nlog.Logger().Info().Str("endpoint", c.cfg.Endpoint).Str("bucket", c.cfg.BucketName).Msg("s3 connected")

	return c, nil
}

// EnsureBucket 确保 bucket 存在.
func (c *Client) EnsureBucket(ctx context.Context) error {
	bkt := c.cfg.BucketName

	exists, err := c.BucketExists(ctx, bkt)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bkt, err)
	}

	if exists {
		return nil
	}

	if err := c.MakeBucket(ctx, bkt, minio.MakeBucketOptions{Region: c.cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bkt, err)
	}

	nlog.Logger().Info().Str("bucket", bkt).Msg("bucket created")

	return nil
}

// Bucket 返回当前使用的 bucket.
func (c *Client) Bucket() string {
	return c.cfg.BucketName
}

// PresignPut 为对象生成限时上传地址.
func (c *Client) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.PresignedPutObject(ctx, c.cfg.BucketName, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}

	return u.String(), nil
}

// PresignGet 为对象生成限时下载地址.
func (c *Client) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.PresignedGetObject(ctx, c.cfg.BucketName, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}

	return u.String(), nil
}

// ObjectURL 返回对象的永久地址.
func (c *Client) ObjectURL(key string) string {
	return c.cfg.ObjectURL(key)
}

// RemoveObjects 批量删除对象，汇总每个对象的删除错误.
func (c *Client) RemoveObjects(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- minio.ObjectInfo{Key: k}
	}

	close(objects)

	var errs []error
	for e := range c.Client.RemoveObjects(ctx, c.cfg.BucketName, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("remove %s: %w", e.ObjectName, e.Err))
	}

	return errors.Join(errs...)
}

// RemovePrefix 删除前缀下的全部对象，返回删除数量.
func (c *Client) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	var keys []string

	for obj := range c.ListObjects(ctx, c.cfg.BucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return 0, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}

		keys = append(keys, obj.Key)
	}

	if err := c.RemoveObjects(ctx, keys); err != nil {
		return 0, err
	}

	return len(keys), nil
}

// HealthCheck 通过检查 bucket 验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.BucketExists(ctx, c.cfg.BucketName)
	return err
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}
