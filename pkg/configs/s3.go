package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// S3Config MinIO S3存储配置.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"          rule:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"       rule:"required"`
	Region          string `mapstructure:"region"`
	// PublicURL 对外可访问的对象地址前缀，为空时使用 endpoint/bucket.
	PublicURL string `mapstructure:"public_url"`
}

const (
	DefaultS3Endpoint        = "localhost:9000" // 默认S3端点
	DefaultS3AccessKeyID     = "minioadmin"     // 默认访问密钥ID
	DefaultS3SecretAccessKey = "minioadmin"     // 默认秘密访问密钥
	DefaultS3UseSSL          = false            // 默认是否使用SSL
	DefaultS3BucketName      = "kitvault"       // 默认存储桶名称
	DefaultS3Region          = "us-east-1"      // 默认区域
)

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// ObjectURL 返回对象的永久地址（不带签名）.
func (c *S3Config) ObjectURL(key string) string {
	if c.PublicURL != "" {
		return fmt.Sprintf("%s/%s", c.PublicURL, key)
	}

	return fmt.Sprintf("%s/%s/%s", c.GetEndpointURL(), c.BucketName, key)
}

// setDefaults 设置 S3 配置的默认值.
func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("s3.bucket_name", DefaultS3BucketName)
	v.SetDefault("s3.region", DefaultS3Region)
	v.SetDefault("s3.public_url", "")
}
