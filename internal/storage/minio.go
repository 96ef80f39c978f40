package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resumeStudio/internal/config"
	"resumeStudio/internal/export"
)

// ExportPrefix 是导出产物在 Bucket 中的目录。
const ExportPrefix = "exports/"

// Client 封装 MinIO 客户端，用于保存导出的简历并生成下载链接。
// 上传走内部地址，预签名链接使用公开地址签名。
type Client struct {
	internal *minio.Client
	public   *minio.Client
	bucket   string
}

// NewClient 根据配置初始化 MinIO 客户端，并确保目标 Bucket 存在。
func NewClient(ctx context.Context, cfg config.MinIOConfig) (*Client, error) {
	lookup, err := bucketLookup(cfg.BucketLookup)
	if err != nil {
		return nil, err
	}
	creds := credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")

	internal, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        creds,
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("init internal minio client: %w", err)
	}

	public := internal
	if cfg.PublicEndpoint != "" {
		u, err := url.Parse(cfg.PublicEndpoint)
		if err != nil {
			return nil, fmt.Errorf("parse minio public endpoint: %w", err)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("invalid minio public endpoint, host missing")
		}
		public, err = minio.New(u.Host, &minio.Options{
			Creds:        creds,
			Secure:       u.Scheme == "https",
			Region:       cfg.Region,
			BucketLookup: lookup,
		})
		if err != nil {
			return nil, fmt.Errorf("init public minio client: %w", err)
		}
	}

	c := &Client{internal: internal, public: public, bucket: cfg.Bucket}
	if err := c.ensureBucket(ctx, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func bucketLookup(s string) (minio.BucketLookupType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return minio.BucketLookupAuto, nil
	case "dns":
		return minio.BucketLookupDNS, nil
	case "path":
		return minio.BucketLookupPath, nil
	}
	return minio.BucketLookupAuto, fmt.Errorf("invalid minio bucket lookup %q", s)
}

func (c *Client) ensureBucket(ctx context.Context, cfg config.MinIOConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := c.internal.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if !cfg.AutoCreateBucket {
		return fmt.Errorf("bucket %q does not exist (auto create disabled)", c.bucket)
	}
	if err := c.internal.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		return fmt.Errorf("make bucket %q: %w", c.bucket, err)
	}
	return nil
}

// UploadFile 上传任意对象。
func (c *Client) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error) {
	info, err := c.internal.PutObject(ctx, c.bucket, objectName, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", objectName, err)
	}
	return &info, nil
}

// GeneratePresignedURLWithParams 生成带自定义响应参数（如 response-content-disposition）的限时下载链接。
func (c *Client) GeneratePresignedURLWithParams(ctx context.Context, objectKey string, ttl time.Duration, params map[string]string) (string, error) {
	var v url.Values
	if len(params) > 0 {
		v = url.Values{}
		for k, val := range params {
			v.Set(k, val)
		}
	}
	u, err := c.public.PresignedGetObject(ctx, c.bucket, objectKey, ttl, v)
	if err != nil {
		return "", fmt.Errorf("generate presigned url for %q: %w", objectKey, err)
	}
	return u.String(), nil
}

// Uploader 是保存导出产物所需的最小能力，测试中可替换。
type Uploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURLWithParams(ctx context.Context, objectKey string, ttl time.Duration, params map[string]string) (string, error)
}

// Artifact 描述已上传的导出产物。
type Artifact struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
}

// PublishExport 上传导出产物并返回以原文件名下载的限时链接。
func PublishExport(ctx context.Context, up Uploader, dl *export.Download, ttl time.Duration) (*Artifact, error) {
	key := path.Join(ExportPrefix, uuid.NewString(), dl.Filename)
	if _, err := up.UploadFile(ctx, key, bytes.NewReader(dl.Data), int64(len(dl.Data)), dl.ContentType); err != nil {
		return nil, err
	}

	link, err := up.GeneratePresignedURLWithParams(ctx, key, ttl, map[string]string{
		"response-content-disposition": fmt.Sprintf("attachment; filename=%q", dl.Filename),
	})
	if err != nil {
		return nil, err
	}
	return &Artifact{ObjectKey: key, URL: link}, nil
}
