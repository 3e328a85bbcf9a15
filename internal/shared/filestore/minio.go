package filestore

import (
	"bytes"
	"context"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig 对象存储配置
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	Prefix        string
	PublicBaseURL string
}

// MinIOStore 基于 MinIO/S3 的存储，StoragePath 为对象键
type MinIOStore struct {
	client  *minio.Client
	bucket  string
	prefix  string
	baseURL string
}

func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, &StorageError{Op: "init", Path: cfg.Endpoint, Err: err}
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		baseURL = scheme + cfg.Endpoint
	}

	return &MinIOStore{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		baseURL: baseURL,
	}, nil
}

// EnsureBucket 启动时确保 bucket 存在
func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return &StorageError{Op: "bucket", Path: s.bucket, Err: err}
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return &StorageError{Op: "bucket", Path: s.bucket, Err: err}
	}
	return nil
}

func (s *MinIOStore) Store(ctx context.Context, data []byte, mimeType, originalName string, c Constraints) (*FileHandle, error) {
	if err := c.Check(int64(len(data)), mimeType); err != nil {
		return nil, err
	}

	filename := GenerateFilename(originalName)
	key := s.objectKey(filename)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return nil, &StorageError{Op: "put", Path: key, Err: err}
	}

	return &FileHandle{
		Filename:     filename,
		StoragePath:  key,
		Size:         int64(len(data)),
		MimeType:     mimeType,
		OriginalName: originalName,
	}, nil
}

func (s *MinIOStore) Delete(ctx context.Context, storagePath string) error {
	err := s.client.RemoveObject(ctx, s.bucket, storagePath, minio.RemoveObjectOptions{})
	if err == nil {
		return nil
	}
	if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
		return nil
	}
	return &StorageError{Op: "delete", Path: storagePath, Err: err}
}

func (s *MinIOStore) URLFor(filename string) string {
	return joinURL(s.baseURL, path.Join(s.bucket, s.objectKey(filename)))
}

func (s *MinIOStore) objectKey(filename string) string {
	if s.prefix == "" {
		return filename
	}
	return path.Join(s.prefix, filename)
}
