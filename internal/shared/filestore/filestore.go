// Package filestore 保存上传文件并返回可访问的定位信息。
package filestore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrSizeExceeded    = errors.New("file size exceeds the allowed limit")
	ErrUnsupportedType = errors.New("file type is not allowed")
)

// StorageError 底层存储操作失败
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("filestore %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Constraints 上传约束
type Constraints struct {
	MaxSizeBytes     int64
	AllowedMimeTypes []string
}

// Check 先校验大小再校验类型
func (c Constraints) Check(size int64, mimeType string) error {
	if c.MaxSizeBytes > 0 && size > c.MaxSizeBytes {
		return ErrSizeExceeded
	}
	if len(c.AllowedMimeTypes) == 0 {
		return nil
	}
	for _, allowed := range c.AllowedMimeTypes {
		if strings.EqualFold(allowed, mimeType) {
			return nil
		}
	}
	return ErrUnsupportedType
}

// FileHandle 已保存文件的描述
type FileHandle struct {
	Filename     string
	StoragePath  string
	Size         int64
	MimeType     string
	OriginalName string
}

// Store 文件存储
type Store interface {
	// Store 校验约束后持久化内容，返回前数据已落盘
	Store(ctx context.Context, data []byte, mimeType, originalName string, c Constraints) (*FileHandle, error)
	// Delete 删除文件，目标不存在视为成功
	Delete(ctx context.Context, storagePath string) error
	// URLFor 文件名到公开地址的映射，不做 I/O
	URLFor(filename string) string
}

// GenerateFilename 随机 UUID 加原始扩展名
func GenerateFilename(originalName string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(originalName))
}

func joinURL(prefix, name string) string {
	return strings.TrimRight(prefix, "/") + "/" + name
}
