package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStore 本地目录存储
type LocalStore struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
}

// NewLocalStore dir 为文件目录，urlPrefix 为静态访问前缀（如 /uploads/packaging）
func NewLocalStore(fs afero.Fs, dir, urlPrefix string) (*LocalStore, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if _, ok := fs.(*afero.OsFs); ok {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, &StorageError{Op: "init", Path: dir, Err: err}
		}
		dir = abs
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "init", Path: dir, Err: err}
	}
	return &LocalStore{fs: fs, dir: dir, urlPrefix: urlPrefix}, nil
}

func (s *LocalStore) Store(ctx context.Context, data []byte, mimeType, originalName string, c Constraints) (*FileHandle, error) {
	if err := c.Check(int64(len(data)), mimeType); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filename := GenerateFilename(originalName)
	path := filepath.Join(s.dir, filename)

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &StorageError{Op: "create", Path: path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		s.fs.Remove(path)
		return nil, &StorageError{Op: "write", Path: path, Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		s.fs.Remove(path)
		return nil, &StorageError{Op: "sync", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(path)
		return nil, &StorageError{Op: "close", Path: path, Err: err}
	}

	return &FileHandle{
		Filename:     filename,
		StoragePath:  path,
		Size:         int64(len(data)),
		MimeType:     mimeType,
		OriginalName: originalName,
	}, nil
}

func (s *LocalStore) Delete(ctx context.Context, storagePath string) error {
	if err := s.fs.Remove(storagePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &StorageError{Op: "delete", Path: storagePath, Err: err}
	}
	return nil
}

func (s *LocalStore) URLFor(filename string) string {
	return joinURL(s.urlPrefix, filename)
}

// Dir 存储目录
func (s *LocalStore) Dir() string {
	return s.dir
}
