package filestore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfOnly = Constraints{MaxSizeBytes: 3 * 1024 * 1024, AllowedMimeTypes: []string{"application/pdf"}}

func newMemStore(t *testing.T) (*LocalStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := NewLocalStore(fs, "/uploads/packaging", "/uploads/packaging")
	require.NoError(t, err)
	return s, fs
}

func TestLocalStoreStore(t *testing.T) {
	s, fs := newMemStore(t)

	h, err := s.Store(context.Background(), []byte("%PDF-1.4"), "application/pdf", "Declaration.PDF", pdfOnly)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(h.Filename, ".pdf"))
	assert.Len(t, strings.TrimSuffix(h.Filename, ".pdf"), 36)
	assert.Equal(t, filepath.Join("/uploads/packaging", h.Filename), h.StoragePath)
	assert.Equal(t, int64(8), h.Size)
	assert.Equal(t, "Declaration.PDF", h.OriginalName)

	data, err := afero.ReadFile(fs, h.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestLocalStoreUniqueNames(t *testing.T) {
	s, _ := newMemStore(t)
	a, err := s.Store(context.Background(), []byte("a"), "application/pdf", "same.pdf", pdfOnly)
	require.NoError(t, err)
	b, err := s.Store(context.Background(), []byte("b"), "application/pdf", "same.pdf", pdfOnly)
	require.NoError(t, err)
	assert.NotEqual(t, a.Filename, b.Filename)
}

func TestLocalStoreSizeExceeded(t *testing.T) {
	s, fs := newMemStore(t)
	big := make([]byte, 3*1024*1024+1)

	_, err := s.Store(context.Background(), big, "application/pdf", "big.pdf", pdfOnly)
	assert.ErrorIs(t, err, ErrSizeExceeded)

	entries, _ := afero.ReadDir(fs, "/uploads/packaging")
	assert.Empty(t, entries)
}

func TestLocalStoreExactLimitAccepted(t *testing.T) {
	s, _ := newMemStore(t)
	exact := make([]byte, 3*1024*1024)
	_, err := s.Store(context.Background(), exact, "application/pdf", "exact.pdf", pdfOnly)
	assert.NoError(t, err)
}

func TestLocalStoreUnsupportedType(t *testing.T) {
	s, _ := newMemStore(t)
	_, err := s.Store(context.Background(), []byte("hello"), "text/plain", "notes.txt", pdfOnly)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestConstraintsCheckSizeBeforeType(t *testing.T) {
	c := Constraints{MaxSizeBytes: 2, AllowedMimeTypes: []string{"application/pdf"}}
	assert.ErrorIs(t, c.Check(3, "text/plain"), ErrSizeExceeded)
	assert.ErrorIs(t, c.Check(2, "text/plain"), ErrUnsupportedType)
	assert.NoError(t, c.Check(2, "application/pdf"))
}

func TestLocalStoreDeleteIdempotent(t *testing.T) {
	s, fs := newMemStore(t)
	h, err := s.Store(context.Background(), []byte("x"), "application/pdf", "a.pdf", pdfOnly)
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), h.StoragePath))
	exists, _ := afero.Exists(fs, h.StoragePath)
	assert.False(t, exists)

	assert.NoError(t, s.Delete(context.Background(), h.StoragePath))
}

func TestLocalStoreDeleteFailure(t *testing.T) {
	s, fs := newMemStore(t)
	h, err := s.Store(context.Background(), []byte("x"), "application/pdf", "a.pdf", pdfOnly)
	require.NoError(t, err)

	ro := &LocalStore{fs: afero.NewReadOnlyFs(fs), dir: s.Dir(), urlPrefix: "/uploads/packaging"}

	err = ro.Delete(context.Background(), h.StoragePath)
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "delete", se.Op)

	exists, _ := afero.Exists(fs, h.StoragePath)
	assert.True(t, exists)
}

func TestLocalStoreURLFor(t *testing.T) {
	s, _ := newMemStore(t)
	assert.Equal(t, "/uploads/packaging/abc.pdf", s.URLFor("abc.pdf"))
}

func TestMinIOStoreURLFor(t *testing.T) {
	s, err := NewMinIOStore(MinIOConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "ppwr",
		Prefix:    "packaging",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/ppwr/packaging/abc.pdf", s.URLFor("abc.pdf"))

	s2, err := NewMinIOStore(MinIOConfig{
		Endpoint:      "localhost:9000",
		Bucket:        "ppwr",
		PublicBaseURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/ppwr/abc.pdf", s2.URLFor("abc.pdf"))
}

func TestMinIOStoreRejectsBeforeUpload(t *testing.T) {
	s, err := NewMinIOStore(MinIOConfig{Endpoint: "localhost:9000", Bucket: "ppwr"})
	require.NoError(t, err)

	_, err = s.Store(context.Background(), []byte("x"), "image/png", "a.png", pdfOnly)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
