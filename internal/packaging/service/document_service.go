package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/ppwr/internal/packaging/entity"
	"github.com/bitfantasy/ppwr/internal/packaging/repository"
	"github.com/bitfantasy/ppwr/internal/shared/apperr"
	"github.com/bitfantasy/ppwr/internal/shared/filestore"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxDocumentSize 合规文档大小上限（3MB）
const MaxDocumentSize int64 = 3 * 1024 * 1024

// DocumentConstraints 合规文档上传约束
var DocumentConstraints = filestore.Constraints{
	MaxSizeBytes:     MaxDocumentSize,
	AllowedMimeTypes: []string{"application/pdf"},
}

// UploadDocumentRequest 上传文档表单字段
type UploadDocumentRequest struct {
	Type string `form:"type" binding:"required,oneof=CONFORMITY_DECLARATION TECHNICAL_DOCUMENTATION"`
	Name string `form:"name"`
}

// UploadedFile 上传的文件内容
type UploadedFile struct {
	Name     string
	MimeType string
	Data     []byte
}

type DocumentService struct {
	docRepo  *repository.DocumentRepository
	itemRepo *repository.PackagingRepository
	store    filestore.Store
	cache    *ItemCache
	log      *zap.Logger
}

func NewDocumentService(docRepo *repository.DocumentRepository, itemRepo *repository.PackagingRepository, store filestore.Store, cache *ItemCache, log *zap.Logger) *DocumentService {
	return &DocumentService{
		docRepo:  docRepo,
		itemRepo: itemRepo,
		store:    store,
		cache:    cache,
		log:      log,
	}
}

// Upload 保存文件并创建文档记录，文件保存失败时不创建记录
func (s *DocumentService) Upload(ctx context.Context, itemID string, req *UploadDocumentRequest, file *UploadedFile) (*entity.PackagingDocument, error) {
	if req == nil || !entity.IsValidDocumentType(req.Type) {
		return nil, apperr.Validation("type must be one of [CONFORMITY_DECLARATION TECHNICAL_DOCUMENTATION]")
	}
	if file == nil {
		return nil, apperr.Validation("No file uploaded")
	}

	exists, err := s.itemRepo.Exists(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("find packaging item: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound(msgItemNotFound)
	}

	handle, err := s.store.Store(ctx, file.Data, file.MimeType, file.Name, DocumentConstraints)
	if err != nil {
		switch {
		case errors.Is(err, filestore.ErrSizeExceeded):
			return nil, apperr.Validation("File size exceeds the 3MB limit")
		case errors.Is(err, filestore.ErrUnsupportedType):
			return nil, apperr.Validation("Only PDF files are allowed")
		}
		return nil, apperr.Storage("Failed to store file", err)
	}

	name := req.Name
	if name == "" {
		name = file.Name
	}
	now := time.Now()
	doc := &entity.PackagingDocument{
		ID:              uuid.New().String(),
		PackagingItemID: itemID,
		Type:            req.Type,
		Name:            name,
		StoragePath:     handle.StoragePath,
		FileSize:        handle.Size,
		MimeType:        handle.MimeType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		// 记录未落库，回收已保存的文件
		if delErr := s.store.Delete(ctx, handle.StoragePath); delErr != nil {
			s.log.Error("failed to remove orphan file",
				zap.String("path", handle.StoragePath),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.cache.Invalidate(ctx)

	doc.FileURL = s.store.URLFor(handle.Filename)
	return doc, nil
}

// Delete 删除文件和文档记录，文件删除失败时保留记录并返回错误
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Document not found")
		}
		return fmt.Errorf("find document: %w", err)
	}

	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return apperr.Storage("Failed to delete document file", err)
	}

	if err := s.docRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.cache.Invalidate(ctx)
	return nil
}
