package repository

import (
	"context"

	"github.com/bitfantasy/ppwr/internal/packaging/entity"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// ListByItem 获取包装项的全部文档
func (r *DocumentRepository) ListByItem(ctx context.Context, itemID string) ([]entity.PackagingDocument, error) {
	var docs []entity.PackagingDocument
	err := r.db.WithContext(ctx).
		Where("packaging_item_id = ?", itemID).
		Order("created_at ASC").
		Find(&docs).Error
	return docs, err
}

// FindByID 根据ID查找文档
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.PackagingDocument, error) {
	var doc entity.PackagingDocument
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

// Create 创建文档记录
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.PackagingDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// Delete 删除文档记录
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.PackagingDocument{}, "id = ?", id).Error
}

// DeleteByItem 删除包装项的全部文档记录
func (r *DocumentRepository) DeleteByItem(ctx context.Context, itemID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("packaging_item_id = ?", itemID).
		Delete(&entity.PackagingDocument{})
	return res.RowsAffected, res.Error
}

