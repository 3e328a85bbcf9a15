package repository

import (
	"context"

	"github.com/bitfantasy/ppwr/internal/packaging/entity"
	"gorm.io/gorm"
)

type PackagingRepository struct {
	db *gorm.DB
}

func NewPackagingRepository(db *gorm.DB) *PackagingRepository {
	return &PackagingRepository{db: db}
}

// List 获取全部包装项（按创建时间降序，含组件和文档）
func (r *PackagingRepository) List(ctx context.Context) ([]entity.PackagingItem, error) {
	var items []entity.PackagingItem
	err := r.db.WithContext(ctx).
		Preload("Components", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找包装项
func (r *PackagingRepository) FindByID(ctx context.Context, id string) (*entity.PackagingItem, error) {
	var item entity.PackagingItem
	err := r.db.WithContext(ctx).
		Preload("Components", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// Exists 包装项是否存在
func (r *PackagingRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.PackagingItem{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// CreateWithComponents 在同一事务中创建包装项及其组件
func (r *PackagingRepository) CreateWithComponents(ctx context.Context, item *entity.PackagingItem, components []entity.PackagingComponent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Components", "Documents").Create(item).Error; err != nil {
			return err
		}
		for i := range components {
			components[i].PackagingItemID = item.ID
		}
		if len(components) > 0 {
			if err := tx.Create(&components).Error; err != nil {
				return err
			}
		}
		item.Components = components
		return nil
	})
}

// ReplaceComponents 在同一事务中更新包装项字段并整体替换组件
// 包装项不存在时返回 ErrNotFound，文档不受影响
func (r *PackagingRepository) ReplaceComponents(ctx context.Context, item *entity.PackagingItem, components []entity.PackagingComponent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.PackagingItem
		if err := tx.Select("id", "created_at").First(&existing, "id = ?", item.ID).Error; err != nil {
			return translate(err)
		}

		if err := tx.Where("packaging_item_id = ?", item.ID).Delete(&entity.PackagingComponent{}).Error; err != nil {
			return err
		}

		err := tx.Model(&entity.PackagingItem{}).
			Where("id = ?", item.ID).
			Updates(map[string]interface{}{
				"name":          item.Name,
				"internal_code": item.InternalCode,
				"materials":     item.Materials,
				"status":        item.Status,
				"weight":        item.Weight,
				"ppwr_level":    item.PPWRLevel,
				"updated_at":    item.UpdatedAt,
			}).Error
		if err != nil {
			return err
		}

		for i := range components {
			components[i].PackagingItemID = item.ID
		}
		if len(components) > 0 {
			if err := tx.Create(&components).Error; err != nil {
				return err
			}
		}
		item.CreatedAt = existing.CreatedAt
		item.Components = components
		return nil
	})
}

// Delete 在同一事务中删除组件和包装项
func (r *PackagingRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("packaging_item_id = ?", id).Delete(&entity.PackagingComponent{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.PackagingItem{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CountComponents 统计组件数量
func (r *PackagingRepository) CountComponents(ctx context.Context, itemID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.PackagingComponent{}).
		Where("packaging_item_id = ?", itemID).
		Count(&count).Error
	return count, err
}
