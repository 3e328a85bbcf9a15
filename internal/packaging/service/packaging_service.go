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
	"gorm.io/datatypes"
)

const msgItemNotFound = "Packaging item not found"

// ComponentRequest 组件请求
type ComponentRequest struct {
	Name                 string `json:"name" binding:"required"`
	Format               string `json:"format" binding:"required"`
	Weight               string `json:"weight" binding:"required"`
	Volume               string `json:"volume" binding:"required"`
	PPWRCategory         string `json:"ppwrCategory" binding:"required"`
	PPWRLevel            string `json:"ppwrLevel" binding:"required"`
	Quantity             int    `json:"quantity" binding:"gt=0"`
	Supplier             string `json:"supplier" binding:"required"`
	ManufacturingProcess string `json:"manufacturingProcess" binding:"required"`
	Color                string `json:"color" binding:"required"`
}

// PackagingRequest 创建/更新包装项请求（更新为整体替换）
type PackagingRequest struct {
	Name         string             `json:"name" binding:"required"`
	InternalCode string             `json:"internalCode" binding:"required"`
	Materials    []string           `json:"materials" binding:"required,dive,required"`
	Status       string             `json:"status" binding:"omitempty,oneof=DRAFT ACTIVE INACTIVE DEACTIVATED"`
	Weight       string             `json:"weight" binding:"required"`
	PPWRLevel    string             `json:"ppwrLevel" binding:"required"`
	Components   []ComponentRequest `json:"components" binding:"omitempty,dive"`
}

type PackagingService struct {
	itemRepo *repository.PackagingRepository
	docRepo  *repository.DocumentRepository
	store    filestore.Store
	cache    *ItemCache
	log      *zap.Logger
}

func NewPackagingService(itemRepo *repository.PackagingRepository, docRepo *repository.DocumentRepository, store filestore.Store, cache *ItemCache, log *zap.Logger) *PackagingService {
	return &PackagingService{
		itemRepo: itemRepo,
		docRepo:  docRepo,
		store:    store,
		cache:    cache,
		log:      log,
	}
}

// List 全部包装项，新建在前
func (s *PackagingService) List(ctx context.Context) ([]entity.PackagingItem, error) {
	gen := s.cache.Generation(ctx)
	if items, ok := s.cache.GetList(ctx, gen); ok {
		return items, nil
	}

	items, err := s.itemRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packaging items: %w", err)
	}
	if items == nil {
		items = []entity.PackagingItem{}
	}
	for i := range items {
		decorateItem(&items[i], s.store)
	}
	s.cache.SetList(ctx, gen, items)
	return items, nil
}

// Get 获取包装项详情
func (s *PackagingService) Get(ctx context.Context, id string) (*entity.PackagingItem, error) {
	gen := s.cache.Generation(ctx)
	if item, ok := s.cache.GetItem(ctx, gen, id); ok {
		return item, nil
	}

	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(msgItemNotFound)
		}
		return nil, fmt.Errorf("find packaging item: %w", err)
	}
	decorateItem(item, s.store)
	s.cache.SetItem(ctx, gen, item)
	return item, nil
}

// Create 创建包装项及组件（单事务）
func (s *PackagingService) Create(ctx context.Context, req *PackagingRequest) (*entity.PackagingItem, error) {
	if err := validatePackagingRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	item := buildItem(uuid.New().String(), req, now)
	components := buildComponents(req.Components, now)

	if err := s.itemRepo.CreateWithComponents(ctx, item, components); err != nil {
		return nil, fmt.Errorf("create packaging item: %w", err)
	}
	s.cache.Invalidate(ctx)

	decorateItem(item, s.store)
	return item, nil
}

// Update 整体替换包装项字段和组件（单事务），文档保持不变
func (s *PackagingService) Update(ctx context.Context, id string, req *PackagingRequest) (*entity.PackagingItem, error) {
	if err := validatePackagingRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	item := buildItem(id, req, now)
	components := buildComponents(req.Components, now)

	if err := s.itemRepo.ReplaceComponents(ctx, item, components); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(msgItemNotFound)
		}
		return nil, fmt.Errorf("update packaging item: %w", err)
	}
	s.cache.Invalidate(ctx)

	updated, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload packaging item: %w", err)
	}
	decorateItem(updated, s.store)
	return updated, nil
}

// Delete 级联删除：文档文件（失败仅记录）-> 文档记录 -> 组件和包装项
func (s *PackagingService) Delete(ctx context.Context, id string) error {
	docs, err := s.docRepo.ListByItem(ctx, id)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	for _, doc := range docs {
		if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
			s.log.Error("failed to delete document file",
				zap.String("item_id", id),
				zap.String("document_id", doc.ID),
				zap.String("path", doc.StoragePath),
				zap.Error(err),
			)
		}
	}

	if _, err := s.docRepo.DeleteByItem(ctx, id); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}

	exists, err := s.itemRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("find packaging item: %w", err)
	}
	if !exists {
		return apperr.NotFound(msgItemNotFound)
	}

	if err := s.itemRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgItemNotFound)
		}
		return fmt.Errorf("delete packaging item: %w", err)
	}
	s.cache.Invalidate(ctx)
	return nil
}

func validatePackagingRequest(req *PackagingRequest) error {
	if req == nil {
		return apperr.Validation("Request body is required")
	}
	if req.Status != "" && !entity.IsValidPackagingStatus(req.Status) {
		return apperr.Validation("status must be one of [DRAFT ACTIVE INACTIVE DEACTIVATED]")
	}
	for i, c := range req.Components {
		if c.Quantity <= 0 {
			return apperr.Validation(fmt.Sprintf("components[%d].quantity must be greater than 0", i))
		}
	}
	return nil
}

func buildItem(id string, req *PackagingRequest, now time.Time) *entity.PackagingItem {
	status := req.Status
	if status == "" {
		status = entity.PackagingStatusDraft
	}
	materials := req.Materials
	if materials == nil {
		materials = []string{}
	}
	return &entity.PackagingItem{
		ID:           id,
		Name:         req.Name,
		InternalCode: req.InternalCode,
		Materials:    datatypes.JSONSlice[string](materials),
		Status:       status,
		Weight:       req.Weight,
		PPWRLevel:    req.PPWRLevel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func buildComponents(reqs []ComponentRequest, now time.Time) []entity.PackagingComponent {
	components := make([]entity.PackagingComponent, 0, len(reqs))
	for i, c := range reqs {
		// 保持请求中的组件顺序
		created := now.Add(time.Duration(i) * time.Microsecond)
		components = append(components, entity.PackagingComponent{
			ID:                   uuid.New().String(),
			Name:                 c.Name,
			Format:               c.Format,
			Weight:               c.Weight,
			Volume:               c.Volume,
			PPWRCategory:         c.PPWRCategory,
			PPWRLevel:            c.PPWRLevel,
			Quantity:             c.Quantity,
			Supplier:             c.Supplier,
			ManufacturingProcess: c.ManufacturingProcess,
			Color:                c.Color,
			CreatedAt:            created,
			UpdatedAt:            created,
		})
	}
	return components
}
