package service

import (
	"path/filepath"

	"github.com/bitfantasy/ppwr/internal/config"
	"github.com/bitfantasy/ppwr/internal/packaging/entity"
	"github.com/bitfantasy/ppwr/internal/packaging/repository"
	"github.com/bitfantasy/ppwr/internal/shared/filestore"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Packaging *PackagingService
	Document  *DocumentService
	User      *UserService
}

// NewServices 创建服务集合，rdb 可为 nil（不启用缓存）
func NewServices(repos *repository.Repositories, store filestore.Store, rdb *redis.Client, cfg *config.Config, log *zap.Logger) *Services {
	cache := NewItemCache(rdb, cfg.Redis.CacheTTL, log.Named("cache"))
	return &Services{
		Packaging: NewPackagingService(repos.Packaging, repos.Document, store, cache, log.Named("packaging")),
		Document:  NewDocumentService(repos.Document, repos.Packaging, store, cache, log.Named("document")),
		User:      NewUserService(repos.User, NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expire)),
	}
}

// decorateItem 补齐空集合并为文档生成公开地址
func decorateItem(item *entity.PackagingItem, store filestore.Store) {
	if item.Materials == nil {
		item.Materials = []string{}
	}
	if item.Components == nil {
		item.Components = []entity.PackagingComponent{}
	}
	if item.Documents == nil {
		item.Documents = []entity.PackagingDocument{}
	}
	for i := range item.Documents {
		decorateDocument(&item.Documents[i], store)
	}
}

func decorateDocument(doc *entity.PackagingDocument, store filestore.Store) {
	if doc.StoragePath != "" {
		doc.FileURL = store.URLFor(filepath.Base(doc.StoragePath))
	}
}
