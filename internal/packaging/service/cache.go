package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/bitfantasy/ppwr/internal/packaging/entity"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheKeyGeneration = "ppwr:packaging:gen"
	cacheKeyPrefix     = "ppwr:packaging:"
)

// noGeneration 缓存不可用，读写均跳过
const noGeneration int64 = -1

// ItemCache 包装项读缓存，rdb 为 nil 时所有操作为空操作
// 缓存故障只记录日志，不影响请求
//
// 缓存键带代号：读取方在查库前取当前代号并按该代号回填，
// 任何变更提交后递增代号，晚于变更完成的旧数据回填只会落在已废弃的代号下
type ItemCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewItemCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *ItemCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ItemCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *ItemCache) enabled() bool {
	return c != nil && c.rdb != nil
}

// Generation 当前缓存代号，缓存未启用或不可达时返回 noGeneration
func (c *ItemCache) Generation(ctx context.Context) int64 {
	if !c.enabled() {
		return noGeneration
	}
	gen, err := c.rdb.Get(ctx, cacheKeyGeneration).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		c.log.Warn("cache generation read failed", zap.Error(err))
		return noGeneration
	}
	return gen
}

func (c *ItemCache) GetList(ctx context.Context, gen int64) ([]entity.PackagingItem, bool) {
	var items []entity.PackagingItem
	if !c.get(ctx, listKey(gen), &items) {
		return nil, false
	}
	return items, true
}

func (c *ItemCache) SetList(ctx context.Context, gen int64, items []entity.PackagingItem) {
	c.set(ctx, listKey(gen), items)
}

func (c *ItemCache) GetItem(ctx context.Context, gen int64, id string) (*entity.PackagingItem, bool) {
	var item entity.PackagingItem
	if !c.get(ctx, itemKey(gen, id), &item) {
		return nil, false
	}
	return &item, true
}

func (c *ItemCache) SetItem(ctx context.Context, gen int64, item *entity.PackagingItem) {
	c.set(ctx, itemKey(gen, item.ID), item)
}

// Invalidate 在变更提交后调用，递增代号使所有已缓存的列表和详情失效
func (c *ItemCache) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Incr(ctx, cacheKeyGeneration).Err(); err != nil {
		c.log.Warn("cache invalidate failed", zap.Error(err))
	}
}

func listKey(gen int64) string {
	if gen < 0 {
		return ""
	}
	return cacheKeyPrefix + strconv.FormatInt(gen, 10) + ":list"
}

func itemKey(gen int64, id string) string {
	if gen < 0 {
		return ""
	}
	return cacheKeyPrefix + strconv.FormatInt(gen, 10) + ":item:" + id
}

func (c *ItemCache) get(ctx context.Context, key string, dst interface{}) bool {
	if !c.enabled() || key == "" {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *ItemCache) set(ctx context.Context, key string, v interface{}) {
	if !c.enabled() || key == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
