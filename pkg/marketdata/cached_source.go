// 文件: pkg/marketdata/cached_source.go
// 价格 Redis 缓存层
//
// 【设计模式】装饰器模式 (Decorator Pattern)
// - 包装底层 PriceSource，透明添加缓存能力
// - 调用方只看到 PriceSource 接口
//
// 【缓存策略】
// - 读: 先查 Redis，miss 则查底层并回填
// - 价格带 TTL，过期后重新取

package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	// 缓存 Key: marketdata:price:{instrumentID}
	cacheKeyPrice = "marketdata:price:%s"

	// 价格缓存过期时间
	priceCacheTTL = 30 * time.Second
)

// 确保实现了接口
var _ PriceSource = (*CachedSource)(nil)

// CachedSource Redis 缓存装饰器
type CachedSource struct {
	source PriceSource // 被装饰的底层价格源
	redis  *redis.Client
	ttl    time.Duration
}

// NewCachedSource 创建带缓存的价格源
//
// 用法:
//
//	static := NewStaticSource()
//	cached := NewCachedSource(static, redisClient)
func NewCachedSource(source PriceSource, rds *redis.Client) *CachedSource {
	return &CachedSource{
		source: source,
		redis:  rds,
		ttl:    priceCacheTTL,
	}
}

// NewCachedSourceTTL 创建带缓存的价格源 (自定义 TTL)
func NewCachedSourceTTL(source PriceSource, rds *redis.Client, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		redis:  rds,
		ttl:    ttl,
	}
}

// GetPrice 查价 (带缓存)
func (s *CachedSource) GetPrice(ctx context.Context, instrumentID string) (decimal.Decimal, error) {
	cacheKey := fmt.Sprintf(cacheKeyPrice, instrumentID)

	// 1. 查缓存
	data, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if price, perr := decimal.NewFromString(data); perr == nil {
			return price, nil // Cache hit
		}
	}

	// 2. Cache miss，查底层
	price, err := s.source.GetPrice(ctx, instrumentID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	// 3. 回填缓存 (异步，不阻塞主流程)
	go s.redis.Set(context.Background(), cacheKey, price.String(), s.ttl)

	return price, nil
}
