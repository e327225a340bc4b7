// 文件: pkg/inventory/repository.go

package inventory

import "context"

// Repository 持仓存储
type Repository interface {
	// Get 查询持仓，不存在返回 (nil, nil)
	Get(ctx context.Context, portfolioID, instrumentID string) (*Position, error)

	// Save 保存持仓 (存在则覆盖数量与均价)
	Save(ctx context.Context, position *Position) error

	// ListByPortfolio 查询组合的全部持仓
	ListByPortfolio(ctx context.Context, portfolioID string) ([]*Position, error)
}
