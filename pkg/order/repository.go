// 文件: pkg/order/repository.go

package order

import "context"

// OrderRepository 订单存储
type OrderRepository interface {
	// Create 创建订单
	Create(ctx context.Context, order *Order) error

	// GetByID 查询订单，不存在返回 (nil, nil)
	GetByID(ctx context.Context, orderID int64) (*Order, error)

	// UpdateStatus 状态 CAS 更新: 仅当当前状态为 from 时置为 to
	// 返回是否更新成功
	UpdateStatus(ctx context.Context, orderID int64, from, to OrderStatus) (bool, error)

	// ListByPortfolioAndStatus 按组合和状态查询
	ListByPortfolioAndStatus(ctx context.Context, portfolioID string, status OrderStatus) ([]*Order, error)
}
