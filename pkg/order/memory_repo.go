// 文件: pkg/order/memory_repo.go
// 订单内存存储实现 (测试/本地模拟用)

package order

import (
	"context"
	"sort"
	"sync"
	"time"
)

// 确保实现了接口
var _ OrderRepository = (*MemoryOrderRepository)(nil)

type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[int64]Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[int64]Order)}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[order.ID] = *order
	return nil
}

func (r *MemoryOrderRepository) GetByID(_ context.Context, orderID int64) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, orderID int64, from, to OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok || order.Status != from {
		return false, nil
	}

	order.Status = to
	order.UpdatedAt = time.Now().UnixMilli()
	r.orders[orderID] = order
	return true, nil
}

func (r *MemoryOrderRepository) ListByPortfolioAndStatus(_ context.Context, portfolioID string, status OrderStatus) ([]*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*Order
	for _, order := range r.orders {
		if order.PortfolioID == portfolioID && order.Status == status {
			o := order
			orders = append(orders, &o)
		}
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt > orders[j].CreatedAt
	})
	return orders, nil
}
