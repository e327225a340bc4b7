// 文件: pkg/order/mysql_repo.go
// 订单 MySQL 存储实现 (GORM)

package order

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"mono.com/pkg/store"
)

// 确保实现了接口
var _ OrderRepository = (*MySQLOrderRepository)(nil)

type MySQLOrderRepository struct {
	db *gorm.DB
}

func NewMySQLOrderRepository(db *gorm.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (r *MySQLOrderRepository) Create(ctx context.Context, order *Order) error {
	return store.DBFrom(ctx, r.db).WithContext(ctx).Create(order).Error
}

func (r *MySQLOrderRepository) GetByID(ctx context.Context, orderID int64) (*Order, error) {
	var order Order
	err := store.DBFrom(ctx, r.db).WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus 状态 CAS 更新
// WHERE 带上 from 状态，保证终态不可再变更
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to OrderStatus) (bool, error) {
	result := store.DBFrom(ctx, r.db).WithContext(ctx).
		Model(&Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UnixMilli(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *MySQLOrderRepository) ListByPortfolioAndStatus(ctx context.Context, portfolioID string, status OrderStatus) ([]*Order, error) {
	var orders []*Order
	err := store.DBFrom(ctx, r.db).WithContext(ctx).
		Where("portfolio_id = ? AND status = ?", portfolioID, status).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}
