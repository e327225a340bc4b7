// 文件: pkg/inventory/mysql_repo.go
// 持仓账本 - MySQL 存储实现 (GORM)

package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mono.com/pkg/store"
)

// 确保实现了接口
var _ Repository = (*MySQLRepository)(nil)

// MySQLRepository MySQL 实现
type MySQLRepository struct {
	db *gorm.DB
}

// NewMySQLRepository 创建 MySQL 存储
func NewMySQLRepository(db *gorm.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// Get 查询持仓
func (r *MySQLRepository) Get(ctx context.Context, portfolioID, instrumentID string) (*Position, error) {
	var position Position
	err := store.DBFrom(ctx, r.db).WithContext(ctx).
		Where("portfolio_id = ? AND instrument_id = ?", portfolioID, instrumentID).
		First(&position).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// Save 保存持仓 (upsert 数量与均价)
func (r *MySQLRepository) Save(ctx context.Context, position *Position) error {
	return store.DBFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "portfolio_id"}, {Name: "instrument_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":      position.Quantity,
				"average_price": position.AveragePrice,
			}),
		}).
		Create(position).Error
}

// ListByPortfolio 查询组合的全部持仓
func (r *MySQLRepository) ListByPortfolio(ctx context.Context, portfolioID string) ([]*Position, error) {
	var positions []*Position
	err := store.DBFrom(ctx, r.db).WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("instrument_id ASC").
		Find(&positions).Error
	return positions, err
}
