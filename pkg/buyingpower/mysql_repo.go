// 文件: pkg/buyingpower/mysql_repo.go
// 资金账本 - MySQL 存储实现 (GORM)
//
// 所有操作通过 store.DBFrom 取句柄，
// 从而透明加入 Service 层开启的事务

package buyingpower

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

// Get 查询账户
func (r *MySQLRepository) Get(ctx context.Context, portfolioID string) (*Account, error) {
	var account Account
	err := store.DBFrom(ctx, r.db).WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		First(&account).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Save 保存账户 (upsert 余额)
func (r *MySQLRepository) Save(ctx context.Context, account *Account) error {
	return store.DBFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "portfolio_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"amount": account.Amount,
			}),
		}).
		Create(account).Error
}

// CreateIfAbsent 原子 insert-if-absent
func (r *MySQLRepository) CreateIfAbsent(ctx context.Context, account *Account) error {
	return store.DBFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "portfolio_id"}},
			DoNothing: true,
		}).
		Create(account).Error
}
