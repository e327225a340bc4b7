// 文件: pkg/journal/mysql_repo.go
// 账本流水 - MySQL 仓库
//
// INSERT IGNORE + event_id 唯一索引实现幂等批量写入，
// Kafka 重复投递不会产生重复流水

package journal

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mono.com/pkg/store"
)

// Repository 流水仓库
type Repository interface {
	// BatchInsert 批量幂等写入流水
	BatchInsert(ctx context.Context, events []*JournalEvent) error

	// ListByPortfolio 按组合查询流水 (按时间倒序)
	ListByPortfolio(ctx context.Context, portfolioID string, limit int) ([]*JournalRecord, error)
}

// 确保实现了接口
var _ Repository = (*MySQLRepository)(nil)

// MySQLRepository MySQL 流水仓库
type MySQLRepository struct {
	db *gorm.DB
}

// NewMySQLRepository 创建 MySQL 流水仓库
func NewMySQLRepository(db *gorm.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// BatchInsert 批量幂等写入
func (r *MySQLRepository) BatchInsert(ctx context.Context, events []*JournalEvent) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]*JournalRecord, 0, len(events))
	for _, event := range events {
		records = append(records, event.toRecord())
	}

	// INSERT IGNORE: 依赖 event_id 唯一索引去重
	return store.DBFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.Insert{Modifier: "IGNORE"}).
		Create(&records).Error
}

// ListByPortfolio 按组合查询流水
func (r *MySQLRepository) ListByPortfolio(ctx context.Context, portfolioID string, limit int) ([]*JournalRecord, error) {
	var records []*JournalRecord
	err := store.DBFrom(ctx, r.db).WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
