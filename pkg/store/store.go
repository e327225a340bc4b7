// 文件: pkg/store/store.go
// 事务管理器
//
// 对应原则: 每次账本读改写必须在指定隔离级别的事务内完成
// - 资金账本: SERIALIZABLE (防止并发双花)
// - 持仓账本: REPEATABLE READ (防止丢失更新)
//
// 传播语义: 如果 context 中已有事务句柄则直接加入 (REQUIRED)，
// 保证 executeOrder 的外层事务能包住内层账本变更，
// 任一步失败整体回滚，不留半截写入。
//
// 加入者请求的隔离级别被忽略 (事务开启后无法再升级)，
// 因此最外层事务必须按所含各步中最严格的级别开启

package store

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

type txKey struct{}

// WithDB 把事务句柄注入 context
func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, db)
}

// DBFrom 从 context 取事务句柄，没有则返回 fallback
// 仓库层统一通过它取句柄，从而透明加入外层事务
func DBFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

// TxManager 事务管理器
type TxManager interface {
	// WithinTx 在 iso 隔离级别的事务内执行 fn
	// fn 返回 error 时整个事务回滚
	WithinTx(ctx context.Context, iso sql.IsolationLevel, fn func(ctx context.Context) error) error
}

// =============================================================================
// GormTxManager - GORM/MySQL 实现
// =============================================================================

// 确保实现了接口
var _ TxManager = (*GormTxManager)(nil)

// GormTxManager 基于 GORM 的事务管理器
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager 创建事务管理器
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithinTx 开启事务执行 fn
// 已在事务中则加入当前事务 (REQUIRED)，隔离级别由最外层决定
func (m *GormTxManager) WithinTx(ctx context.Context, iso sql.IsolationLevel, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithDB(ctx, tx))
	}, &sql.TxOptions{Isolation: iso})
}
