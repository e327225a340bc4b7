// 文件: pkg/journal/model.go
// 账本流水 - 事件定义
//
// 订单执行提交后，每笔账本变更产生一条流水事件:
// - 资金: 扣款 / 入账
// - 持仓: 增持 / 减持
// 事件经 Kafka/NATS 传输，由 DBWriter 幂等落库。
// 纯观测用途，不参与结算，不影响账本正确性

package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kafka Topic / NATS Subject
const (
	TopicJournalEvents = "ledger_journal_events" // 账本流水
)

// ChangeType 变更类型
type ChangeType uint8

const (
	ChangeTypeCashDeduct      ChangeType = 1 // 资金扣款 (买入执行)
	ChangeTypeCashAdd         ChangeType = 2 // 资金入账 (卖出执行)
	ChangeTypeInventoryAdd    ChangeType = 3 // 增持
	ChangeTypeInventoryRemove ChangeType = 4 // 减持
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeCashDeduct:
		return "CASH_DEDUCT"
	case ChangeTypeCashAdd:
		return "CASH_ADD"
	case ChangeTypeInventoryAdd:
		return "INVENTORY_ADD"
	case ChangeTypeInventoryRemove:
		return "INVENTORY_REMOVE"
	default:
		return "UNKNOWN"
	}
}

// =============================================================================
// 流水事件
// =============================================================================

// JournalEvent 账本流水事件
// 每笔账本变更一条；EventID 为幂等键
type JournalEvent struct {
	// ===== 唯一标识 =====
	EventID string `json:"event_id"` // 幂等键 (格式: {type}_{orderID})

	// ===== 归属 =====
	PortfolioID  string `json:"portfolio_id"`
	InstrumentID string `json:"instrument_id,omitempty"` // 资金变更为空

	// ===== 变更信息 =====
	ChangeType ChangeType      `json:"change_type"`
	Amount     decimal.Decimal `json:"amount"` // 变动量 (正数)

	// ===== 变更前后 =====
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`

	// ===== 关联订单 =====
	OrderID int64 `json:"order_id"`

	// ===== 时间 =====
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent 构建流水事件 (自动生成幂等键)
func NewEvent(changeType ChangeType, portfolioID, instrumentID string, amount, before, after decimal.Decimal, orderID int64) *JournalEvent {
	return &JournalEvent{
		EventID:       fmt.Sprintf("%s_%d", changeType, orderID),
		PortfolioID:   portfolioID,
		InstrumentID:  instrumentID,
		ChangeType:    changeType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		OrderID:       orderID,
		CreatedAt:     time.Now(),
	}
}

// =============================================================================
// JournalEvent 实现 kafka.Message 接口
// =============================================================================

// Topic 返回 Kafka topic
func (e *JournalEvent) Topic() string {
	return TopicJournalEvents
}

// Key 返回分区 key (按组合分区保证顺序)
func (e *JournalEvent) Key() string {
	return e.PortfolioID
}

// Value 返回序列化后的消息体
func (e *JournalEvent) Value() ([]byte, error) {
	return json.Marshal(e)
}

// =============================================================================
// 数据库模型
// =============================================================================

// JournalRecord MySQL 流水表记录
type JournalRecord struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement"`
	EventID       string          `gorm:"column:event_id;uniqueIndex;type:varchar(64)"`
	PortfolioID   string          `gorm:"column:portfolio_id;index;type:varchar(64)"`
	InstrumentID  string          `gorm:"column:instrument_id;type:varchar(32)"`
	ChangeType    ChangeType      `gorm:"column:change_type"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(20,2)"`
	BalanceBefore decimal.Decimal `gorm:"column:balance_before;type:decimal(20,2)"`
	BalanceAfter  decimal.Decimal `gorm:"column:balance_after;type:decimal(20,2)"`
	OrderID       int64           `gorm:"column:order_id;index"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
}

// TableName GORM 表名
func (JournalRecord) TableName() string {
	return "ledger_journals"
}

// toRecord 事件转落库记录
func (e *JournalEvent) toRecord() *JournalRecord {
	return &JournalRecord{
		EventID:       e.EventID,
		PortfolioID:   e.PortfolioID,
		InstrumentID:  e.InstrumentID,
		ChangeType:    e.ChangeType,
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		OrderID:       e.OrderID,
		CreatedAt:     e.CreatedAt,
	}
}
