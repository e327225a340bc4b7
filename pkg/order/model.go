// 文件: pkg/order/model.go
// 订单模型与生命周期状态
//
// 状态机: CREATED -> EXECUTED | CANCELLED (均为终态)
// 价格在创建时捕获，落库后不可变

package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// 订单状态
// =============================================================================

type OrderStatus int8

const (
	StatusCreated   OrderStatus = iota // 已创建，可执行/可撤销
	StatusExecuted                     // 已执行 (终态)
	StatusCancelled                    // 已撤销 (终态)
)

func (s OrderStatus) String() string {
	switch s {
	case StatusCreated:
		return "CREATED"
	case StatusExecuted:
		return "EXECUTED"
	case StatusCancelled:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

// IsTerminal 是否终态
func (s OrderStatus) IsTerminal() bool {
	return s == StatusExecuted || s == StatusCancelled
}

// =============================================================================
// 订单方向
// =============================================================================

type OrderSide int8

const (
	SideBuy  OrderSide = 1
	SideSell OrderSide = 2
)

func (s OrderSide) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	}
	return "UNKNOWN"
}

// ParseSide 解析订单方向
func ParseSide(s string) (OrderSide, bool) {
	switch s {
	case "BUY":
		return SideBuy, true
	case "SELL":
		return SideSell, true
	}
	return 0, false
}

// =============================================================================
// Order - 订单结构
// =============================================================================

type Order struct {
	ID int64 `gorm:"column:id;primaryKey" json:"id"` // 雪花ID

	PortfolioID  string `gorm:"column:portfolio_id;index;type:varchar(64)" json:"portfolio_id"`
	InstrumentID string `gorm:"column:instrument_id;type:varchar(32)" json:"instrument_id"`

	Status OrderStatus `gorm:"column:status;index" json:"status"`
	Side   OrderSide   `gorm:"column:side" json:"side"`

	Quantity decimal.Decimal `gorm:"column:quantity;type:decimal(20,2)" json:"quantity"`
	Price    decimal.Decimal `gorm:"column:price;type:decimal(20,2)" json:"price"` // 创建时捕获，不可变

	CreatedAt int64 `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt int64 `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// NewOrder 创建新订单 (状态 CREATED)
func NewOrder(portfolioID, instrumentID string, side OrderSide, quantity, price decimal.Decimal) *Order {
	now := time.Now().UnixMilli()
	return &Order{
		ID:           GenerateOrderID(),
		PortfolioID:  portfolioID,
		InstrumentID: instrumentID,
		Status:       StatusCreated,
		Side:         side,
		Quantity:     quantity,
		Price:        price,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
