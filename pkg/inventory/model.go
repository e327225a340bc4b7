// 文件: pkg/inventory/model.go
// 持仓账本 - 数据模型
//
// 每个 (组合, 证券) 一条持仓记录:
// - 首次买入时创建
// - 数量减到恰好为零时记录保留、数量与成本均价清零 (不删行)
// - 不变量: 数量永不为负

package inventory

import (
	"github.com/shopspring/decimal"
)

// Position 持仓记录
// 复合主键 (portfolio_id, instrument_id)
type Position struct {
	PortfolioID  string          `gorm:"column:portfolio_id;primaryKey;type:varchar(64)" json:"portfolio_id"`
	InstrumentID string          `gorm:"column:instrument_id;primaryKey;type:varchar(32)" json:"instrument_id"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:decimal(20,2)" json:"quantity"`
	AveragePrice decimal.Decimal `gorm:"column:average_price;type:decimal(20,2)" json:"average_price"`
	UpdatedAt    int64           `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName GORM 表名
func (Position) TableName() string {
	return "inventory_positions"
}
