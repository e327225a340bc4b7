// 文件: pkg/buyingpower/model.go
// 资金账本 - 数据模型
//
// 每个组合一条现金余额记录:
// - 首次访问时以配置的初始额度懒创建
// - 只通过 Deduct/Add 变更，永不删除
// - 不变量: 余额永不为负

package buyingpower

import (
	"github.com/shopspring/decimal"
)

// Account 组合购买力账户
type Account struct {
	PortfolioID string          `gorm:"column:portfolio_id;primaryKey;type:varchar(64)" json:"portfolio_id"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(20,2)" json:"amount"`
	UpdatedAt   int64           `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName GORM 表名
func (Account) TableName() string {
	return "buying_power_accounts"
}
