// 文件: pkg/money/money.go
// 货币金额标准化工具
//
// 全系统所有落库/比较的金额都必须先经过 Standardize:
// - 固定 2 位小数
// - 四舍五入 (half-up)
//
// 使用 shopspring/decimal 定点运算，避免浮点误差

package money

import "github.com/shopspring/decimal"

// Scale 货币精度 (小数位数)
const Scale = 2

// Standardize 标准化金额: 保留 2 位小数，四舍五入
//
// 纯函数，幂等: Standardize(Standardize(x)) == Standardize(x)
func Standardize(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// Cost 计算总价 price * qty 并标准化
func Cost(price, qty decimal.Decimal) decimal.Decimal {
	return Standardize(price.Mul(qty))
}

// Zero 标准化的零值 (0.00)
func Zero() decimal.Decimal {
	return decimal.Zero.Round(Scale)
}
