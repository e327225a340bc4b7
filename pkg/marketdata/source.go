// 文件: pkg/marketdata/source.go
// 行情价格源
//
// 订单创建/执行时同步取一个市场价。
// 固定参考价表 (按 ISIN):
// - US67066G1040 -> 100.00
// - US0378331005 -> 200.00
// - US5949181045 -> 35.50
// - 其他 -> ErrUnknownInstrument

package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownInstrument 未知证券代码，无价格可用
var ErrUnknownInstrument = errors.New("unknown instrument: no price available")

// PriceSource 价格源
type PriceSource interface {
	// GetPrice 返回证券当前成交价
	GetPrice(ctx context.Context, instrumentID string) (decimal.Decimal, error)
}

// =============================================================================
// StaticSource - 固定价表实现
// =============================================================================

// 确保实现了接口
var _ PriceSource = (*StaticSource)(nil)

// StaticSource 固定价表价格源
type StaticSource struct {
	prices map[string]decimal.Decimal
}

// NewStaticSource 创建固定价表价格源 (内置参考价表)
func NewStaticSource() *StaticSource {
	return &StaticSource{
		prices: map[string]decimal.Decimal{
			"US67066G1040": decimal.RequireFromString("100.00"),
			"US0378331005": decimal.RequireFromString("200.00"),
			"US5949181045": decimal.RequireFromString("35.50"),
		},
	}
}

// GetPrice 查价
func (s *StaticSource) GetPrice(_ context.Context, instrumentID string) (decimal.Decimal, error) {
	price, ok := s.prices[instrumentID]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownInstrument, instrumentID)
	}
	return price, nil
}
