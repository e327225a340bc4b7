// 文件: pkg/portfolio/service.go
// 组合视图 - 只读聚合
//
// 聚合三处数据: 购买力 (懒创建)、全部持仓、待执行订单。
// 纯读路径，不做任何账本变更

package portfolio

import (
	"context"

	"github.com/shopspring/decimal"

	"mono.com/pkg/buyingpower"
	"mono.com/pkg/inventory"
	"mono.com/pkg/order"
)

// Holding 持仓视图条目
type Holding struct {
	InstrumentID string          `json:"instrument_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

// View 组合快照
type View struct {
	PortfolioID   string          `json:"portfolio_id"`
	BuyingPower   decimal.Decimal `json:"buying_power"`
	Holdings      []Holding       `json:"holdings"`
	PendingOrders []*order.Order  `json:"pending_orders"`
}

// Service 组合视图服务
type Service struct {
	funds    *buyingpower.Service
	holdings *inventory.Service
	orders   *order.Service
}

// NewService 创建组合视图服务
func NewService(funds *buyingpower.Service, holdings *inventory.Service, orders *order.Service) *Service {
	return &Service{
		funds:    funds,
		holdings: holdings,
		orders:   orders,
	}
}

// Get 组装组合快照
// 首次查询会懒创建购买力账户
func (s *Service) Get(ctx context.Context, portfolioID string) (*View, error) {
	account, err := s.funds.GetOrCreate(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	positions, err := s.holdings.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	holdings := make([]Holding, 0, len(positions))
	for _, p := range positions {
		holdings = append(holdings, Holding{
			InstrumentID: p.InstrumentID,
			Quantity:     p.Quantity,
			AveragePrice: p.AveragePrice,
		})
	}

	pending, err := s.orders.ListPending(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	return &View{
		PortfolioID:   portfolioID,
		BuyingPower:   account.Amount,
		Holdings:      holdings,
		PendingOrders: pending,
	}, nil
}
