// 文件: cmd/simulation/main.go
// 账本流程演示 (纯内存，无外部依赖)
//
// 跑一遍完整的组合生命周期:
// 下单 -> 执行 -> 再买摊薄均价 -> 卖出 -> 撤单 -> 组合快照

package main

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"mono.com/pkg/buyingpower"
	"mono.com/pkg/inventory"
	"mono.com/pkg/marketdata"
	"mono.com/pkg/order"
	"mono.com/pkg/portfolio"
	"mono.com/pkg/store"
	"mono.com/pkg/trading"
)

const portfolioID = "demo-portfolio"

func main() {
	ctx := context.Background()

	tx := store.NewMemoryTxManager()
	fundsRepo := buyingpower.NewMemoryRepository()
	holdingsRepo := inventory.NewMemoryRepository()
	tx.Track(fundsRepo, holdingsRepo)

	funds := buyingpower.NewService(fundsRepo, tx, decimal.RequireFromString("5000.00"))
	holdings := inventory.NewService(holdingsRepo, tx)
	orders := order.NewService(order.NewMemoryOrderRepository())

	trader := trading.NewService(orders, funds, holdings, marketdata.NewStaticSource(), tx, nil)
	views := portfolio.NewService(funds, holdings, orders)

	// 1. 买 10 股 @100.00
	buy := mustCreate(ctx, trader, order.SideBuy, "US67066G1040", "10")
	mustExecute(ctx, trader, buy.ID)

	// 2. 再买 10 股 @35.50 的另一只，组合多样化
	second := mustCreate(ctx, trader, order.SideBuy, "US5949181045", "10")
	mustExecute(ctx, trader, second.ID)

	// 3. 卖出 4 股第一只
	sell := mustCreate(ctx, trader, order.SideSell, "US67066G1040", "4")
	mustExecute(ctx, trader, sell.ID)

	// 4. 下一单然后撤掉
	pending := mustCreate(ctx, trader, order.SideBuy, "US0378331005", "2")
	if _, err := trader.CancelOrder(ctx, pending.ID); err != nil {
		log.Fatalf("cancel order: %v", err)
	}
	log.Printf("[Simulation] cancelled order %d", pending.ID)

	// 5. 资金不足的买单应被拒绝
	_, err := trader.CreateOrder(ctx, trading.CreateOrderRequest{
		PortfolioID:  portfolioID,
		InstrumentID: "US0378331005",
		Side:         order.SideBuy,
		Quantity:     decimal.RequireFromString("100"),
	})
	log.Printf("[Simulation] oversized buy rejected: %v", err)

	// 6. 组合快照
	view, err := views.Get(ctx, portfolioID)
	if err != nil {
		log.Fatalf("portfolio view: %v", err)
	}

	log.Printf("[Simulation] portfolio %s", view.PortfolioID)
	log.Printf("[Simulation]   buying power: %s", view.BuyingPower)
	for _, h := range view.Holdings {
		log.Printf("[Simulation]   holding %s: qty=%s avg=%s", h.InstrumentID, h.Quantity, h.AveragePrice)
	}
	log.Printf("[Simulation]   pending orders: %d", len(view.PendingOrders))
}

func mustCreate(ctx context.Context, trader *trading.Service, side order.OrderSide, instrumentID, quantity string) *order.Order {
	o, err := trader.CreateOrder(ctx, trading.CreateOrderRequest{
		PortfolioID:  portfolioID,
		InstrumentID: instrumentID,
		Side:         side,
		Quantity:     decimal.RequireFromString(quantity),
	})
	if err != nil {
		log.Fatalf("create order: %v", err)
	}
	log.Printf("[Simulation] created %s order %d: %s x%s @%s", side, o.ID, instrumentID, quantity, o.Price)
	return o
}

func mustExecute(ctx context.Context, trader *trading.Service, orderID int64) {
	if _, err := trader.ExecuteOrder(ctx, orderID); err != nil {
		log.Fatalf("execute order %d: %v", orderID, err)
	}
	log.Printf("[Simulation] executed order %d", orderID)
}
