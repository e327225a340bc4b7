// 文件: pkg/trading/service.go
// 交易编排 - 订单创建 / 执行 / 撤销
//
// 订单执行是唯一跨两本账的写路径:
// 外层 SERIALIZABLE 事务包住 扣款+增持 (买) 或 减持+入账 (卖) 加状态落定，
// 任何一步失败整体回滚，两本账与订单状态要么全变要么全不变。
// 隔离级别由最外层决定 (内层账本变更加入它)，必须取各步中最严格的:
// 资金扣款要求 SERIALIZABLE，否则并发执行会基于同一快照余额双花。
//
// 流水事件在事务提交后发出，失败只记日志

package trading

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"mono.com/pkg/buyingpower"
	"mono.com/pkg/inventory"
	"mono.com/pkg/journal"
	"mono.com/pkg/marketdata"
	"mono.com/pkg/money"
	"mono.com/pkg/order"
	"mono.com/pkg/store"
)

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	PortfolioID  string
	InstrumentID string
	Side         order.OrderSide
	Quantity     decimal.Decimal
}

// Service 交易编排服务
type Service struct {
	orders   *order.Service
	funds    *buyingpower.Service
	holdings *inventory.Service
	prices   marketdata.PriceSource
	tx       store.TxManager
	journal  journal.Publisher // 可为 nil (未接消息链路)
	log      *logrus.Entry
}

// NewService 创建交易编排服务
func NewService(
	orders *order.Service,
	funds *buyingpower.Service,
	holdings *inventory.Service,
	prices marketdata.PriceSource,
	tx store.TxManager,
	journalPublisher journal.Publisher,
) *Service {
	return &Service{
		orders:   orders,
		funds:    funds,
		holdings: holdings,
		prices:   prices,
		tx:       tx,
		journal:  journalPublisher,
		log:      logrus.WithField("component", "trading"),
	}
}

// CreateOrder 下单
//
// 1. 数量必须为正
// 2. 以当前市价捕获订单价格
// 3. 买单校验购买力、卖单校验持仓 (只校验不冻结)
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*order.Order, error) {
	s.log.WithField("portfolio", req.PortfolioID).
		Infof("trying to create %s order: instrument=%s, quantity=%s", req.Side, req.InstrumentID, req.Quantity)

	// 数量先标准化再校验: 账本与落库列都是 2 位小数，
	// 不在这里收口会导致扣款与持仓按不同的数量计算
	quantity := money.Standardize(req.Quantity)
	if !quantity.IsPositive() {
		return nil, inventory.ErrInvalidQuantity
	}

	price, err := s.prices.GetPrice(ctx, req.InstrumentID)
	if err != nil {
		return nil, err
	}

	switch req.Side {
	case order.SideBuy:
		cost := money.Cost(price, quantity)
		if err := s.funds.VerifySufficient(ctx, req.PortfolioID, cost); err != nil {
			return nil, err
		}
	case order.SideSell:
		if _, err := s.holdings.GetAndVerify(ctx, req.PortfolioID, req.InstrumentID, quantity); err != nil {
			return nil, err
		}
	}

	return s.orders.Create(ctx, req.PortfolioID, req.InstrumentID, req.Side, quantity, price)
}

// GetOrder 查询订单
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	return s.orders.Get(ctx, orderID)
}

// CancelOrder 撤单 (仅 CREATED 可撤)
func (s *Service) CancelOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	return s.orders.Cancel(ctx, orderID)
}

// ExecuteOrder 以订单创建时捕获的价格执行订单
//
// 整个执行在单个 SERIALIZABLE 事务内:
// - 买: 扣购买力 (cost = round(price*qty))，按订单价增持
// - 卖: 减持，按订单价入账
// - CAS 落定 CREATED -> EXECUTED
// 任何一步失败 (余额/持仓不足、状态已变) 整体回滚。
// 并发执行同一组合时，后提交者必须看到先提交者写入的余额
func (s *Service) ExecuteOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	s.log.WithField("order", orderID).Info("trying to execute order")

	var executed *order.Order
	var events []*journal.JournalEvent

	err := s.tx.WithinTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
		o, err := s.orders.GetForExecution(ctx, orderID)
		if err != nil {
			return err
		}

		switch o.Side {
		case order.SideBuy:
			events, err = s.executeBuy(ctx, o)
		case order.SideSell:
			events, err = s.executeSell(ctx, o)
		}
		if err != nil {
			return err
		}

		executed, err = s.orders.FinalizeExecution(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishJournals(events)

	s.log.WithField("order", orderID).Info("order executed")
	return executed, nil
}

// executeBuy 买单: 先扣款后增持
func (s *Service) executeBuy(ctx context.Context, o *order.Order) ([]*journal.JournalEvent, error) {
	cost := money.Cost(o.Price, o.Quantity)

	account, err := s.funds.Deduct(ctx, o.PortfolioID, cost)
	if err != nil {
		return nil, err
	}

	position, err := s.holdings.Add(ctx, o.PortfolioID, o.InstrumentID, o.Quantity, o.Price)
	if err != nil {
		return nil, err
	}

	return []*journal.JournalEvent{
		journal.NewEvent(journal.ChangeTypeCashDeduct, o.PortfolioID, "",
			cost, account.Amount.Add(cost), account.Amount, o.ID),
		journal.NewEvent(journal.ChangeTypeInventoryAdd, o.PortfolioID, o.InstrumentID,
			o.Quantity, position.Quantity.Sub(o.Quantity), position.Quantity, o.ID),
	}, nil
}

// executeSell 卖单: 先减持后入账
func (s *Service) executeSell(ctx context.Context, o *order.Order) ([]*journal.JournalEvent, error) {
	position, err := s.holdings.Remove(ctx, o.PortfolioID, o.InstrumentID, o.Quantity)
	if err != nil {
		return nil, err
	}

	proceeds := money.Cost(o.Price, o.Quantity)
	account, err := s.funds.Add(ctx, o.PortfolioID, proceeds)
	if err != nil {
		return nil, err
	}

	return []*journal.JournalEvent{
		journal.NewEvent(journal.ChangeTypeInventoryRemove, o.PortfolioID, o.InstrumentID,
			o.Quantity, position.Quantity.Add(o.Quantity), position.Quantity, o.ID),
		journal.NewEvent(journal.ChangeTypeCashAdd, o.PortfolioID, "",
			proceeds, account.Amount.Sub(proceeds), account.Amount, o.ID),
	}, nil
}

// publishJournals 提交后发布流水，失败只记日志
func (s *Service) publishJournals(events []*journal.JournalEvent) {
	if s.journal == nil {
		return
	}
	for _, event := range events {
		if err := s.journal.PublishJournal(event); err != nil {
			s.log.Warnf("publish journal event %s: %v", event.EventID, err)
		}
	}
}
