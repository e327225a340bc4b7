// 文件: pkg/trading/service_test.go
// 交易编排测试 (内存仓库 + 静态价格源)

package trading

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mono.com/pkg/buyingpower"
	"mono.com/pkg/inventory"
	"mono.com/pkg/journal"
	"mono.com/pkg/marketdata"
	"mono.com/pkg/order"
	"mono.com/pkg/store"
)

const (
	testPortfolio = "portfolio-id-1"

	// 静态价格表中的证券
	instCheapCoin  = "US67066G1040" // 100.00
	instPricey     = "US0378331005" // 200.00
	instFractional = "US5949181045" // 35.50
)

var initialBuyingPower = decimal.RequireFromString("5000.00")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// capturePublisher 收集发布的流水事件
type capturePublisher struct {
	events []*journal.JournalEvent
}

func (p *capturePublisher) PublishJournal(event *journal.JournalEvent) error {
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	trading  *Service
	funds    *buyingpower.Service
	holdings *inventory.Service
	orders   *order.Service
	journal  *capturePublisher
}

func newFixture() *fixture {
	return newFixtureWith(func(tx store.TxManager, orderRepo order.OrderRepository) (store.TxManager, order.OrderRepository) {
		return tx, orderRepo
	})
}

// newFixtureWith 允许测试包装事务管理器或订单仓库
func newFixtureWith(wrap func(store.TxManager, order.OrderRepository) (store.TxManager, order.OrderRepository)) *fixture {
	memTx := store.NewMemoryTxManager()
	fundsRepo := buyingpower.NewMemoryRepository()
	holdingsRepo := inventory.NewMemoryRepository()
	memTx.Track(fundsRepo, holdingsRepo)

	tx, orderRepo := wrap(memTx, order.NewMemoryOrderRepository())

	funds := buyingpower.NewService(fundsRepo, tx, initialBuyingPower)
	holdings := inventory.NewService(holdingsRepo, tx)
	orders := order.NewService(orderRepo)
	publisher := &capturePublisher{}

	return &fixture{
		trading:  NewService(orders, funds, holdings, marketdata.NewStaticSource(), tx, publisher),
		funds:    funds,
		holdings: holdings,
		orders:   orders,
		journal:  publisher,
	}
}

func buyRequest(instrumentID string, quantity string) CreateOrderRequest {
	return CreateOrderRequest{
		PortfolioID:  testPortfolio,
		InstrumentID: instrumentID,
		Side:         order.SideBuy,
		Quantity:     dec(quantity),
	}
}

func sellRequest(instrumentID string, quantity string) CreateOrderRequest {
	return CreateOrderRequest{
		PortfolioID:  testPortfolio,
		InstrumentID: instrumentID,
		Side:         order.SideSell,
		Quantity:     dec(quantity),
	}
}

// 新组合买入 10 股并执行: 扣款 1000.00、持仓 10、订单 EXECUTED
func TestBuyAndExecute(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "10"))
	require.NoError(t, err)
	assert.Equal(t, order.StatusCreated, o.Status)
	assert.True(t, o.Price.Equal(dec("100.00")), "expected captured price 100.00, got %s", o.Price)

	executed, err := f.trading.ExecuteOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusExecuted, executed.Status)

	account, err := f.funds.GetOrCreate(ctx, testPortfolio)
	require.NoError(t, err)
	assert.True(t, account.Amount.Equal(dec("4000.00")),
		"expected 4000.00 after buying, got %s", account.Amount)

	position, err := f.holdings.Get(ctx, testPortfolio, instCheapCoin)
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.True(t, position.Quantity.Equal(dec("10.00")))
	assert.True(t, position.AveragePrice.Equal(dec("100.00")))
}

// 购买力不足: 下单即拒绝，不落订单，不动账本
func TestBuy_InsufficientFunds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// 余额压到 300.00
	_, err := f.funds.Deduct(ctx, testPortfolio, dec("4700.00"))
	require.NoError(t, err)

	// 需要 500.00
	_, err = f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "5"))
	assert.ErrorIs(t, err, buyingpower.ErrInsufficientFunds)

	pending, err := f.orders.ListPending(ctx, testPortfolio)
	require.NoError(t, err)
	assert.Empty(t, pending)

	account, err := f.funds.GetOrCreate(ctx, testPortfolio)
	require.NoError(t, err)
	assert.True(t, account.Amount.Equal(dec("300.00")))
}

// 持仓不足: 卖单下单即拒绝
func TestSell_InsufficientInventory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.holdings.Add(ctx, testPortfolio, instCheapCoin, dec("3"), dec("100.00"))
	require.NoError(t, err)

	_, err = f.trading.CreateOrder(ctx, sellRequest(instCheapCoin, "5"))
	assert.ErrorIs(t, err, inventory.ErrInsufficientInventory)
}

// 撤单后执行失败，账本无任何变更
func TestCancelThenExecute(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "10"))
	require.NoError(t, err)

	cancelled, err := f.trading.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)

	_, err = f.trading.ExecuteOrder(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrInvalidState)

	account, err := f.funds.GetOrCreate(ctx, testPortfolio)
	require.NoError(t, err)
	assert.True(t, account.Amount.Equal(initialBuyingPower), "cancel must not touch the ledger")
}

// 卖出并执行: 减持、入账
func TestSellAndExecute(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// 先买 10 股建仓
	o, err := f.trading.CreateOrder(ctx, buyRequest(instPricey, "10"))
	require.NoError(t, err)
	_, err = f.trading.ExecuteOrder(ctx, o.ID)
	require.NoError(t, err)

	// 卖 4 股
	sell, err := f.trading.CreateOrder(ctx, sellRequest(instPricey, "4"))
	require.NoError(t, err)
	executed, err := f.trading.ExecuteOrder(ctx, sell.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusExecuted, executed.Status)

	// 5000 - 2000 + 800 = 3800
	account, err := f.funds.GetOrCreate(ctx, testPortfolio)
	require.NoError(t, err)
	assert.True(t, account.Amount.Equal(dec("3800.00")),
		"expected 3800.00 after round trip, got %s", account.Amount)

	position, err := f.holdings.Get(ctx, testPortfolio, instPricey)
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.True(t, position.Quantity.Equal(dec("6.00")))
}

// 清仓卖出: 数量恰好归零，不为负，不漂移
func TestSellToExactZero(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.trading.CreateOrder(ctx, buyRequest(instFractional, "5"))
	require.NoError(t, err)
	_, err = f.trading.ExecuteOrder(ctx, o.ID)
	require.NoError(t, err)

	sell, err := f.trading.CreateOrder(ctx, sellRequest(instFractional, "5"))
	require.NoError(t, err)
	_, err = f.trading.ExecuteOrder(ctx, sell.ID)
	require.NoError(t, err)

	position, err := f.holdings.Get(ctx, testPortfolio, instFractional)
	require.NoError(t, err)
	require.NotNil(t, position, "zeroed position must remain fetchable")
	assert.True(t, position.Quantity.Equal(dec("0.00")),
		"expected exactly 0.00, got %s", position.Quantity)
	assert.False(t, position.Quantity.IsNegative())
}

// 未知证券: 下单直接拒绝
func TestCreateOrder_UnknownInstrument(t *testing.T) {
	f := newFixture()

	_, err := f.trading.CreateOrder(context.Background(), buyRequest("XX0000000000", "1"))
	assert.ErrorIs(t, err, marketdata.ErrUnknownInstrument)
}

// 非正数量: 下单直接拒绝
func TestCreateOrder_InvalidQuantity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "0"))
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	_, err = f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "-3"))
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}

// 重复买入: 加权均价重算
func TestRepeatedBuys_WeightedAverage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// 10 股 @100.00 + 10 股 @35.50 -> 均价 67.75
	first, err := f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "10"))
	require.NoError(t, err)
	_, err = f.trading.ExecuteOrder(ctx, first.ID)
	require.NoError(t, err)

	_, err = f.holdings.Add(ctx, testPortfolio, instCheapCoin, dec("10"), dec("35.50"))
	require.NoError(t, err)

	position, err := f.holdings.Get(ctx, testPortfolio, instCheapCoin)
	require.NoError(t, err)
	assert.True(t, position.Quantity.Equal(dec("20.00")))
	assert.True(t, position.AveragePrice.Equal(dec("67.75")),
		"expected weighted average 67.75, got %s", position.AveragePrice)
}

// 执行提交后发出流水事件 (买: 扣款 + 增持)
func TestExecute_PublishesJournals(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "10"))
	require.NoError(t, err)
	_, err = f.trading.ExecuteOrder(ctx, o.ID)
	require.NoError(t, err)

	require.Len(t, f.journal.events, 2)

	cash := f.journal.events[0]
	assert.Equal(t, journal.ChangeTypeCashDeduct, cash.ChangeType)
	assert.Equal(t, o.ID, cash.OrderID)
	assert.True(t, cash.Amount.Equal(dec("1000.00")))
	assert.True(t, cash.BalanceBefore.Equal(dec("5000.00")))
	assert.True(t, cash.BalanceAfter.Equal(dec("4000.00")))

	inv := f.journal.events[1]
	assert.Equal(t, journal.ChangeTypeInventoryAdd, inv.ChangeType)
	assert.Equal(t, instCheapCoin, inv.InstrumentID)
	assert.True(t, inv.BalanceBefore.Equal(dec("0.00")))
	assert.True(t, inv.BalanceAfter.Equal(dec("10.00")))
}

// 创建失败不发流水
func TestRejectedCreate_NoJournals(t *testing.T) {
	f := newFixture()

	_, err := f.trading.CreateOrder(context.Background(), sellRequest(instCheapCoin, "1"))
	require.Error(t, err)
	assert.Empty(t, f.journal.events)
}

// recordingTxManager 记录每次请求的隔离级别
type recordingTxManager struct {
	store.TxManager
	levels []sql.IsolationLevel
}

func (m *recordingTxManager) WithinTx(ctx context.Context, iso sql.IsolationLevel, fn func(ctx context.Context) error) error {
	m.levels = append(m.levels, iso)
	return m.TxManager.WithinTx(ctx, iso, fn)
}

// 执行路径的最外层事务必须以 SERIALIZABLE 开启:
// 内层扣款加入外层事务后级别无法再升级，
// 级别不足时两笔并发执行会基于同一快照余额双花
func TestExecuteOrder_OpensSerializableTransaction(t *testing.T) {
	var rec *recordingTxManager
	f := newFixtureWith(func(tx store.TxManager, repo order.OrderRepository) (store.TxManager, order.OrderRepository) {
		rec = &recordingTxManager{TxManager: tx}
		return rec, repo
	})
	ctx := context.Background()

	o, err := f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "10"))
	require.NoError(t, err)

	rec.levels = nil
	_, err = f.trading.ExecuteOrder(ctx, o.ID)
	require.NoError(t, err)

	require.NotEmpty(t, rec.levels)
	assert.Equal(t, sql.LevelSerializable, rec.levels[0],
		"outermost execution transaction must run at SERIALIZABLE")
}

// cancelBeforeFinalizeRepo 在落定 EXECUTED 前抢先撤单，
// 模拟并发撤单恰好插在账本变更与状态落定之间
type cancelBeforeFinalizeRepo struct {
	order.OrderRepository
}

func (r *cancelBeforeFinalizeRepo) UpdateStatus(ctx context.Context, orderID int64, from, to order.OrderStatus) (bool, error) {
	if to == order.StatusExecuted {
		if _, err := r.OrderRepository.UpdateStatus(ctx, orderID, order.StatusCreated, order.StatusCancelled); err != nil {
			return false, err
		}
	}
	return r.OrderRepository.UpdateStatus(ctx, orderID, from, to)
}

// 状态落定失败时整个执行回滚: 资金、持仓、流水都不得留下半截写入
func TestExecuteOrder_CancelRaceRollsBackLedger(t *testing.T) {
	f := newFixtureWith(func(tx store.TxManager, repo order.OrderRepository) (store.TxManager, order.OrderRepository) {
		return tx, &cancelBeforeFinalizeRepo{OrderRepository: repo}
	})
	ctx := context.Background()

	o, err := f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "10"))
	require.NoError(t, err)

	_, err = f.trading.ExecuteOrder(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrInvalidState)

	account, err := f.funds.GetOrCreate(ctx, testPortfolio)
	require.NoError(t, err)
	assert.True(t, account.Amount.Equal(initialBuyingPower),
		"rolled-back execution must leave buying power untouched, got %s", account.Amount)

	position, err := f.holdings.Get(ctx, testPortfolio, instCheapCoin)
	require.NoError(t, err)
	assert.Nil(t, position, "rolled-back execution must leave no position")

	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)

	assert.Empty(t, f.journal.events, "rolled-back execution must not emit journal events")
}

// 数量先按 2 位小数收口再进账本，扣款与持仓始终按同一数量计算
func TestCreateOrder_QuantityStandardized(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "0.005"))
	require.NoError(t, err)
	assert.True(t, o.Quantity.Equal(dec("0.01")),
		"expected stored quantity 0.01, got %s", o.Quantity)

	_, err = f.trading.ExecuteOrder(ctx, o.ID)
	require.NoError(t, err)

	account, err := f.funds.GetOrCreate(ctx, testPortfolio)
	require.NoError(t, err)
	assert.True(t, account.Amount.Equal(dec("4999.00")),
		"cost must be computed on the rounded quantity, got %s", account.Amount)

	position, err := f.holdings.Get(ctx, testPortfolio, instCheapCoin)
	require.NoError(t, err)
	assert.True(t, position.Quantity.Equal(dec("0.01")))

	// 收口后不为正的数量直接拒绝
	_, err = f.trading.CreateOrder(ctx, buyRequest(instCheapCoin, "0.004"))
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}
