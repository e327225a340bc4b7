// 文件: pkg/inventory/service_test.go
// 库存服务单元测试 (内存仓库)

package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mono.com/pkg/store"
)

const (
	testPortfolio  = "portfolio-id-1"
	testInstrument = "US67066G1040"
)

func newTestService() *Service {
	repo := NewMemoryRepository()
	tx := store.NewMemoryTxManager()
	tx.Track(repo)
	return NewService(repo, tx)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAdd_CreatesPosition(t *testing.T) {
	s := newTestService()

	position, err := s.Add(context.Background(), testPortfolio, testInstrument, dec("10.00"), dec("100.00"))
	require.NoError(t, err)
	require.NotNil(t, position)

	assert.True(t, position.Quantity.Equal(dec("10.00")))
	assert.True(t, position.AveragePrice.Equal(dec("100.00")))
}

func TestAdd_RecomputesWeightedAverage(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	// 10 股 @100 + 10 股 @200 -> 均价 150
	_, err := s.Add(ctx, testPortfolio, testInstrument, dec("10.00"), dec("100.00"))
	require.NoError(t, err)

	position, err := s.Add(ctx, testPortfolio, testInstrument, dec("10.00"), dec("200.00"))
	require.NoError(t, err)

	assert.True(t, position.Quantity.Equal(dec("20.00")))
	assert.True(t, position.AveragePrice.Equal(dec("150.00")),
		"expected avg 150.00, got %s", position.AveragePrice)
}

func TestAdd_AverageRounding(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	// 3 股 @35.50 + 2 股 @100.00 -> (106.50+200.00)/5 = 61.30
	_, err := s.Add(ctx, testPortfolio, testInstrument, dec("3.00"), dec("35.50"))
	require.NoError(t, err)

	position, err := s.Add(ctx, testPortfolio, testInstrument, dec("2.00"), dec("100.00"))
	require.NoError(t, err)
	assert.True(t, position.AveragePrice.Equal(dec("61.30")),
		"expected avg 61.30, got %s", position.AveragePrice)
}

func TestAdd_InvalidQuantity(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Add(ctx, testPortfolio, testInstrument, dec("-1.00"), dec("100.00"))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = s.Add(ctx, testPortfolio, testInstrument, decimal.Zero, dec("100.00"))
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemove_ToExactZero(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Add(ctx, testPortfolio, testInstrument, dec("5.00"), dec("100.00"))
	require.NoError(t, err)

	// 移除全部 5.00 -> 数量恰好为 0.00，均价清零，记录保留
	position, err := s.Remove(ctx, testPortfolio, testInstrument, dec("5.00"))
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.True(t, position.Quantity.IsZero(), "expected exactly zero, got %s", position.Quantity)
	assert.True(t, position.AveragePrice.IsZero())

	// Get 与清零策略一致: 返回数量为零的记录
	fetched, err := s.Get(ctx, testPortfolio, testInstrument)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.True(t, fetched.Quantity.IsZero())
}

func TestRemove_Partial(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Add(ctx, testPortfolio, testInstrument, dec("10.00"), dec("100.00"))
	require.NoError(t, err)

	position, err := s.Remove(ctx, testPortfolio, testInstrument, dec("4.00"))
	require.NoError(t, err)

	assert.True(t, position.Quantity.Equal(dec("6.00")))
	// 部分移除不改均价
	assert.True(t, position.AveragePrice.Equal(dec("100.00")))
}

func TestRemove_Insufficient(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Add(ctx, testPortfolio, testInstrument, dec("3.00"), dec("100.00"))
	require.NoError(t, err)

	_, err = s.Remove(ctx, testPortfolio, testInstrument, dec("5.00"))
	assert.ErrorIs(t, err, ErrInsufficientInventory)

	// 失败不产生任何变更
	position, err := s.Get(ctx, testPortfolio, testInstrument)
	require.NoError(t, err)
	assert.True(t, position.Quantity.Equal(dec("3.00")))
}

func TestRemove_AbsentPosition(t *testing.T) {
	s := newTestService()

	_, err := s.Remove(context.Background(), testPortfolio, "US0378331005", dec("1.00"))
	assert.ErrorIs(t, err, ErrInsufficientInventory)
}

func TestGetAndVerify(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	// 缺失记录按 0 算
	_, err := s.GetAndVerify(ctx, testPortfolio, testInstrument, dec("1.00"))
	assert.ErrorIs(t, err, ErrInsufficientInventory)

	_, err = s.Add(ctx, testPortfolio, testInstrument, dec("3.00"), dec("100.00"))
	require.NoError(t, err)

	position, err := s.GetAndVerify(ctx, testPortfolio, testInstrument, dec("3.00"))
	require.NoError(t, err)
	assert.True(t, position.Quantity.Equal(dec("3.00")))
}

func TestQuantityNeverNegative(t *testing.T) {
	// 不变量: 任意成功的 Add/Remove 序列后持仓 >= 0
	s := newTestService()
	ctx := context.Background()

	ops := []struct {
		add    bool
		amount string
	}{
		{true, "2.00"},
		{false, "1.00"},
		{false, "5.00"}, // 应失败
		{true, "0.50"},
		{false, "1.50"},
	}

	for _, op := range ops {
		if op.add {
			_, _ = s.Add(ctx, testPortfolio, testInstrument, dec(op.amount), dec("100.00"))
		} else {
			_, _ = s.Remove(ctx, testPortfolio, testInstrument, dec(op.amount))
		}

		position, err := s.Get(ctx, testPortfolio, testInstrument)
		require.NoError(t, err)
		if position != nil {
			assert.False(t, position.Quantity.IsNegative(),
				"quantity went negative: %s", position.Quantity)
		}
	}
}

func TestListByPortfolio(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Add(ctx, testPortfolio, "US67066G1040", dec("10.00"), dec("100.00"))
	require.NoError(t, err)
	_, err = s.Add(ctx, testPortfolio, "US0378331005", dec("5.00"), dec("200.00"))
	require.NoError(t, err)
	_, err = s.Add(ctx, "other-portfolio", "US5949181045", dec("1.00"), dec("35.50"))
	require.NoError(t, err)

	positions, err := s.ListByPortfolio(ctx, testPortfolio)
	require.NoError(t, err)
	assert.Len(t, positions, 2)
}
