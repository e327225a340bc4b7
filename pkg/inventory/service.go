// 文件: pkg/inventory/service.go
// 持仓账本 - 库存服务
//
// 核心规则:
// 1. Add/Remove 必须在 REPEATABLE READ 事务内读改写，
//    防止同一 (组合, 证券) 上的并发更新互相覆盖
// 2. 持仓永不为负: Remove 前先校验
// 3. 成本均价按数量加权重算:
//    newAvg = round((oldAvg*oldQty + price*qty) / (oldQty+qty))
// 4. 数量减到恰好为零时数量与均价清零，记录保留

package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"mono.com/pkg/money"
	"mono.com/pkg/store"
)

var (
	// ErrInvalidQuantity 数量缺失或非正，调用方输入错误
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInsufficientInventory 持仓不足，业务拒绝
	ErrInsufficientInventory = errors.New("insufficient inventory")
)

// Service 库存服务
type Service struct {
	repo Repository
	tx   store.TxManager
	log  *logrus.Entry
}

// NewService 创建库存服务
func NewService(repo Repository, tx store.TxManager) *Service {
	return &Service{
		repo: repo,
		tx:   tx,
		log:  logrus.WithField("component", "inventory"),
	}
}

// Get 查询持仓，不存在返回 (nil, nil)
func (s *Service) Get(ctx context.Context, portfolioID, instrumentID string) (*Position, error) {
	return s.repo.Get(ctx, portfolioID, instrumentID)
}

// ListByPortfolio 查询组合的全部持仓
func (s *Service) ListByPortfolio(ctx context.Context, portfolioID string) ([]*Position, error) {
	return s.repo.ListByPortfolio(ctx, portfolioID)
}

// GetAndVerify 校验持仓是否足够 (缺失记录按 0 算)，只读不减
func (s *Service) GetAndVerify(ctx context.Context, portfolioID, instrumentID string, quantity decimal.Decimal) (*Position, error) {
	if quantity.IsNegative() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidQuantity, quantity)
	}

	position, err := s.repo.Get(ctx, portfolioID, instrumentID)
	if err != nil {
		return nil, err
	}

	held := decimal.Zero
	if position != nil {
		held = position.Quantity
	}

	if held.LessThan(quantity) {
		s.log.WithField("portfolio", portfolioID).
			Warnf("insufficient inventory for %s: required %s, available %s", instrumentID, quantity, held)
		return nil, fmt.Errorf("%w: portfolio %s instrument %s required %s, available %s",
			ErrInsufficientInventory, portfolioID, instrumentID, quantity, held)
	}

	return position, nil
}

// Add 增加持仓，重算加权成本均价
func (s *Service) Add(ctx context.Context, portfolioID, instrumentID string, quantity, price decimal.Decimal) (*Position, error) {
	s.log.WithField("portfolio", portfolioID).Info("trying to add inventory")

	if !quantity.IsPositive() {
		s.log.Warnf("invalid add quantity %s", quantity)
		return nil, fmt.Errorf("%w: got %s", ErrInvalidQuantity, quantity)
	}

	var updated *Position
	err := s.tx.WithinTx(ctx, sql.LevelRepeatableRead, func(ctx context.Context) error {
		position, err := s.repo.Get(ctx, portfolioID, instrumentID)
		if err != nil {
			return err
		}

		currentQty := decimal.Zero
		currentAvg := decimal.Zero
		if position != nil {
			currentQty = position.Quantity
			currentAvg = position.AveragePrice
		}

		// 加权均价: 旧持仓成本 + 本次成本，除以新数量
		currentTotal := money.Standardize(currentAvg.Mul(currentQty))
		updatedTotal := money.Standardize(currentTotal.Add(price.Mul(quantity)))
		updatedQty := money.Standardize(currentQty.Add(quantity))
		updatedAvg := money.Standardize(updatedTotal.Div(updatedQty))

		updated = &Position{
			PortfolioID:  portfolioID,
			InstrumentID: instrumentID,
			Quantity:     updatedQty,
			AveragePrice: updatedAvg,
		}
		return s.repo.Save(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove 减少持仓
//
// 数量减到恰好为零时数量与均价清零 (记录保留)；
// 持仓不足返回 ErrInsufficientInventory
func (s *Service) Remove(ctx context.Context, portfolioID, instrumentID string, quantity decimal.Decimal) (*Position, error) {
	s.log.WithField("portfolio", portfolioID).Info("trying to remove inventory")

	var updated *Position
	err := s.tx.WithinTx(ctx, sql.LevelRepeatableRead, func(ctx context.Context) error {
		position, err := s.GetAndVerify(ctx, portfolioID, instrumentID, quantity)
		if err != nil {
			return err
		}
		if position == nil {
			// 只可能是对不存在的持仓移除 0，无事可做
			return nil
		}

		updatedQty := money.Standardize(position.Quantity.Sub(quantity))
		avgPrice := position.AveragePrice
		if updatedQty.IsZero() {
			avgPrice = money.Zero()
		}

		updated = &Position{
			PortfolioID:  portfolioID,
			InstrumentID: instrumentID,
			Quantity:     updatedQty,
			AveragePrice: avgPrice,
		}
		return s.repo.Save(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
