// 文件: pkg/buyingpower/service.go
// 资金账本 - 购买力服务
//
// 核心规则:
// 1. 首次访问懒创建账户 (配置的初始购买力)
// 2. Deduct/Add 必须在 SERIALIZABLE 事务内读改写，
//    防止两笔并发扣款都看到旧余额而双花
// 3. 余额永不为负: 扣款前先校验
// 4. 所有落库金额先经过 money.Standardize

package buyingpower

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
	// ErrInvalidAmount 金额为负，调用方输入错误
	ErrInvalidAmount = errors.New("amount cannot be negative")

	// ErrInsufficientFunds 购买力不足，业务拒绝
	ErrInsufficientFunds = errors.New("insufficient buying power")
)

// Service 购买力服务
type Service struct {
	repo    Repository
	tx      store.TxManager
	initial decimal.Decimal // 新组合的初始购买力
	log     *logrus.Entry
}

// NewService 创建购买力服务
func NewService(repo Repository, tx store.TxManager, initialBuyingPower decimal.Decimal) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		initial: money.Standardize(initialBuyingPower),
		log:     logrus.WithField("component", "buyingpower"),
	}
}

// GetOrCreate 查询账户，不存在则以初始购买力创建
//
// 并发首读安全: 先原子 insert-if-absent 再读回，
// 两个并发首读最终拿到同一条记录
func (s *Service) GetOrCreate(ctx context.Context, portfolioID string) (*Account, error) {
	account, err := s.repo.Get(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	created := &Account{PortfolioID: portfolioID, Amount: s.initial}
	if err := s.repo.CreateIfAbsent(ctx, created); err != nil {
		return nil, err
	}

	s.log.WithField("portfolio", portfolioID).Info("created buying power account with initial balance")
	return s.repo.Get(ctx, portfolioID)
}

// VerifySufficient 校验购买力是否足够，只读不扣
func (s *Service) VerifySufficient(ctx context.Context, portfolioID string, required decimal.Decimal) error {
	account, err := s.GetOrCreate(ctx, portfolioID)
	if err != nil {
		return err
	}

	if account.Amount.LessThan(required) {
		s.log.WithField("portfolio", portfolioID).
			Warnf("insufficient buying power: required %s, available %s", required, account.Amount)
		return fmt.Errorf("%w: portfolio %s required %s, available %s",
			ErrInsufficientFunds, portfolioID, required, account.Amount)
	}
	return nil
}

// Deduct 扣减购买力，返回更新后的账户
//
// SERIALIZABLE 事务内读改写，余额不足返回 ErrInsufficientFunds
func (s *Service) Deduct(ctx context.Context, portfolioID string, amount decimal.Decimal) (*Account, error) {
	s.log.WithField("portfolio", portfolioID).Info("trying to deduct buying power")

	if amount.IsNegative() {
		s.log.Warn("deduction amount cannot be negative")
		return nil, fmt.Errorf("%w: deduction amount %s", ErrInvalidAmount, amount)
	}

	var updated *Account
	err := s.tx.WithinTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
		account, err := s.GetOrCreate(ctx, portfolioID)
		if err != nil {
			return err
		}

		if account.Amount.LessThan(amount) {
			s.log.WithField("portfolio", portfolioID).
				Warnf("insufficient buying power: required %s, available %s", amount, account.Amount)
			return fmt.Errorf("%w: portfolio %s required %s, available %s",
				ErrInsufficientFunds, portfolioID, amount, account.Amount)
		}

		account.Amount = money.Standardize(account.Amount.Sub(amount))
		updated = account
		return s.repo.Save(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Add 增加购买力，返回更新后的账户
func (s *Service) Add(ctx context.Context, portfolioID string, amount decimal.Decimal) (*Account, error) {
	s.log.WithField("portfolio", portfolioID).Info("trying to add buying power")

	if amount.IsNegative() {
		s.log.Warn("addition amount cannot be negative")
		return nil, fmt.Errorf("%w: addition amount %s", ErrInvalidAmount, amount)
	}

	var updated *Account
	err := s.tx.WithinTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
		account, err := s.GetOrCreate(ctx, portfolioID)
		if err != nil {
			return err
		}

		account.Amount = money.Standardize(account.Amount.Add(amount))
		updated = account
		return s.repo.Save(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
