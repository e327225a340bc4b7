// 文件: pkg/order/service.go
// 订单服务 - 生命周期管理
//
// 状态迁移只经过这里:
// - Cancel / FinalizeExecution 走仓库层 CAS，
//   并发撤单/执行同一订单只有一个能成功
// - 终态订单任何迁移都失败 (ErrInvalidState)

package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidState 订单状态不允许该操作
	ErrInvalidState = errors.New("order is not in a valid state for this operation")
)

// Service 订单服务
type Service struct {
	repo OrderRepository
	log  *logrus.Entry
}

// NewService 创建订单服务
func NewService(repo OrderRepository) *Service {
	return &Service{
		repo: repo,
		log:  logrus.WithField("component", "order"),
	}
}

// Create 创建订单 (状态 CREATED，价格此刻捕获)
func (s *Service) Create(ctx context.Context, portfolioID, instrumentID string, side OrderSide, quantity, price decimal.Decimal) (*Order, error) {
	order := NewOrder(portfolioID, instrumentID, side, quantity, price)
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.log.WithField("order", order.ID).Infof("created %s order for portfolio %s", side, portfolioID)
	return order, nil
}

// Get 查询订单
func (s *Service) Get(ctx context.Context, orderID int64) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	return order, nil
}

// GetForExecution 查询订单并校验可执行 (必须为 CREATED)
func (s *Service) GetForExecution(ctx context.Context, orderID int64) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != StatusCreated {
		s.log.WithField("order", orderID).
			Warnf("cannot execute order in %s status", order.Status)
		return nil, fmt.Errorf("%w: order %d is %s", ErrInvalidState, orderID, order.Status)
	}
	return order, nil
}

// Cancel 撤销订单 (仅 CREATED 可撤)
func (s *Service) Cancel(ctx context.Context, orderID int64) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, StatusCreated, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !updated {
		s.log.WithField("order", orderID).
			Warnf("cannot cancel order in %s status", order.Status)
		return nil, fmt.Errorf("%w: order %d is %s", ErrInvalidState, orderID, order.Status)
	}

	return s.Get(ctx, orderID)
}

// FinalizeExecution 落定执行结果 (CREATED -> EXECUTED)
// 调用方保证账本变更已经生效
func (s *Service) FinalizeExecution(ctx context.Context, order *Order) (*Order, error) {
	s.log.WithField("order", order.ID).Info("trying to finalize order execution")

	updated, err := s.repo.UpdateStatus(ctx, order.ID, StatusCreated, StatusExecuted)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("%w: order %d is no longer CREATED", ErrInvalidState, order.ID)
	}

	return s.Get(ctx, order.ID)
}

// ListPending 查询组合的全部 CREATED 订单
func (s *Service) ListPending(ctx context.Context, portfolioID string) ([]*Order, error) {
	return s.repo.ListByPortfolioAndStatus(ctx, portfolioID, StatusCreated)
}
