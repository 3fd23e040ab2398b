package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rbxstore-api/internal/metrics"
	"rbxstore-api/internal/model"
	"rbxstore-api/internal/outbox"
	"rbxstore-api/internal/repository"
	"rbxstore-api/pkg/uid"
)

const restoreTimeout = 5 * time.Second

// HandoffTaker consumes checkout handoffs.
type HandoffTaker interface {
	TakeOnce(ctx context.Context, token string) (model.CheckoutItem, error)
	Restore(ctx context.Context, token string, item model.CheckoutItem) error
}

// CheckoutService turns claimed handoffs into pending orders.
type CheckoutService struct {
	handoffs HandoffTaker
	orders   repository.OrderRepository
	now      func() time.Time
	logger   *zap.Logger
}

// NewCheckoutService creates a checkout service.
func NewCheckoutService(handoffs HandoffTaker, orders repository.OrderRepository, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		handoffs: handoffs,
		orders:   orders,
		now:      time.Now,
		logger:   logger.Named("checkout"),
	}
}

// Claim takes the handoff for token and persists it as a pending_payment
// order. A token can be claimed once; later claims get outbox.ErrHandoffNotFound.
// If the order cannot be stored the handoff is put back so the claim can be retried.
func (s *CheckoutService) Claim(ctx context.Context, token string) (*model.Order, error) {
	item, err := s.handoffs.TakeOnce(ctx, token)
	if err != nil {
		outcome := metrics.OutcomeFailed
		if errors.Is(err, outbox.ErrHandoffNotFound) {
			outcome = metrics.OutcomeNotFound
		}
		metrics.HandoffClaims.WithLabelValues(outcome).Inc()
		return nil, err
	}

	order := model.NewOrder(uid.New(), token, item, s.now().UTC())
	if err := s.orders.Create(ctx, order); err != nil {
		metrics.HandoffClaims.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.logger.Error("failed to persist claimed order",
			zap.String("handoff_token", token),
			zap.String("roblox_username", item.RobloxUsername),
			zap.Error(err))
		if !errors.Is(err, repository.ErrDuplicateOrder) {
			s.restore(token, item)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	metrics.HandoffClaims.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("handoff claimed",
		zap.String("order_id", order.ID),
		zap.String("roblox_username", order.RobloxUsername),
		zap.Int64("robux", order.Details.RobuxAmount),
		zap.Int64("unit_price", order.UnitPrice))
	return order, nil
}

// restore runs detached from the request context, which may be the reason
// Create failed.
func (s *CheckoutService) restore(token string, item model.CheckoutItem) {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()
	if err := s.handoffs.Restore(ctx, token, item); err != nil {
		s.logger.Error("failed to restore handoff after order failure",
			zap.String("handoff_token", token),
			zap.Error(err))
		return
	}
	s.logger.Info("handoff restored for retry", zap.String("handoff_token", token))
}

// GetOrder returns a persisted order.
func (s *CheckoutService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListOrders returns the newest orders, optionally filtered by status.
func (s *CheckoutService) ListOrders(ctx context.Context, status string, limit int) ([]*model.Order, error) {
	return s.orders.ListRecent(ctx, status, limit)
}
