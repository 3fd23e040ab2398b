package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rbxstore-api/internal/metrics"
	"rbxstore-api/internal/model"
	"rbxstore-api/internal/workflow"
)

// SetQuantity sets a custom Robux quantity.
func (s *Session) SetQuantity(robux int64) (workflow.View, error) {
	return s.act(workflow.QuantityChanged{Robux: robux})
}

// SelectPackage sets the quantity from a preset package, matched by name.
func (s *Session) SelectPackage(name string) (workflow.View, error) {
	for _, p := range s.cfg.Packages {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return s.act(workflow.QuantityChanged{Robux: p.Robux, PackageName: p.Name})
		}
	}
	return workflow.View{}, workflow.NewError(workflow.KindValidation, fmt.Sprintf("unknown package %q", name))
}

// Checkout builds the checkout item and writes it to the outbox. The
// returned token is what the checkout page claims the item with.
func (s *Session) Checkout(ctx context.Context) (string, model.CheckoutItem, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", model.CheckoutItem{}, ErrClosed
	}
	item, err := s.state.BuildCheckoutPayload()
	s.mu.Unlock()
	if err != nil {
		metrics.Checkouts.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return "", model.CheckoutItem{}, err
	}

	token, err := s.deps.Outbox.Write(ctx, item)
	if err != nil {
		metrics.Checkouts.WithLabelValues(metrics.OutcomeFailed).Inc()
		return "", model.CheckoutItem{}, fmt.Errorf("checkout handoff: %w", err)
	}

	metrics.Checkouts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("checkout handed off",
		zap.String("username", item.RobloxUsername),
		zap.Int64("robux", item.Rbx5Details.RobuxAmount),
		zap.Int64("unit_price", item.UnitPrice))
	return token, item, nil
}

func (s *Session) fetchRate(ctx context.Context) workflow.Msg {
	rate, err := s.deps.Rates.Rate(ctx)
	if err != nil {
		s.logger.Warn("pricing rate fetch failed", zap.Error(err))
		return workflow.RateFailed{Err: upstreamError(err, "Pricing unavailable")}
	}
	return workflow.RateLoaded{Rate: rate}
}
