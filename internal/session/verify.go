package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rbxstore-api/internal/metrics"
	"rbxstore-api/internal/workflow"
)

// Verify checks the selected place for a gamepass priced at the expected
// amount and waits for the answer. A failed check is reported in the view,
// not as an error; errors are validation failures only.
func (s *Session) Verify(ctx context.Context) (workflow.View, error) {
	cmds, err := s.dispatch(workflow.VerifyRequested{})
	if err != nil {
		return workflow.View{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return workflow.View{}, ErrClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	s.settle(ctx, cmds)
	return s.Snapshot(), nil
}

func (s *Session) checkGamepass(ctx context.Context, c workflow.CheckGamepass) workflow.Msg {
	res, err := s.deps.Directory.CheckGamepass(ctx, c.UniverseID, c.ExpectedAmount)
	if err != nil {
		metrics.Verifications.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.logger.Info("gamepass check failed",
			zap.Int64("universe_id", c.UniverseID),
			zap.Int64("expected", c.ExpectedAmount),
			zap.Error(err))
		return workflow.VerifyFailed{
			PlaceID:  c.PlaceID,
			Quantity: c.Quantity,
			Reason:   workflow.ReasonTransient,
			Err:      upstreamError(err, "Gamepass check failed"),
		}
	}

	if res.Success && res.Gamepass != nil && res.Gamepass.Price == c.ExpectedAmount {
		metrics.Verifications.WithLabelValues(metrics.OutcomeSuccess).Inc()
		s.logger.Info("gamepass verified",
			zap.Int64("place_id", c.PlaceID),
			zap.Int64("gamepass_id", res.Gamepass.ID),
			zap.Int64("robux", c.Quantity))
		return workflow.VerifySucceeded{PlaceID: c.PlaceID, Quantity: c.Quantity, Gamepass: *res.Gamepass}
	}

	existing := res.AllGamepasses
	if res.Gamepass != nil {
		existing = append(existing, *res.Gamepass)
	}
	if len(existing) == 0 {
		metrics.Verifications.WithLabelValues(metrics.OutcomeNone).Inc()
		return workflow.VerifyFailed{
			PlaceID:  c.PlaceID,
			Quantity: c.Quantity,
			Reason:   workflow.ReasonNoGamepasses,
			Err: workflow.NewError(workflow.KindNotFound,
				fmt.Sprintf("No gamepasses found on this place. Create one priced at %d Robux.", c.ExpectedAmount)),
		}
	}

	metrics.Verifications.WithLabelValues(metrics.OutcomeMismatch).Inc()
	return workflow.VerifyFailed{
		PlaceID:  c.PlaceID,
		Quantity: c.Quantity,
		Reason:   workflow.ReasonPriceMismatch,
		Err: workflow.NewError(workflow.KindNotFound,
			fmt.Sprintf("No gamepass priced at %d Robux was found. Update the gamepass price.", c.ExpectedAmount)),
		Existing: existing,
	}
}
