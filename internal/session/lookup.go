package session

import (
	"context"

	"go.uber.org/zap"

	"rbxstore-api/internal/metrics"
	"rbxstore-api/internal/workflow"
)

// SetUsername records a keystroke in the username field. The lookup itself
// runs after the debounce delay, and only for the latest value.
func (s *Session) SetUsername(username string) (workflow.View, error) {
	return s.act(workflow.UsernameChanged{Username: username})
}

// dispatchLookup is the debouncer's fire callback. It runs the lookup and
// the place fetch that follows it on the timer's goroutine, counted in wg
// so Close waits for it.
func (s *Session) dispatchLookup(requestID uint64, username string) {
	defer s.debouncer.Done(requestID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	cmds, err := s.dispatch(workflow.LookupDispatched{RequestID: requestID, Username: username})
	if err != nil {
		return
	}
	s.settle(s.ctx, cmds)
}

func (s *Session) lookupUser(ctx context.Context, c workflow.LookupUser) workflow.Msg {
	identity, err := s.deps.Directory.LookupUser(ctx, c.Username)
	if err != nil {
		werr := upstreamError(err, "Roblox user not found")
		metrics.UserLookups.WithLabelValues(string(werr.Kind)).Inc()
		s.logger.Info("user lookup failed",
			zap.String("username", c.Username),
			zap.Uint64("request_id", c.RequestID),
			zap.Error(err))
		return workflow.LookupFailed{RequestID: c.RequestID, Err: werr}
	}

	metrics.UserLookups.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Debug("user resolved",
		zap.String("username", identity.Username),
		zap.Int64("user_id", identity.ID),
		zap.Uint64("request_id", c.RequestID))
	return workflow.LookupSucceeded{RequestID: c.RequestID, Identity: identity}
}
