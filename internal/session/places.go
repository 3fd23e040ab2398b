package session

import (
	"context"

	"go.uber.org/zap"

	"rbxstore-api/internal/metrics"
	"rbxstore-api/internal/workflow"
)

// SelectPlace picks one of the resolved user's places.
func (s *Session) SelectPlace(placeID int64) (workflow.View, error) {
	return s.act(workflow.PlaceSelected{PlaceID: placeID})
}

func (s *Session) fetchPlaces(ctx context.Context, c workflow.FetchPlaces) workflow.Msg {
	places, err := s.deps.Directory.UserPlaces(ctx, c.UserID)
	if err != nil {
		werr := upstreamError(err, "No places found for this user")
		metrics.PlaceFetches.WithLabelValues(string(werr.Kind)).Inc()
		s.logger.Info("place fetch failed", zap.Int64("user_id", c.UserID), zap.Error(err))
		return workflow.PlacesFailed{UserID: c.UserID, Err: werr}
	}

	metrics.PlaceFetches.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return workflow.PlacesLoaded{UserID: c.UserID, Places: places}
}
