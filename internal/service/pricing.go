package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"rbxstore-api/internal/cache"
	"rbxstore-api/internal/model"
	"rbxstore-api/internal/pricing"
)

const rateCacheKey = "rbx5:pricing:rate"

// RateFetcher loads the pricing rate from the storefront.
type RateFetcher interface {
	RobuxPricing(ctx context.Context) (*model.PricingRate, error)
}

// PricingService serves the Robux pricing rate from cache, refreshing it
// from upstream at most once per TTL.
type PricingService struct {
	upstream RateFetcher
	cache    cache.Cache
	ttl      time.Duration
	sfg      singleflight.Group // collapses concurrent misses
	logger   *zap.Logger
}

// NewPricingService creates a pricing service.
func NewPricingService(upstream RateFetcher, c cache.Cache, ttl time.Duration, logger *zap.Logger) *PricingService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingService{
		upstream: upstream,
		cache:    c,
		ttl:      ttl,
		logger:   logger.Named("pricing"),
	}
}

// Rate returns the current rate.
func (s *PricingService) Rate(ctx context.Context) (*model.PricingRate, error) {
	v, err, _ := s.sfg.Do(rateCacheKey, func() (interface{}, error) {
		data, err := s.cache.GetOrSet(ctx, rateCacheKey, s.ttl, func() ([]byte, error) {
			rate, err := s.upstream.RobuxPricing(ctx)
			if err != nil {
				return nil, err
			}
			s.logger.Debug("pricing rate refreshed", zap.String("price_per_hundred", rate.PricePerHundred.String()))
			return json.Marshal(rate)
		})
		if err != nil {
			return nil, err
		}

		var rate model.PricingRate
		if err := json.Unmarshal(data, &rate); err != nil {
			// Corrupt entry; drop it so the next call refetches.
			_ = s.cache.Delete(ctx, rateCacheKey)
			return nil, fmt.Errorf("decode cached rate: %w", err)
		}
		return &rate, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.PricingRate), nil
}

// Quote prices robux at the current rate.
func (s *PricingService) Quote(ctx context.Context, robux int64) (pricing.Quote, error) {
	if robux <= 0 || robux > pricing.MaxRobux {
		return pricing.Quote{}, fmt.Errorf("%w: %d", pricing.ErrOutOfRange, robux)
	}
	rate, err := s.Rate(ctx)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.NewQuote(robux, rate), nil
}
