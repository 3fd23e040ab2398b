// Package outbox hands a checkout item from the RBX5 page to the checkout page.
// A handoff is written once under a fresh token and can be taken exactly once.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rbxstore-api/internal/cache"
	"rbxstore-api/internal/model"
	"rbxstore-api/pkg/uid"
)

// ErrHandoffNotFound is returned for unknown, expired or already taken tokens.
var ErrHandoffNotFound = errors.New("checkout handoff not found")

const keyPrefix = "handoff:"

// Outbox stores checkout items in a cache.Cache.
type Outbox struct {
	cache cache.Cache
	ttl   time.Duration
	newID func() string
}

// New creates an outbox whose handoffs live for ttl.
func New(c cache.Cache, ttl time.Duration) *Outbox {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Outbox{cache: c, ttl: ttl, newID: uid.Token}
}

// Write stores item under a new token.
func (o *Outbox) Write(ctx context.Context, item model.CheckoutItem) (string, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("encode handoff: %w", err)
	}

	token := o.newID()
	ok, err := o.cache.SetNX(ctx, keyPrefix+token, data, o.ttl)
	if err != nil {
		return "", fmt.Errorf("write handoff: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("write handoff: token %s already in use", token)
	}
	return token, nil
}

// TakeOnce returns the item for token and removes it.
func (o *Outbox) TakeOnce(ctx context.Context, token string) (model.CheckoutItem, error) {
	var item model.CheckoutItem
	if !uid.IsValid(token) {
		return item, ErrHandoffNotFound
	}

	data, err := o.cache.Take(ctx, keyPrefix+token)
	if errors.Is(err, cache.ErrCacheMiss) {
		return item, ErrHandoffNotFound
	}
	if err != nil {
		return item, fmt.Errorf("take handoff: %w", err)
	}

	if err := json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("decode handoff: %w", err)
	}
	return item, nil
}

// Restore puts a taken item back under its token, for a consumer that could
// not finish with it. The handoff gets a fresh TTL. Restoring over a live
// token fails.
func (o *Outbox) Restore(ctx context.Context, token string, item model.CheckoutItem) error {
	if !uid.IsValid(token) {
		return ErrHandoffNotFound
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode handoff: %w", err)
	}

	ok, err := o.cache.SetNX(ctx, keyPrefix+token, data, o.ttl)
	if err != nil {
		return fmt.Errorf("restore handoff: %w", err)
	}
	if !ok {
		return fmt.Errorf("restore handoff: token %s already in use", token)
	}
	return nil
}
