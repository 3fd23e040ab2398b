package repository

import (
	"context"
	"errors"
	"time"

	"rbxstore-api/internal/model"
)

var (
	// ErrOrderNotFound is returned when no order has the requested id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateOrder is returned when an order id or handoff token already exists.
	ErrDuplicateOrder = errors.New("order already exists")
)

// OrderRepository persists claimed RBX5 checkout orders.
type OrderRepository interface {
	// Create inserts a new order.
	Create(ctx context.Context, order *model.Order) error

	// GetByID returns ErrOrderNotFound if the order does not exist.
	GetByID(ctx context.Context, id string) (*model.Order, error)

	// ListRecent returns the newest orders first. An empty status matches all.
	ListRecent(ctx context.Context, status string, limit int) ([]*model.Order, error)

	// GetStats returns order counts for the admin dashboard.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// ExpirePending marks pending_payment orders older than olderThan as expired.
	ExpirePending(ctx context.Context, olderThan time.Duration) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
