package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"rbxstore-api/internal/repository"
)

// IdleSessions is the part of session.Manager the reaper needs.
type IdleSessions interface {
	ReapIdle(maxIdle time.Duration) int
}

// ReaperConfig holds configuration for the reaper.
type ReaperConfig struct {
	// SessionIdleTTL closes checkout sessions not touched for this long.
	SessionIdleTTL time.Duration

	// OrderPendingExpiry expires pending_payment orders older than this.
	// Zero disables order expiry.
	OrderPendingExpiry time.Duration

	// Interval is how often the reaper runs.
	Interval time.Duration
}

// DefaultReaperConfig returns the default reaper configuration.
func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		SessionIdleTTL:     30 * time.Minute,
		OrderPendingExpiry: 24 * time.Hour,
		Interval:           time.Minute,
	}
}

// ReapResult reports what one run cleaned up.
type ReapResult struct {
	SessionsClosed int   `json:"sessions_closed"`
	OrdersExpired  int64 `json:"orders_expired"`
}

// SessionReaper periodically closes idle sessions and expires stale orders.
type SessionReaper struct {
	sessions IdleSessions
	orders   repository.OrderRepository
	config   ReaperConfig
	logger   *zap.Logger

	ticker    *time.Ticker
	stopCh    chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewSessionReaper creates a reaper. orders may be nil.
func NewSessionReaper(sessions IdleSessions, orders repository.OrderRepository, config ReaperConfig, logger *zap.Logger) *SessionReaper {
	defaults := DefaultReaperConfig()
	if config.SessionIdleTTL <= 0 {
		config.SessionIdleTTL = defaults.SessionIdleTTL
	}
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionReaper{
		sessions: sessions,
		orders:   orders,
		config:   config,
		logger:   logger.Named("reaper"),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the reaper loop.
func (r *SessionReaper) Start() {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return
	}
	r.isRunning = true
	r.ticker = time.NewTicker(r.config.Interval)
	r.mu.Unlock()

	r.logger.Info("reaper started",
		zap.Duration("interval", r.config.Interval),
		zap.Duration("session_idle_ttl", r.config.SessionIdleTTL),
		zap.Duration("order_pending_expiry", r.config.OrderPendingExpiry))

	go r.run()
}

func (r *SessionReaper) run() {
	defer close(r.done)
	for {
		select {
		case <-r.ticker.C:
			r.RunNow(context.Background())
		case <-r.stopCh:
			r.logger.Info("reaper stopped")
			return
		}
	}
}

// RunNow performs one cleanup pass.
func (r *SessionReaper) RunNow(ctx context.Context) ReapResult {
	var res ReapResult

	res.SessionsClosed = r.sessions.ReapIdle(r.config.SessionIdleTTL)
	if res.SessionsClosed > 0 {
		r.logger.Info("closed idle sessions", zap.Int("count", res.SessionsClosed))
	}

	if r.orders != nil && r.config.OrderPendingExpiry > 0 {
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		n, err := r.orders.ExpirePending(ctx, r.config.OrderPendingExpiry)
		if err != nil {
			r.logger.Error("order expiry failed", zap.Error(err))
		}
		res.OrdersExpired = n
	}
	return res
}

// Stop stops the loop and waits for it to exit.
func (r *SessionReaper) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		running := r.isRunning
		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.stopCh)
		r.isRunning = false
		r.mu.Unlock()

		if running {
			<-r.done
		}
	})
}
