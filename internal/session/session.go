// Package session runs one buyer's RBX5 workflow: it feeds user actions and
// upstream results through workflow.Update and executes the returned effects.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"rbxstore-api/internal/metrics"
	"rbxstore-api/internal/model"
	"rbxstore-api/internal/roblox"
	"rbxstore-api/internal/workflow"
)

var (
	// ErrClosed is returned by actions on a closed session.
	ErrClosed = errors.New("session closed")
	// ErrSessionNotFound is returned by Manager for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
)

// UserDirectory resolves Roblox users, their places and their gamepasses.
type UserDirectory interface {
	LookupUser(ctx context.Context, username string) (model.UserIdentity, error)
	UserPlaces(ctx context.Context, userID int64) ([]model.Place, error)
	CheckGamepass(ctx context.Context, universeID, expectedRobux int64) (roblox.GamepassCheck, error)
}

// RateSource provides the storefront pricing rate.
type RateSource interface {
	Rate(ctx context.Context) (*model.PricingRate, error)
}

// Outbox receives checkout items for the checkout page.
type Outbox interface {
	Write(ctx context.Context, item model.CheckoutItem) (string, error)
}

// Deps are the collaborators shared by all sessions.
type Deps struct {
	Directory UserDirectory
	Rates     RateSource
	Outbox    Outbox
	Logger    *zap.Logger
}

// Config tunes session behaviour.
type Config struct {
	LookupDebounce time.Duration
	EffectTimeout  time.Duration
	Packages       []model.Package
	// MaxRobux caps the quantity a buyer can enter. Zero means pricing.MaxRobux.
	MaxRobux       int64
	Clock          clockwork.Clock
}

func (c Config) withDefaults() Config {
	if c.LookupDebounce <= 0 {
		c.LookupDebounce = time.Second
	}
	if c.EffectTimeout <= 0 {
		c.EffectTimeout = 15 * time.Second
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return c
}

// Session is one buyer's checkout form. All state transitions are serialised
// under mu; upstream calls run without it.
type Session struct {
	ID string

	mu       sync.Mutex
	state    workflow.State
	closed   bool
	lastSeen time.Time

	deps      Deps
	cfg       Config
	logger    *zap.Logger
	debouncer *workflow.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a session. Call Start to load the pricing rate.
func New(id string, deps Deps, cfg Config) *Session {
	cfg = cfg.withDefaults()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       id,
		deps:     deps,
		cfg:      cfg,
		logger:   deps.Logger.Named("session").With(zap.String("session_id", id)),
		ctx:      ctx,
		cancel:   cancel,
		state:    workflow.State{MaxRobux: cfg.MaxRobux},
		lastSeen: cfg.Clock.Now(),
	}
	s.debouncer = workflow.NewDebouncer(cfg.Clock, cfg.LookupDebounce, s.dispatchLookup)
	return s
}

// Start fetches the pricing rate in the background.
func (s *Session) Start() {
	s.spawn([]workflow.Cmd{workflow.FetchRate{}})
}

// Snapshot returns the current view.
func (s *Session) Snapshot() workflow.View {
	return s.State().View()
}

// State returns a copy of the current state.
func (s *Session) State() workflow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close stops the lookup timer and cancels in-flight effects. Results that
// arrive afterwards are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Close()
	s.cancel()
	s.wg.Wait()
	s.logger.Debug("session closed")
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// LastSeen returns the time of the last Manager lookup.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	now := s.cfg.Clock.Now()
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// dispatch applies m and returns the effects that need I/O. Timer effects
// are applied to the debouncer before the lock is released so their order
// matches the order of transitions.
func (s *Session) dispatch(m workflow.Msg) ([]workflow.Cmd, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	prev := s.state
	next, cmds, err := workflow.Update(prev, m)
	if err != nil {
		return nil, err
	}
	s.state = next
	if prev.Warning == nil && next.Warning != nil && next.Warning.Kind == workflow.KindStateInvalidated {
		metrics.Invalidations.Inc()
		s.logger.Info("verification invalidated",
			zap.Int64("verified_for", next.Verification.VerifiedForQuantity),
			zap.Int64("robux", next.Robux))
	}

	var io []workflow.Cmd
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case workflow.ScheduleLookup:
			s.debouncer.Schedule(c.Username)
		case workflow.CancelLookup:
			s.debouncer.Cancel()
		default:
			io = append(io, cmd)
		}
	}
	return io, nil
}

// act applies a user action, starts its effects in the background and
// returns the resulting view.
func (s *Session) act(m workflow.Msg) (workflow.View, error) {
	cmds, err := s.dispatch(m)
	if err != nil {
		return workflow.View{}, err
	}
	s.spawn(cmds)
	return s.Snapshot(), nil
}

func (s *Session) spawn(cmds []workflow.Cmd) {
	if len(cmds) == 0 {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.settle(s.ctx, cmds)
	}()
}

// settle runs cmds one by one, feeds each result back through dispatch and
// recurses into the follow-up effects. It stops once the session is closed.
func (s *Session) settle(ctx context.Context, cmds []workflow.Cmd) {
	for _, cmd := range cmds {
		msg := s.perform(ctx, cmd)
		if msg == nil {
			continue
		}
		next, err := s.dispatch(msg)
		if errors.Is(err, ErrClosed) {
			return
		}
		if err != nil {
			s.logger.Warn("effect result rejected", zap.String("msg", msgName(msg)), zap.Error(err))
			continue
		}
		s.settle(ctx, next)
	}
}

// perform executes one I/O effect and returns the message carrying its result.
func (s *Session) perform(ctx context.Context, cmd workflow.Cmd) workflow.Msg {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EffectTimeout)
	defer cancel()

	switch c := cmd.(type) {
	case workflow.LookupUser:
		return s.lookupUser(ctx, c)
	case workflow.FetchPlaces:
		return s.fetchPlaces(ctx, c)
	case workflow.FetchRate:
		return s.fetchRate(ctx)
	case workflow.CheckGamepass:
		return s.checkGamepass(ctx, c)
	}
	s.logger.Error("unhandled effect", zap.String("cmd", msgName(cmd)))
	return nil
}

// wait blocks until background effects finish.
func (s *Session) wait() {
	s.wg.Wait()
}
