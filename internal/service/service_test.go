package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"rbxstore-api/internal/cache"
	"rbxstore-api/internal/model"
	"rbxstore-api/internal/outbox"
	"rbxstore-api/internal/pricing"
	"rbxstore-api/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingFetcher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (f *countingFetcher) RobuxPricing(ctx context.Context) (*model.PricingRate, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return model.NewPricingRate(13000), nil
}

func TestPricingService_CachesRate(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	defer rc.Close()
	up := &countingFetcher{}
	svc := NewPricingService(up, rc, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rate, err := svc.Rate(ctx)
		require.NoError(t, err)
		assert.Equal(t, "13000", rate.PricePerHundred.String())
	}
	assert.Equal(t, int32(1), up.calls.Load())

	mr.FastForward(2 * time.Minute)
	_, err := svc.Rate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), up.calls.Load())
}

func TestPricingService_CollapsesConcurrentMisses(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	up := &countingFetcher{delay: 50 * time.Millisecond}
	svc := NewPricingService(up, mem, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Rate(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), up.calls.Load())
}

func TestPricingService_ErrorNotCached(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	up := &countingFetcher{err: errors.New("upstream down")}
	svc := NewPricingService(up, mem, time.Minute, nil)

	_, err := svc.Rate(context.Background())
	assert.Error(t, err)
	_, err = svc.Rate(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(2), up.calls.Load())
}

func TestPricingService_Quote(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	svc := NewPricingService(&countingFetcher{}, mem, time.Minute, nil)

	q, err := svc.Quote(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, int64(65000), q.Price)
	assert.Equal(t, int64(715), q.GamepassAmount)

	_, err = svc.Quote(context.Background(), 0)
	assert.ErrorIs(t, err, pricing.ErrOutOfRange)

	_, err = svc.Quote(context.Background(), pricing.MaxRobux+1)
	assert.ErrorIs(t, err, pricing.ErrOutOfRange)
}

func newCheckoutFixture(t *testing.T) (*CheckoutService, *outbox.Outbox, repository.OrderRepository) {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	box := outbox.New(mem, time.Minute)

	repo, err := repository.NewSQLOrderRepository(context.Background(), repository.DialectSQLite,
		filepath.Join(t.TempDir(), "orders.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return NewCheckoutService(box, repo, nil), box, repo
}

func checkoutItem() model.CheckoutItem {
	return model.CheckoutItem{
		ServiceType:    model.ServiceTypeRobux,
		ServiceID:      model.ServiceIDRBX5,
		ServiceName:    model.ServiceNameRBX5,
		Quantity:       1,
		UnitPrice:      65000,
		RobloxUsername: "builderman",
		Rbx5Details:    model.Rbx5Details{RobuxAmount: 500, GamepassAmount: 715, GamepassID: 77, UserID: 42},
	}
}

func TestCheckoutService_ClaimOnce(t *testing.T) {
	svc, box, _ := newCheckoutFixture(t)
	ctx := context.Background()

	token, err := box.Write(ctx, checkoutItem())
	require.NoError(t, err)

	order, err := svc.Claim(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, token, order.HandoffToken)
	assert.Equal(t, int64(65000), order.UnitPrice)
	assert.Equal(t, int64(42), order.RobloxUserID)

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Details, stored.Details)

	_, err = svc.Claim(ctx, token)
	assert.ErrorIs(t, err, outbox.ErrHandoffNotFound)

	orders, err := svc.ListOrders(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

// failingRepo fails the first failures Create calls with err.
type failingRepo struct {
	repository.OrderRepository
	mu       sync.Mutex
	failures int
	err      error
}

func (r *failingRepo) Create(ctx context.Context, order *model.Order) error {
	r.mu.Lock()
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return r.err
	}
	r.mu.Unlock()
	return r.OrderRepository.Create(ctx, order)
}

func TestCheckoutService_ClaimRetryAfterStoreFailure(t *testing.T) {
	_, box, repo := newCheckoutFixture(t)
	flaky := &failingRepo{OrderRepository: repo, failures: 1, err: errors.New("db down")}
	svc := NewCheckoutService(box, flaky, nil)
	ctx := context.Background()

	token, err := box.Write(ctx, checkoutItem())
	require.NoError(t, err)

	_, err = svc.Claim(ctx, token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, outbox.ErrHandoffNotFound)

	order, err := svc.Claim(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, token, order.HandoffToken)
	assert.Equal(t, int64(715), order.Details.GamepassAmount)

	_, err = svc.Claim(ctx, token)
	assert.ErrorIs(t, err, outbox.ErrHandoffNotFound)
}

func TestCheckoutService_DuplicateOrderNotRestored(t *testing.T) {
	_, box, repo := newCheckoutFixture(t)
	dup := &failingRepo{OrderRepository: repo, failures: 1, err: repository.ErrDuplicateOrder}
	svc := NewCheckoutService(box, dup, nil)
	ctx := context.Background()

	token, err := box.Write(ctx, checkoutItem())
	require.NoError(t, err)

	_, err = svc.Claim(ctx, token)
	assert.ErrorIs(t, err, repository.ErrDuplicateOrder)

	_, err = svc.Claim(ctx, token)
	assert.ErrorIs(t, err, outbox.ErrHandoffNotFound)
}

type fakeSessions struct {
	calls  int
	maxIdl time.Duration
}

func (f *fakeSessions) ReapIdle(maxIdle time.Duration) int {
	f.calls++
	f.maxIdl = maxIdle
	return 2
}

func TestSessionReaper_RunNow(t *testing.T) {
	_, _, repo := newCheckoutFixture(t)
	ctx := context.Background()
	old := model.NewOrder("old", "tok-old", checkoutItem(), time.Now().Add(-48*time.Hour))
	require.NoError(t, repo.Create(ctx, old))

	sessions := &fakeSessions{}
	r := NewSessionReaper(sessions, repo, ReaperConfig{SessionIdleTTL: 10 * time.Minute, OrderPendingExpiry: 24 * time.Hour}, nil)

	res := r.RunNow(ctx)

	assert.Equal(t, ReapResult{SessionsClosed: 2, OrdersExpired: 1}, res)
	assert.Equal(t, 10*time.Minute, sessions.maxIdl)
	got, err := repo.GetByID(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusExpired, got.Status)
}

func TestSessionReaper_StartStop(t *testing.T) {
	r := NewSessionReaper(&fakeSessions{}, nil, ReaperConfig{Interval: time.Hour}, nil)

	r.Start()
	r.Start()
	r.Stop()
	r.Stop()
}
