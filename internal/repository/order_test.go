package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbxstore-api/internal/model"
	"rbxstore-api/pkg/uid"
)

func sampleOrder(createdAt time.Time) *model.Order {
	item := model.CheckoutItem{
		ServiceType:    model.ServiceTypeRobux,
		ServiceID:      model.ServiceIDRBX5,
		ServiceName:    model.ServiceNameRBX5,
		Quantity:       1,
		UnitPrice:      65000,
		RobloxUsername: "builderman",
		Rbx5Details: model.Rbx5Details{
			RobuxAmount:     500,
			GamepassAmount:  715,
			GamepassID:      77,
			GamepassName:    "Donate",
			PlaceID:         1001,
			PlaceName:       "Obby",
			UniverseID:      9001,
			UserID:          42,
			PricePerHundred: "13000",
		},
	}
	return model.NewOrder(uid.New(), uid.Token(), item, createdAt)
}

func openSQLite(t *testing.T) *SQLOrderRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.db")
	repo, err := NewSQLOrderRepository(context.Background(), DialectSQLite, path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// repos returns the SQLite store and, when MONGO_TEST_URI is set, a MongoDB store.
func repos(t *testing.T) map[string]OrderRepository {
	t.Helper()
	out := map[string]OrderRepository{"sqlite": openSQLite(t)}

	if uri := os.Getenv("MONGO_TEST_URI"); uri != "" {
		coll := "orders_" + uid.Token()
		m, err := NewMongoDBOrderRepository(context.Background(), uri, "rbxstore_test", coll, nil)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = m.collection.Drop(context.Background())
			_ = m.Close()
		})
		out["mongodb"] = m
	}
	return out
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			created := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
			o := sampleOrder(created)
			require.NoError(t, repo.Create(ctx, o))

			got, err := repo.GetByID(ctx, o.ID)
			require.NoError(t, err)
			assert.Equal(t, o.HandoffToken, got.HandoffToken)
			assert.Equal(t, int64(65000), got.UnitPrice)
			assert.Equal(t, o.Details, got.Details)
			assert.Equal(t, model.OrderStatusPendingPayment, got.Status)
			assert.True(t, created.Equal(got.CreatedAt))

			_, err = repo.GetByID(ctx, "missing")
			assert.ErrorIs(t, err, ErrOrderNotFound)
		})
	}
}

func TestOrderRepository_DuplicateHandoff(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			o := sampleOrder(time.Now())
			require.NoError(t, repo.Create(ctx, o))

			dup := sampleOrder(time.Now())
			dup.HandoffToken = o.HandoffToken
			assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateOrder)
		})
	}
}

func TestOrderRepository_ListRecentAndStats(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			var ids []string
			for i := 0; i < 3; i++ {
				o := sampleOrder(base.Add(time.Duration(i) * time.Hour))
				require.NoError(t, repo.Create(ctx, o))
				ids = append(ids, o.ID)
			}

			orders, err := repo.ListRecent(ctx, "", 2)
			require.NoError(t, err)
			require.Len(t, orders, 2)
			assert.Equal(t, ids[2], orders[0].ID)
			assert.Equal(t, ids[1], orders[1].ID)

			orders, err = repo.ListRecent(ctx, model.OrderStatusExpired, 10)
			require.NoError(t, err)
			assert.Empty(t, orders)

			stats, err := repo.GetStats(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(3), stats["total_orders"])
			assert.Equal(t, int64(3), stats["orders_by_status"].(map[string]int64)[model.OrderStatusPendingPayment])
			assert.Equal(t, int64(195000), stats["value_by_status"].(map[string]int64)[model.OrderStatusPendingPayment])
		})
	}
}

func TestSQLOrderRepository_ExpirePending(t *testing.T) {
	ctx := context.Background()
	repo := openSQLite(t)
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	old := sampleOrder(now.Add(-25 * time.Hour))
	fresh := sampleOrder(now.Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))

	n, err := repo.ExpirePending(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusExpired, got.Status)

	got, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPendingPayment, got.Status)

	n, err = repo.ExpirePending(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLOrderRepository_Rebind(t *testing.T) {
	r := &SQLOrderRepository{dialect: DialectPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", r.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	r.dialect = DialectMySQL
	assert.Equal(t, "a = ?", r.rebind("a = ?"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle"}, nil)
	assert.Error(t, err)
}
