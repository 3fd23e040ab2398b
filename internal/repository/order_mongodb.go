package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"rbxstore-api/internal/model"
)

// MongoDBOrderRepository implements OrderRepository using MongoDB.
type MongoDBOrderRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
	logger     *zap.Logger
}

var _ OrderRepository = (*MongoDBOrderRepository)(nil)

// NewMongoDBOrderRepository connects, pings and ensures indexes.
func NewMongoDBOrderRepository(ctx context.Context, uri, database, collection string, logger *zap.Logger) (*MongoDBOrderRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("orders")

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "handoff_token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn("failed to create indexes", zap.Error(err))
	}

	logger.Info("order repository initialized",
		zap.String("dialect", "mongodb"),
		zap.String("database", database),
		zap.String("collection", collection))
	return &MongoDBOrderRepository{
		client:     client,
		collection: coll,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// Create inserts a new order.
func (r *MongoDBOrderRepository) Create(ctx context.Context, o *model.Order) error {
	doc := *o
	doc.CreatedAt = o.CreatedAt.UTC()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// GetByID returns the order with id.
func (r *MongoDBOrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}

// ListRecent returns up to limit orders, newest first.
func (r *MongoDBOrderRepository) ListRecent(ctx context.Context, status string, limit int) ([]*model.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*model.Order, 0, limit)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// GetStats returns totals per status.
func (r *MongoDBOrderRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "value", Value: bson.D{{Key: "$sum", Value: "$unit_price"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
		Value  int64  `bson:"value"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	var total int64
	byStatus := make(map[string]int64)
	revenue := make(map[string]int64)
	for _, g := range groups {
		byStatus[g.Status] = g.Count
		revenue[g.Status] = g.Value
		total += g.Count
	}

	stats := map[string]interface{}{
		"backend":          "mongodb",
		"total_orders":     total,
		"orders_by_status": byStatus,
		"value_by_status":  revenue,
	}

	var last model.Order
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&last); err == nil {
		stats["last_order_at"] = last.CreatedAt.UTC()
	}

	return stats, nil
}

// ExpirePending marks stale pending_payment orders as expired.
func (r *MongoDBOrderRepository) ExpirePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := r.now().Add(-olderThan).UTC()

	filter := bson.M{
		"status":     model.OrderStatusPendingPayment,
		"created_at": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{"status": model.OrderStatusExpired}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire orders: %w", err)
	}
	if result.ModifiedCount > 0 {
		r.logger.Info("expired pending orders",
			zap.Int64("count", result.ModifiedCount),
			zap.Duration("older_than", olderThan))
	}
	return result.ModifiedCount, nil
}

func (r *MongoDBOrderRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (r *MongoDBOrderRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
