package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Options selects and configures the order store backend.
type Options struct {
	Driver          string // sqlite, postgres, mysql or mongodb
	DSN             string
	MongoDatabase   string
	MongoCollection string
}

// Open connects to the configured order store.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (OrderRepository, error) {
	switch opts.Driver {
	case "mongodb", "mongo":
		repo, err := NewMongoDBOrderRepository(ctx, opts.DSN, opts.MongoDatabase, opts.MongoCollection, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case DialectSQLite, DialectPostgres, DialectMySQL:
		repo, err := NewSQLOrderRepository(ctx, opts.Driver, opts.DSN, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported order database driver %q", opts.Driver)
	}
}
