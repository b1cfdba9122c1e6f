package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mx-space/landing/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const emailIndexName = "email_unique"

// Connect builds the Mongo client. A failed ping is logged, not returned: the
// process keeps serving and store errors surface per request.
func Connect(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*mongo.Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Store.Timeout

	opts := options.Client().
		ApplyURI(cfg.Store.URI).
		SetAppName("landing").
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		log.Error("mongo ping failed, continuing without a verified connection",
			zap.String("database", cfg.Store.Database),
			zap.Error(err),
		)
	} else {
		log.Info("mongo connected", zap.String("database", cfg.Store.Database))
	}
	return client, nil
}

// Collection returns the subscriber collection named in cfg.
func Collection(client *mongo.Client, cfg *config.AppConfig) *mongo.Collection {
	return client.Database(cfg.Store.Database).Collection(cfg.Store.Collection)
}

// EnsureIndexes creates the unique email index.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName(emailIndexName).SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

// Disconnect closes the client, waiting at most timeout.
func Disconnect(client *mongo.Client, timeout time.Duration) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Disconnect(ctx)
}
