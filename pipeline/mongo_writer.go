package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aluiziolira/go-scrape-chunk/config"
	"github.com/aluiziolira/go-scrape-chunk/models"
)

// MongoWriter upserts records into a collection keyed by product_url, so
// re-running a crawl refreshes documents instead of duplicating them.
type MongoWriter struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoWriter connects and pings the server before returning.
func NewMongoWriter(cfg config.MongoConfig) (*MongoWriter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoWriter{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     slog.Default().With("component", "mongo_writer"),
	}, nil
}

// Write upserts the batch in one unordered bulk operation.
func (mw *MongoWriter) Write(records []*models.ProductRecord) error {
	ops := upsertModels(records)
	if len(ops) == 0 {
		return nil
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := mw.collection.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("mongodb bulk upsert: %w", err)
	}

	mw.count += len(ops)
	mw.logger.Debug("records upserted",
		"batch", len(ops),
		"inserted", res.UpsertedCount,
		"updated", res.ModifiedCount,
		"total", mw.count,
	)
	return nil
}

// Close disconnects the client.
func (mw *MongoWriter) Close() error {
	mw.logger.Info("mongodb writer closing", "total_records", mw.written())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return mw.client.Disconnect(ctx)
}

// Validate reports an error when nothing was written during the run.
func (mw *MongoWriter) Validate() error {
	if mw.written() == 0 {
		return fmt.Errorf("no records written to mongodb")
	}
	return nil
}

func (mw *MongoWriter) written() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.count
}

func upsertModels(records []*models.ProductRecord) []mongo.WriteModel {
	out := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		if r == nil || r.ProductURL == "" {
			continue
		}
		out = append(out, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "product_url", Value: r.ProductURL}}).
			SetReplacement(r).
			SetUpsert(true))
	}
	return out
}
