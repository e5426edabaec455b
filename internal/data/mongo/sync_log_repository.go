// Package mongo provides the MongoDB implementation of the append-only
// attachment sync log.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/procure-finance-sync/internal/domain/synclog"
)

const (
	// SyncLogCollectionName is the name of the sync log collection in MongoDB
	SyncLogCollectionName = "sync_log_entries"
)

// SyncLogRepository implements the synclog.Repository interface for MongoDB
type SyncLogRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewSyncLogRepository creates a new MongoDB sync log repository
func NewSyncLogRepository(logger *slog.Logger, db *mongo.Database) synclog.Repository {
	return &SyncLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a sync log entry. Entries are immutable once written.
func (r *SyncLogRepository) Create(ctx context.Context, entry *synclog.Entry) error {
	collection := r.db.Collection(SyncLogCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		r.logger.Error("Failed to create sync log entry",
			"file_name", entry.FileName,
			"error", err)
		return fmt.Errorf("failed to create sync log entry: %w", err)
	}

	return nil
}

// ListBySource retrieves paginated entries for a source entity, newest first
func (r *SyncLogRepository) ListBySource(ctx context.Context, sourceTable string, sourceID int64, limit, offset int) ([]*synclog.Entry, error) {
	filter := bson.M{"source_table": sourceTable, "source_id": sourceID}
	return r.list(ctx, filter, limit, offset)
}

// ListByDest retrieves paginated entries for a destination entity, newest first
func (r *SyncLogRepository) ListByDest(ctx context.Context, destTable string, destID int64, limit, offset int) ([]*synclog.Entry, error) {
	filter := bson.M{"dest_table": destTable, "dest_id": destID}
	return r.list(ctx, filter, limit, offset)
}

func (r *SyncLogRepository) list(ctx context.Context, filter bson.M, limit, offset int) ([]*synclog.Entry, error) {
	collection := r.db.Collection(SyncLogCollectionName)

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list sync log entries", "filter", filter, "error", err)
		return nil, fmt.Errorf("failed to list sync log entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*synclog.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode sync log entries", "error", err)
		return nil, fmt.Errorf("failed to decode sync log entries: %w", err)
	}

	return entries, nil
}
