package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"terarelay-bot/internal/storage/models"
)

const forwardedCollectionName = "forwarded_posts"

// MongoForwardRepository implements ForwardStore for MongoDB.
type MongoForwardRepository struct {
	collection *mongo.Collection
}

// NewMongoForwardRepository creates a new MongoDB forward-record repository.
func NewMongoForwardRepository(db *mongo.Database) *MongoForwardRepository {
	return &MongoForwardRepository{
		collection: db.Collection(forwardedCollectionName),
	}
}

// EnsureIndexes creates the unique (chat_id, message_id) index. Safe to
// call on every startup; creation is a no-op when the index exists.
func (r *MongoForwardRepository) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "chat_id", Value: 1},
			{Key: "message_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create forwarded_posts index: %w", err)
	}
	return nil
}

// IsForwarded reports whether a record exists for the source post.
func (r *MongoForwardRepository) IsForwarded(ctx context.Context, chatID string, messageID int) (bool, error) {
	filter := bson.M{"chat_id": chatID, "message_id": messageID}

	var record models.ForwardRecord
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up forward record %s:%d: %w", chatID, messageID, err)
	}
	return true, nil
}

// MarkForwarded upserts the forward record for the source post. The upsert
// keeps a rerun after a crash between delivery and commit from failing on
// the unique index.
func (r *MongoForwardRepository) MarkForwarded(ctx context.Context, chatID string, messageID int) error {
	record := models.ForwardRecord{
		ChatID:      chatID,
		MessageID:   messageID,
		ForwardedAt: time.Now(),
	}

	filter := bson.M{"chat_id": chatID, "message_id": messageID}
	update := bson.M{"$set": record}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to record forward %s:%d: %w", chatID, messageID, err)
	}
	return nil
}
