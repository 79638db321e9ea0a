package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/store-audit-services/api/internal/infrastructure/messenger"
)

// FailedNotificationRepository records notifications the messenger gateway
// could not deliver.
type FailedNotificationRepository struct {
	collection *mongo.Collection
}

// NewFailedNotificationRepository binds the failed_notifications collection.
func NewFailedNotificationRepository(db *mongo.Database, collectionName string) *FailedNotificationRepository {
	return &FailedNotificationRepository{collection: db.Collection(collectionName)}
}

// Record implements messenger.FailureStore. The idempotency key is the
// document id, so recording the same failure twice is rejected by Mongo.
func (r *FailedNotificationRepository) Record(ctx context.Context, failure messenger.Failure) error {
	now := time.Now().UTC()
	doc := FailedNotificationDocument{
		ID:          failure.Key,
		Target:      failure.Destination,
		Payload:     failure.Payload,
		Error:       failure.Err,
		Attempts:    failure.Attempts,
		Status:      "pending",
		CreatedAt:   now,
		LastTriedAt: now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return errors.Wrapf(err, "record failed notification %s", failure.Key)
	}
	return nil
}
