package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

// ChecklistRepository serves checklist definitions stored in MongoDB.
type ChecklistRepository struct {
	collection *mongo.Collection
}

// NewChecklistRepository binds the checklists collection.
func NewChecklistRepository(db *mongo.Database, collectionName string) *ChecklistRepository {
	return &ChecklistRepository{collection: db.Collection(collectionName)}
}

// Checklist implements application.ChecklistProvider.
func (r *ChecklistRepository) Checklist(ctx context.Context, id int) (*domain.Checklist, error) {
	var doc ChecklistDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(application.ErrChecklistNotFound, "checklist %d", id)
		}
		return nil, errors.Wrapf(err, "find checklist %d", id)
	}
	checklist, err := mapChecklistDocument(doc)
	if err != nil {
		return nil, err
	}
	return &checklist, nil
}

// Upsert replaces the whole checklist tree.
func (r *ChecklistRepository) Upsert(ctx context.Context, checklist domain.Checklist) error {
	if err := checklist.Validate(); err != nil {
		return err
	}
	doc := toChecklistDocument(checklist)
	doc.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": checklist.ID}, doc, opts); err != nil {
		return errors.Wrapf(err, "upsert checklist %d", checklist.ID)
	}
	return nil
}
