package mongo

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

// AuditRepository implements application.AuditRepository using MongoDB.
type AuditRepository struct {
	collection *mongo.Collection
}

// NewAuditRepository binds the audits collection.
func NewAuditRepository(db *mongo.Database, collectionName string) *AuditRepository {
	return &AuditRepository{collection: db.Collection(collectionName)}
}

// FindByID loads one audit header. Malformed ids are reported as not found.
func (r *AuditRepository) FindByID(ctx context.Context, id string) (*domain.Audit, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errors.Wrapf(application.ErrAuditNotFound, "audit %q", id)
	}
	var doc AuditDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(application.ErrAuditNotFound, "audit %s", id)
		}
		return nil, errors.Wrapf(err, "find audit %s", id)
	}
	audit, err := mapAuditDocument(doc)
	if err != nil {
		return nil, err
	}
	return &audit, nil
}

// ApplyChange writes the status and final score together in one update.
func (r *AuditRepository) ApplyChange(ctx context.Context, id string, change domain.AuditChange) error {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return errors.Wrapf(application.ErrAuditNotFound, "audit %q", id)
	}
	set := bson.M{
		"status":     int(change.Status),
		"finalScore": change.FinalScore,
		"updatedAt":  time.Now().UTC(),
	}
	if change.DtEnd != nil {
		set["dtend"] = change.DtEnd.UTC()
	}
	if change.AuditorComments != nil {
		set["auditorComments"] = *change.AuditorComments
	}
	if change.ReplacedBy != "" {
		set["replacedBy"] = change.ReplacedBy
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrapf(err, "update audit %s", id)
	}
	if result.MatchedCount == 0 {
		return errors.Wrapf(application.ErrAuditNotFound, "audit %s", id)
	}
	return nil
}

// Delete removes the audit header. Callers delete children first.
func (r *AuditRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return errors.Wrapf(application.ErrAuditNotFound, "audit %q", id)
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return errors.Wrapf(err, "delete audit %s", id)
	}
	if result.DeletedCount == 0 {
		return errors.Wrapf(application.ErrAuditNotFound, "audit %s", id)
	}
	return nil
}

// Create inserts a new audit and assigns its id.
func (r *AuditRepository) Create(ctx context.Context, audit *domain.Audit) error {
	doc := toAuditDocument(*audit)
	doc.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.DtStart.IsZero() {
		doc.DtStart = now
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert audit")
	}
	audit.ID = doc.ID.Hex()
	audit.DtStart = doc.DtStart
	audit.UpdatedAt = now
	return nil
}
