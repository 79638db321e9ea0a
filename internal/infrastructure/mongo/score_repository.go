package mongo

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

// ScoreRepository implements application.ScoreRepository using MongoDB.
type ScoreRepository struct {
	collection *mongo.Collection
}

// NewScoreRepository binds the audit_scores collection.
func NewScoreRepository(db *mongo.Database, collectionName string) *ScoreRepository {
	return &ScoreRepository{collection: db.Collection(collectionName)}
}

// FindByAudit returns every ledger row of an audit ordered by criterion id.
func (r *ScoreRepository) FindByAudit(ctx context.Context, auditID string) ([]domain.AuditScore, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(auditID))
	if err != nil {
		return nil, errors.Wrapf(application.ErrAuditNotFound, "audit %q", auditID)
	}
	opts := options.Find().SetSort(bson.D{{Key: "criteriaId", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"auditId": objectID}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "find scores of audit %s", auditID)
	}
	defer cursor.Close(ctx)

	scores := make([]domain.AuditScore, 0)
	for cursor.Next(ctx) {
		var doc AuditScoreDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode audit score")
		}
		scores = append(scores, mapScoreDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate audit scores")
	}
	return scores, nil
}

// Save upserts the row on (auditId, criteriaId).
func (r *ScoreRepository) Save(ctx context.Context, score domain.AuditScore) error {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(score.AuditID))
	if err != nil {
		return errors.Wrapf(application.ErrAuditNotFound, "audit %q", score.AuditID)
	}
	now := time.Now().UTC()
	filter := bson.M{"auditId": objectID, "criteriaId": score.CriterionID}
	update := bson.M{
		"$set": bson.M{
			"value":          score.Score.Value(),
			"comment":        score.Comment,
			"photos":         score.Photos.Strings(),
			"evaluationType": string(score.EvaluationType),
			"requiresPhoto":  score.RequiresPhoto,
			"updatedAt":      now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.Wrapf(err, "save score %d of audit %s", score.CriterionID, score.AuditID)
	}
	return nil
}

// DeleteByAudit removes every ledger row of an audit.
func (r *ScoreRepository) DeleteByAudit(ctx context.Context, auditID string) error {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(auditID))
	if err != nil {
		return errors.Wrapf(application.ErrAuditNotFound, "audit %q", auditID)
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"auditId": objectID}); err != nil {
		return errors.Wrapf(err, "delete scores of audit %s", auditID)
	}
	return nil
}
