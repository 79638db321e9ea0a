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

// SectionEvaluationRepository implements application.SectionEvaluationRepository.
type SectionEvaluationRepository struct {
	collection *mongo.Collection
	logger     Logger
}

// Logger is the subset of *log.Logger the repositories use.
type Logger interface {
	Printf(format string, args ...any)
}

// NewSectionEvaluationRepository binds the section_evaluations collection.
func NewSectionEvaluationRepository(db *mongo.Database, collectionName string, logger Logger) *SectionEvaluationRepository {
	return &SectionEvaluationRepository{collection: db.Collection(collectionName), logger: logger}
}

// FindByAudit returns the audit's evaluations. Rows with an unreadable key are
// skipped and logged.
func (r *SectionEvaluationRepository) FindByAudit(ctx context.Context, auditID string) ([]domain.SectionEvaluation, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(auditID))
	if err != nil {
		return nil, errors.Wrapf(application.ErrAuditNotFound, "audit %q", auditID)
	}
	opts := options.Find().SetSort(bson.D{{Key: "sectionId", Value: 1}, {Key: "sectionKey", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"auditId": objectID}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "find section evaluations of audit %s", auditID)
	}
	defer cursor.Close(ctx)

	evaluations := make([]domain.SectionEvaluation, 0)
	for cursor.Next(ctx) {
		var doc SectionEvaluationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode section evaluation")
		}
		evaluation, err := mapSectionEvaluationDocument(doc)
		if err != nil {
			if r.logger != nil {
				r.logger.Printf("skip section evaluation of audit %s: %v", auditID, err)
			}
			continue
		}
		evaluations = append(evaluations, evaluation)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate section evaluations")
	}
	return evaluations, nil
}

// Save upserts on (auditId, sectionKey) so saving twice leaves one row.
func (r *SectionEvaluationRepository) Save(ctx context.Context, evaluation domain.SectionEvaluation) error {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(evaluation.AuditID))
	if err != nil {
		return errors.Wrapf(application.ErrAuditNotFound, "audit %q", evaluation.AuditID)
	}
	key := evaluation.Key.String()
	updatedAt := evaluation.UpdatedAt.UTC()
	if evaluation.UpdatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	set := bson.M{
		"sectionId":   evaluation.Key.SectionID,
		"subsection":  evaluation.Key.Prefix,
		"rating":      evaluation.Rating,
		"actionPlan":  evaluation.ActionPlan,
		"responsible": evaluation.Responsible,
		"dueDate":     evaluation.DueDate,
		"aderenteId":  evaluation.AderenteID,
		"storeId":     evaluation.StoreID,
		"updatedAt":   updatedAt,
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"createdBy": evaluation.CreatedBy,
			"createdAt": updatedAt,
		},
	}
	filter := bson.M{"auditId": objectID, "sectionKey": key}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.Wrapf(err, "save section evaluation %s of audit %s", key, evaluation.AuditID)
	}
	return nil
}

// DeleteByAudit removes every evaluation of an audit.
func (r *SectionEvaluationRepository) DeleteByAudit(ctx context.Context, auditID string) error {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(auditID))
	if err != nil {
		return errors.Wrapf(application.ErrAuditNotFound, "audit %q", auditID)
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"auditId": objectID}); err != nil {
		return errors.Wrapf(err, "delete section evaluations of audit %s", auditID)
	}
	return nil
}
