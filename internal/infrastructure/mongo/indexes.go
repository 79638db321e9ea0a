package mongo

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections names every collection the service touches.
type Collections struct {
	Audits              string
	Scores              string
	SectionEvaluations  string
	Checklists          string
	Stores              string
	Users               string
	FailedNotifications string
}

// EnsureIndexes creates the indexes the upserts rely on. Creating an existing
// index is a no-op in MongoDB.
func EnsureIndexes(ctx context.Context, db *mongo.Database, c Collections) error {
	plan := map[string][]mongo.IndexModel{
		c.Scores: {{
			Keys:    bson.D{{Key: "auditId", Value: 1}, {Key: "criteriaId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("audit_criteria_unique"),
		}},
		c.SectionEvaluations: {{
			Keys:    bson.D{{Key: "auditId", Value: 1}, {Key: "sectionKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("audit_section_key_unique"),
		}},
		c.Audits: {{
			Keys:    bson.D{{Key: "storeId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("store_status"),
		}},
		c.FailedNotifications: {{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("status_created"),
		}},
	}
	for collection, models := range plan {
		if collection == "" {
			continue
		}
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "create indexes on %s", collection)
		}
	}
	return nil
}
