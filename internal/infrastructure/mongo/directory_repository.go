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

// DirectoryRepository implements application.Directory over the stores and
// users collections.
type DirectoryRepository struct {
	stores *mongo.Collection
	users  *mongo.Collection
}

// NewDirectoryRepository binds both directory collections.
func NewDirectoryRepository(db *mongo.Database, storeCollection, userCollection string) *DirectoryRepository {
	return &DirectoryRepository{
		stores: db.Collection(storeCollection),
		users:  db.Collection(userCollection),
	}
}

// StoreByID looks a store up by its hex id.
func (r *DirectoryRepository) StoreByID(ctx context.Context, id string) (*domain.Store, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errors.Wrapf(application.ErrStoreNotFound, "store %q", id)
	}
	var doc StoreDocument
	if err := r.stores.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(application.ErrStoreNotFound, "store %s", id)
		}
		return nil, errors.Wrapf(err, "find store %s", id)
	}
	store := mapStoreDocument(doc)
	return &store, nil
}

// UserByID looks a user up by auth subject.
func (r *DirectoryRepository) UserByID(ctx context.Context, id string) (*domain.User, error) {
	var doc UserDocument
	if err := r.users.FindOne(ctx, bson.M{"_id": strings.TrimSpace(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(application.ErrUserNotFound, "user %s", id)
		}
		return nil, errors.Wrapf(err, "find user %s", id)
	}
	user := mapUserDocument(doc)
	return &user, nil
}

// CreateStore inserts a store and assigns its id.
func (r *DirectoryRepository) CreateStore(ctx context.Context, store *domain.Store) error {
	now := time.Now().UTC()
	doc := StoreDocument{
		ID:           primitive.NewObjectID(),
		Name:         strings.TrimSpace(store.Name),
		Code:         strings.TrimSpace(store.Code),
		AderenteID:   strings.TrimSpace(store.AderenteID),
		AderenteName: strings.TrimSpace(store.AderenteName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.stores.InsertOne(ctx, doc); err != nil {
		return errors.Wrapf(err, "insert store %s", store.Name)
	}
	store.ID = doc.ID.Hex()
	return nil
}

// UpsertUser creates or renames a user keyed by its auth subject.
func (r *DirectoryRepository) UpsertUser(ctx context.Context, user domain.User) error {
	filter := bson.M{"_id": strings.TrimSpace(user.ID)}
	update := bson.M{
		"$set":         bson.M{"name": strings.TrimSpace(user.Name), "role": string(user.Role)},
		"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
	}
	if _, err := r.users.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return errors.Wrapf(err, "upsert user %s", user.ID)
	}
	return nil
}
