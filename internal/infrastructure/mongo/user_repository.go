package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/storefinder/internal/public/application"
	"github.com/sngm3741/storefinder/internal/public/domain"
)

var _ application.UserRepository = (*UserRepository)(nil)

// UserRepository persists each user's hearted stores.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database, collectionName string) *UserRepository {
	return &UserRepository{collection: db.Collection(collectionName)}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var doc UserDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": strings.TrimSpace(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user := mapUserDocument(doc)
	return &user, nil
}

// SaveHearts replaces the hearts set. The user row is created on first write.
func (r *UserRepository) SaveHearts(ctx context.Context, id string, hearts []string) (*domain.User, error) {
	id = strings.TrimSpace(id)
	update := bson.M{
		"$set":         bson.M{"hearts": objectIDs(hearts)},
		"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc UserDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("save hearts: %w", err)
	}
	user := mapUserDocument(doc)
	return &user, nil
}

func mapUserDocument(doc UserDocument) domain.User {
	hearts := make([]string, 0, len(doc.Hearts))
	for _, h := range doc.Hearts {
		hearts = append(hearts, h.Hex())
	}
	return domain.User{ID: doc.ID, Hearts: hearts}
}
