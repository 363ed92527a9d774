package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes は検索・近傍・一覧・集計が依存するインデックスを作成する。
// 既存インデックスと同じ定義であれば何もしない。
func EnsureIndexes(ctx context.Context, db *mongo.Database, storeCollection, reviewCollection string) error {
	if _, err := db.Collection(storeCollection).Indexes().CreateMany(ctx, storeIndexes()); err != nil {
		return fmt.Errorf("create store indexes: %w", err)
	}
	if _, err := db.Collection(reviewCollection).Indexes().CreateMany(ctx, reviewIndexes()); err != nil {
		return fmt.Errorf("create review indexes: %w", err)
	}
	return nil
}

func storeIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("store_text"),
		},
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("store_location"),
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("store_slug").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("store_created"),
		},
	}
}

func reviewIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "store", Value: 1}, {Key: "created", Value: -1}},
			Options: options.Index().SetName("review_store"),
		},
	}
}
