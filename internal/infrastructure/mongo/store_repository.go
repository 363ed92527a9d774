package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/storefinder/internal/public/application"
	"github.com/sngm3741/storefinder/internal/public/domain"
)

var _ application.StoreRepository = (*StoreRepository)(nil)

// StoreRepository implements application.StoreRepository using MongoDB.
// Text relevance, geo distance and rating averages are computed by the server.
type StoreRepository struct {
	stores     *mongo.Collection
	reviews    *mongo.Collection
	minReviews int
}

// NewStoreRepository creates a new Mongo-backed store repository.
func NewStoreRepository(db *mongo.Database, storeCollection, reviewCollection string, minReviews int) *StoreRepository {
	if minReviews < 1 {
		minReviews = 1
	}
	return &StoreRepository{
		stores:     db.Collection(storeCollection),
		reviews:    db.Collection(reviewCollection),
		minReviews: minReviews,
	}
}

func (r *StoreRepository) FindBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

// FindByID returns domain.ErrNotFound for unknown and malformed ids alike.
func (r *StoreRepository) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *StoreRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.Store{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find().SetSort(newestFirst()))
}

// Page returns stores ordered by creation time, newest first.
func (r *StoreRepository) Page(ctx context.Context, skip, limit int) ([]domain.Store, error) {
	opts := options.Find().SetSort(newestFirst()).SetSkip(int64(skip))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{}, opts)
}

func (r *StoreRepository) Count(ctx context.Context) (int, error) {
	n, err := r.stores.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count stores: %w", err)
	}
	return int(n), nil
}

func (r *StoreRepository) ByTag(ctx context.Context, tag string) ([]domain.Store, error) {
	return r.find(ctx, tagFilter(tag), options.Find().SetSort(newestFirst()))
}

// DistinctTags はタグごとの店舗数を件数の多い順（同数ならタグ名順）で返す。
func (r *StoreRepository) DistinctTags(ctx context.Context) ([]domain.TagCount, error) {
	cursor, err := r.stores.Aggregate(ctx, distinctTagsPipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate tags: %w", err)
	}
	defer cursor.Close(ctx)

	tags := make([]domain.TagCount, 0)
	for cursor.Next(ctx) {
		var row struct {
			Tag   string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		tags = append(tags, domain.TagCount{Tag: row.Tag, Count: row.Count})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *StoreRepository) ReviewsFor(ctx context.Context, storeID string) ([]domain.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(storeID))
	if err != nil {
		return []domain.Review{}, nil
	}
	cursor, err := r.reviews.Find(ctx, bson.M{"store": objectID}, options.Find().SetSort(newestFirst()))
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]domain.Review, 0)
	for cursor.Next(ctx) {
		var doc ReviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		reviews = append(reviews, mapReviewDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// SearchText は $text 検索を textScore の降順で返す。
func (r *StoreRepository) SearchText(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error) {
	filter, opts := textSearchQuery(query, limit)
	cursor, err := r.stores.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]domain.ScoredStore, 0)
	for cursor.Next(ctx) {
		var doc scoredStoreDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, domain.ScoredStore{Store: mapStoreDocument(doc.StoreDocument), Score: doc.Score})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Near は 2dsphere インデックスを使い、近い順に店舗を返す。
func (r *StoreRepository) Near(ctx context.Context, point domain.Point, maxDistanceMeters float64, limit int) ([]domain.NearbyStore, error) {
	opts := options.Find().SetProjection(nearbyProjection())
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.stores.Find(ctx, nearFilter(point, maxDistanceMeters), opts)
	if err != nil {
		return nil, fmt.Errorf("near search: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]domain.NearbyStore, 0)
	for cursor.Next(ctx) {
		var doc StoreDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, mapNearbyDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// TopRated はレビューを $lookup で結合し、平均評価の高い順に返す。
func (r *StoreRepository) TopRated(ctx context.Context, limit int) ([]domain.RatedStore, error) {
	cursor, err := r.stores.Aggregate(ctx, topRatedPipeline(r.reviews.Name(), r.minReviews, limit))
	if err != nil {
		return nil, fmt.Errorf("aggregate top stores: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]domain.RatedStore, 0)
	for cursor.Next(ctx) {
		var doc ratedStoreDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, domain.RatedStore{
			Store:         mapStoreDocument(doc.StoreDocument),
			AverageRating: doc.AverageRating,
			ReviewCount:   doc.ReviewCount,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create は店舗を新規作成する。slug の重複は domain.ErrConflict になる。
func (r *StoreRepository) Create(ctx context.Context, store *domain.Store) error {
	doc, err := buildStoreDocument(store)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.Created.IsZero() {
		doc.Created = time.Now().UTC()
	}
	if _, err := r.stores.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: slug %q", domain.ErrConflict, doc.Slug)
		}
		return fmt.Errorf("insert store: %w", err)
	}
	store.ID = doc.ID.Hex()
	store.CreatedAt = doc.Created
	return nil
}

// Update は編集可能なフィールドのみを差し替える。slug・author・created は保持する。
func (r *StoreRepository) Update(ctx context.Context, store *domain.Store) error {
	doc, err := buildStoreDocument(store)
	if err != nil {
		return domain.ErrNotFound
	}
	result, err := r.stores.UpdateByID(ctx, doc.ID, bson.M{"$set": updateFields(doc)})
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StoreRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	filter := bson.M{"slug": slug}
	if oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(excludeID)); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	n, err := r.stores.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

// AddReview はレビューを追加する（シード投入用）。
func (r *StoreRepository) AddReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	storeID, err := primitive.ObjectIDFromHex(strings.TrimSpace(review.Store))
	if err != nil {
		return domain.Review{}, domain.ErrNotFound
	}
	doc := ReviewDocument{
		ID:      primitive.NewObjectID(),
		Store:   storeID,
		Author:  review.Author,
		Rating:  review.Rating,
		Text:    review.Text,
		Created: review.CreatedAt,
	}
	if doc.Created.IsZero() {
		doc.Created = time.Now().UTC()
	}
	if _, err := r.reviews.InsertOne(ctx, doc); err != nil {
		return domain.Review{}, fmt.Errorf("insert review: %w", err)
	}
	return mapReviewDocument(doc), nil
}

func (r *StoreRepository) findOne(ctx context.Context, filter bson.M) (*domain.Store, error) {
	var doc StoreDocument
	if err := r.stores.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find store: %w", err)
	}
	store := mapStoreDocument(doc)
	return &store, nil
}

func (r *StoreRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Store, error) {
	cursor, err := r.stores.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find stores: %w", err)
	}
	defer cursor.Close(ctx)

	stores := make([]domain.Store, 0)
	for cursor.Next(ctx) {
		var doc StoreDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		stores = append(stores, mapStoreDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return stores, nil
}

func newestFirst() bson.D {
	return bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}}
}

// tagFilter: 空文字は「タグを 1 つ以上持つ店舗」を意味する。
func tagFilter(tag string) bson.M {
	if tag == "" {
		return bson.M{"tags.0": bson.M{"$exists": true}}
	}
	return bson.M{"tags": tag}
}

func distinctTagsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

func textSearchQuery(query string, limit int) (bson.M, *options.FindOptions) {
	score := bson.M{"$meta": "textScore"}
	opts := options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return bson.M{"$text": bson.M{"$search": query}}, opts
}

func nearFilter(point domain.Point, maxDistanceMeters float64) bson.M {
	return bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        domain.PointType,
					"coordinates": bson.A{point.Lng, point.Lat},
				},
				"$maxDistance": maxDistanceMeters,
			},
		},
	}
}

func nearbyProjection() bson.M {
	return bson.M{"slug": 1, "name": 1, "description": 1, "location": 1, "photo": 1}
}

// topRatedPipeline は minReviews 件未満の店舗を除外する。
func topRatedPipeline(reviewCollection string, minReviews, limit int) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         reviewCollection,
			"localField":   "_id",
			"foreignField": "store",
			"as":           "reviews",
		}}},
		{{Key: "$match", Value: bson.M{"reviews." + strconv.Itoa(minReviews-1): bson.M{"$exists": true}}}},
		{{Key: "$addFields", Value: bson.M{
			"averageRating": bson.M{"$avg": "$reviews.rating"},
			"reviewCount":   bson.M{"$size": "$reviews"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "averageRating", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	return append(pipeline, bson.D{{Key: "$project", Value: bson.M{"reviews": 0}}})
}

func updateFields(doc StoreDocument) bson.M {
	set := bson.M{
		"name":        doc.Name,
		"description": doc.Description,
		"tags":        doc.Tags,
		"location":    doc.Location,
	}
	if doc.Photo != "" {
		set["photo"] = doc.Photo
	}
	return set
}
