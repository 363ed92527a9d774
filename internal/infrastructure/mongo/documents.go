package mongo

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

// LocationDocument は GeoJSON Point と住所を保持する埋め込みドキュメント。
// 2dsphere インデックスは type/coordinates のみを参照する。
type LocationDocument struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
	Address     string    `bson:"address,omitempty"`
}

// StoreDocument は MongoDB 上での店舗スキーマを Go 構造体として表現したもの。
type StoreDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Slug        string             `bson:"slug"`
	Description string             `bson:"description,omitempty"`
	Tags        []string           `bson:"tags,omitempty"`
	Location    *LocationDocument  `bson:"location,omitempty"`
	Photo       string             `bson:"photo,omitempty"`
	Author      string             `bson:"author"`
	Created     time.Time          `bson:"created"`
}

// ReviewDocument はレビュー 1 件分のスキーマ。store は店舗の ObjectID を参照する。
type ReviewDocument struct {
	ID      primitive.ObjectID `bson:"_id"`
	Store   primitive.ObjectID `bson:"store"`
	Author  string             `bson:"author"`
	Rating  int                `bson:"rating"`
	Text    string             `bson:"text,omitempty"`
	Created time.Time          `bson:"created"`
}

// UserDocument は「お気に入り」台帳。_id は認証トークンの subject。
type UserDocument struct {
	ID        string               `bson:"_id"`
	Hearts    []primitive.ObjectID `bson:"hearts"`
	CreatedAt time.Time            `bson:"createdAt,omitempty"`
}

type scoredStoreDocument struct {
	StoreDocument `bson:",inline"`
	Score         float64 `bson:"score"`
}

type ratedStoreDocument struct {
	StoreDocument `bson:",inline"`
	AverageRating float64 `bson:"averageRating"`
	ReviewCount   int     `bson:"reviewCount"`
}

func mapStoreDocument(doc StoreDocument) domain.Store {
	store := domain.Store{
		ID:          doc.ID.Hex(),
		Name:        doc.Name,
		Slug:        doc.Slug,
		Description: doc.Description,
		Tags:        append([]string{}, doc.Tags...),
		Photo:       doc.Photo,
		Author:      doc.Author,
		CreatedAt:   doc.Created,
	}
	if doc.Location != nil {
		store.Location = domain.Location{
			Type:        doc.Location.Type,
			Coordinates: append([]float64(nil), doc.Location.Coordinates...),
			Address:     doc.Location.Address,
		}
	}
	return store
}

// buildStoreDocument は domain.Store を保存用ドキュメントへ変換する。
func buildStoreDocument(store *domain.Store) (StoreDocument, error) {
	doc := StoreDocument{
		Name:        strings.TrimSpace(store.Name),
		Slug:        store.Slug,
		Description: store.Description,
		Tags:        domain.NormalizeTags(store.Tags),
		Photo:       store.Photo,
		Author:      store.Author,
		Created:     store.CreatedAt,
	}
	if store.ID != "" {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(store.ID))
		if err != nil {
			return StoreDocument{}, domain.Validationf("invalid store id %q", store.ID)
		}
		doc.ID = id
	}
	if p, ok := store.Location.Point(); ok {
		doc.Location = &LocationDocument{
			Type:        domain.PointType,
			Coordinates: []float64{p.Lng, p.Lat},
			Address:     store.Location.Address,
		}
	}
	return doc, nil
}

func mapReviewDocument(doc ReviewDocument) domain.Review {
	return domain.Review{
		ID:        doc.ID.Hex(),
		Store:     doc.Store.Hex(),
		Author:    doc.Author,
		Rating:    doc.Rating,
		Text:      doc.Text,
		CreatedAt: doc.Created,
	}
}

func mapNearbyDocument(doc StoreDocument) domain.NearbyStore {
	s := mapStoreDocument(doc)
	return domain.NearbyStore{
		ID:          s.ID,
		Slug:        s.Slug,
		Name:        s.Name,
		Description: s.Description,
		Location:    s.Location,
		Photo:       s.Photo,
	}
}

// objectIDs は有効な 16 進 ID だけを ObjectID に変換する。
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range domain.UniqueIDs(ids) {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		out = append(out, oid)
	}
	return out
}
