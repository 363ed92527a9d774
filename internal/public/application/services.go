package application

import (
	"context"
	"io"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

// Defaults used by the discovery operations.
const (
	DefaultPageSize          = 4
	DefaultSearchLimit       = 5
	DefaultNearbyLimit       = 10
	DefaultNearbyMaxDistance = 10000.0
	DefaultTopRatedLimit     = 10
)

// QueryCapability groups the scoring queries whose computation depends on the backend.
// QueryCapability は全文検索スコア・距離・評価平均の計算をバックエンドに委ねるためのポート。
type QueryCapability interface {
	SearchText(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error)
	Near(ctx context.Context, point domain.Point, maxDistanceMeters float64, limit int) ([]domain.NearbyStore, error)
	TopRated(ctx context.Context, limit int) ([]domain.RatedStore, error)
}

// StoreReader abstracts read access to stores.
// StoreReader は店舗の読み取り専用ポート。
type StoreReader interface {
	QueryCapability
	FindBySlug(ctx context.Context, slug string) (*domain.Store, error)
	FindByID(ctx context.Context, id string) (*domain.Store, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Store, error)
	Page(ctx context.Context, skip, limit int) ([]domain.Store, error)
	Count(ctx context.Context) (int, error)
	ByTag(ctx context.Context, tag string) ([]domain.Store, error)
	DistinctTags(ctx context.Context) ([]domain.TagCount, error)
	ReviewsFor(ctx context.Context, storeID string) ([]domain.Review, error)
}

// StoreWriter persists store records.
type StoreWriter interface {
	Create(ctx context.Context, store *domain.Store) error
	Update(ctx context.Context, store *domain.Store) error
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	// AddReview returns domain.ErrNotFound when the store does not exist.
	AddReview(ctx context.Context, review domain.Review) (domain.Review, error)
}

// StoreRepository is the full store port.
type StoreRepository interface {
	StoreReader
	StoreWriter
}

// UserRepository persists the favorites ledger.
type UserRepository interface {
	// FindByID returns domain.ErrNotFound when the user has no ledger yet.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// SaveHearts replaces the hearts set, creating the user row when missing.
	SaveHearts(ctx context.Context, id string, hearts []string) (*domain.User, error)
}

// PhotoUpload is an uploaded photo as received from the client.
type PhotoUpload struct {
	Data     io.Reader
	MimeType string
}

// PhotoIngestor validates, resizes and stores uploaded photos.
type PhotoIngestor interface {
	// Ingest returns the stored filename; a nil upload yields "" and no error.
	Ingest(ctx context.Context, upload *PhotoUpload) (string, error)
	// Discard removes a previously stored photo.
	Discard(ctx context.Context, filename string) error
}

// StorePage is the result of a paginated listing.
// When Redirect is set the caller should send the client to RedirectPage.
type StorePage struct {
	Stores       []domain.Store
	Page         int
	Pages        int
	Count        int
	Redirect     bool
	RedirectPage int
}

// TagListing is the tag-filtered listing together with the tag menu.
type TagListing struct {
	Tag    string
	Tags   []domain.TagCount
	Stores []domain.Store
}

// StoreInput carries the user-editable store fields.
type StoreInput struct {
	Name        string   `validate:"required,max=200"`
	Description string   `validate:"max=5000"`
	Tags        []string `validate:"max=20,dive,max=50"`
	Address     string   `validate:"max=500"`
	Lng         float64  `validate:"gte=-180,lte=180"`
	Lat         float64  `validate:"gte=-90,lte=90"`
}

// ReviewInput carries a submitted review.
type ReviewInput struct {
	Rating int    `validate:"gte=1,lte=5"`
	Text   string `validate:"required,max=4000"`
}

// DiscoveryService describes the read use-cases of the discovery engine.
// DiscoveryService は一覧・タグ・検索・近傍・ランキングを提供するリーダーモデル。
type DiscoveryService interface {
	ListPaged(ctx context.Context, page int) (*StorePage, error)
	ListByTag(ctx context.Context, tag string) (*TagListing, error)
	Search(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error)
	Nearby(ctx context.Context, lng, lat, maxDistanceMeters float64, limit int) ([]domain.NearbyStore, error)
	TopRated(ctx context.Context, limit int) ([]domain.RatedStore, error)
	Detail(ctx context.Context, slug string) (*domain.StoreDetail, error)
}

// FavoritesService describes the hearts use-cases.
type FavoritesService interface {
	ToggleHeart(ctx context.Context, userID, storeID string) (*domain.User, error)
	ListHearted(ctx context.Context, userID string) ([]domain.Store, error)
}

// StoreCommandService handles owner-gated writes.
type StoreCommandService interface {
	Create(ctx context.Context, authorID string, input StoreInput, photo *PhotoUpload) (*domain.Store, error)
	EditForm(ctx context.Context, requesterID, storeID string) (*domain.Store, error)
	Update(ctx context.Context, requesterID, storeID string, input StoreInput, photo *PhotoUpload) (*domain.Store, error)
}

// ReviewService records reviews left by signed-in users.
type ReviewService interface {
	Add(ctx context.Context, authorID, storeID string, input ReviewInput) (domain.Review, error)
}
