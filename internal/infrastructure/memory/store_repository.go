package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/sngm3741/storefinder/internal/public/application"
	"github.com/sngm3741/storefinder/internal/public/domain"
)

// Compile-time checks.
var (
	_ application.StoreRepository = (*StoreRepository)(nil)
	_ application.UserRepository  = (*UserRepository)(nil)
)

// StoreRepository is an in-memory implementation of application.StoreRepository.
// Scoring, distance and rating aggregation are computed explicitly here.
type StoreRepository struct {
	mu         sync.RWMutex
	stores     []domain.Store
	reviews    []domain.Review
	minReviews int
}

// NewStoreRepository creates an empty repository. Stores with fewer than
// minReviews reviews are left out of TopRated; values below 1 mean 1.
func NewStoreRepository(minReviews int) *StoreRepository {
	if minReviews < 1 {
		minReviews = 1
	}
	return &StoreRepository{minReviews: minReviews}
}

// Create inserts a store, assigning an id when missing.
func (r *StoreRepository) Create(_ context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if store.ID == "" {
		store.ID = domain.NewID()
	}
	for _, existing := range r.stores {
		if domain.SameID(existing.ID, store.ID) {
			return domain.ErrConflict
		}
		if existing.Slug == store.Slug {
			return domain.ErrConflict
		}
	}
	if store.CreatedAt.IsZero() {
		store.CreatedAt = time.Now().UTC()
	}
	r.stores = append(r.stores, cloneStore(*store))
	return nil
}

// Update replaces the stored record with the same id.
func (r *StoreRepository) Update(_ context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.stores {
		if domain.SameID(existing.ID, store.ID) {
			r.stores[i] = cloneStore(*store)
			return nil
		}
	}
	return domain.ErrNotFound
}

// SlugTaken reports whether another store already uses slug.
func (r *StoreRepository) SlugTaken(_ context.Context, slug, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stores {
		if s.Slug == slug && !domain.SameID(s.ID, excludeID) {
			return true, nil
		}
	}
	return false, nil
}

// AddReview attaches a review to a store.
func (r *StoreRepository) AddReview(_ context.Context, review domain.Review) (domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.indexOf(review.Store); !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	if review.ID == "" {
		review.ID = domain.NewID()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	r.reviews = append(r.reviews, review)
	return review, nil
}

func (r *StoreRepository) FindBySlug(_ context.Context, slug string) (*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stores {
		if s.Slug == slug {
			found := cloneStore(s)
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *StoreRepository) FindByID(_ context.Context, id string) (*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.indexOf(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	found := cloneStore(r.stores[i])
	return &found, nil
}

// FindByIDs returns the stores whose id is in ids, each at most once.
func (r *StoreRepository) FindByIDs(_ context.Context, ids []string) ([]domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[domain.CanonicalID(id)] = struct{}{}
	}
	result := make([]domain.Store, 0, len(wanted))
	for _, s := range r.stores {
		if _, ok := wanted[domain.CanonicalID(s.ID)]; ok {
			result = append(result, cloneStore(s))
		}
	}
	return result, nil
}

// Page returns stores ordered by creation time, newest first.
func (r *StoreRepository) Page(_ context.Context, skip, limit int) ([]domain.Store, error) {
	r.mu.RLock()
	sorted := r.snapshot()
	r.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if skip < 0 {
		skip = 0
	}
	if skip >= len(sorted) {
		return []domain.Store{}, nil
	}
	end := len(sorted)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return sorted[skip:end], nil
}

func (r *StoreRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores), nil
}

// ByTag returns stores carrying tag; an empty tag matches every tagged store.
func (r *StoreRepository) ByTag(_ context.Context, tag string) ([]domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Store, 0)
	for _, s := range r.stores {
		if (tag == "" && len(s.Tags) > 0) || (tag != "" && s.HasTag(tag)) {
			result = append(result, cloneStore(s))
		}
	}
	return result, nil
}

// DistinctTags counts stores per tag, most used first.
func (r *StoreRepository) DistinctTags(_ context.Context) ([]domain.TagCount, error) {
	r.mu.RLock()
	counts := make(map[string]int)
	for _, s := range r.stores {
		for _, tag := range domain.NormalizeTags(s.Tags) {
			counts[tag]++
		}
	}
	r.mu.RUnlock()

	result := make([]domain.TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, domain.TagCount{Tag: tag, Count: count})
	}
	sortTagCounts(result)
	return result, nil
}

// ReviewsFor returns the reviews of a store, newest first.
func (r *StoreRepository) ReviewsFor(_ context.Context, storeID string) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Review, 0)
	for _, review := range r.reviews {
		if domain.SameID(review.Store, storeID) {
			result = append(result, review)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// SearchText ranks stores by term frequency over name and description.
func (r *StoreRepository) SearchText(_ context.Context, query string, limit int) ([]domain.ScoredStore, error) {
	terms := uniqueTerms(query)
	if len(terms) == 0 {
		return []domain.ScoredStore{}, nil
	}

	r.mu.RLock()
	candidates := r.snapshot()
	r.mu.RUnlock()

	result := make([]domain.ScoredStore, 0)
	for _, s := range candidates {
		score := relevance(terms, s)
		if score <= 0 {
			continue
		}
		result = append(result, domain.ScoredStore{Store: s, Score: score})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Near returns stores within maxDistanceMeters of point, nearest first.
func (r *StoreRepository) Near(_ context.Context, point domain.Point, maxDistanceMeters float64, limit int) ([]domain.NearbyStore, error) {
	r.mu.RLock()
	candidates := r.snapshot()
	r.mu.RUnlock()

	type hit struct {
		store    domain.Store
		distance float64
	}
	hits := make([]hit, 0)
	for _, s := range candidates {
		p, ok := s.Location.Point()
		if !ok {
			continue
		}
		d := point.DistanceMeters(p)
		if d > maxDistanceMeters {
			continue
		}
		hits = append(hits, hit{store: s, distance: d})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].distance < hits[j].distance
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	result := make([]domain.NearbyStore, 0, len(hits))
	for _, h := range hits {
		result = append(result, domain.NearbyStore{
			ID:          h.store.ID,
			Slug:        h.store.Slug,
			Name:        h.store.Name,
			Description: h.store.Description,
			Location:    h.store.Location,
			Photo:       h.store.Photo,
		})
	}
	return result, nil
}

// TopRated joins stores to their reviews and ranks by average rating.
func (r *StoreRepository) TopRated(_ context.Context, limit int) ([]domain.RatedStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type acc struct {
		sum   int
		count int
	}
	byStore := make(map[string]*acc)
	for _, review := range r.reviews {
		key := domain.CanonicalID(review.Store)
		a, ok := byStore[key]
		if !ok {
			a = &acc{}
			byStore[key] = a
		}
		a.sum += review.Rating
		a.count++
	}

	result := make([]domain.RatedStore, 0)
	for _, s := range r.stores {
		a, ok := byStore[domain.CanonicalID(s.ID)]
		if !ok || a.count < r.minReviews {
			continue
		}
		result = append(result, domain.RatedStore{
			Store:         cloneStore(s),
			AverageRating: float64(a.sum) / float64(a.count),
			ReviewCount:   a.count,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AverageRating > result[j].AverageRating
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *StoreRepository) indexOf(id string) (int, bool) {
	for i, s := range r.stores {
		if domain.SameID(s.ID, id) {
			return i, true
		}
	}
	return 0, false
}

// snapshot copies the stores; callers must hold at least the read lock.
func (r *StoreRepository) snapshot() []domain.Store {
	result := make([]domain.Store, 0, len(r.stores))
	for _, s := range r.stores {
		result = append(result, cloneStore(s))
	}
	return result
}

func sortTagCounts(tags []domain.TagCount) {
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
}

func cloneStore(s domain.Store) domain.Store {
	s.Tags = append([]string{}, s.Tags...)
	s.Location.Coordinates = append([]float64(nil), s.Location.Coordinates...)
	return s
}

// tokenize lower-cases text and splits it on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func uniqueTerms(query string) []string {
	seen := make(map[string]struct{})
	terms := make([]string, 0)
	for _, t := range tokenize(query) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// relevance sums, for every query term, its frequency in each field divided by
// the field length. Short fields full of the term score highest.
func relevance(terms []string, s domain.Store) float64 {
	var score float64
	for _, field := range []string{s.Name, s.Description} {
		tokens := tokenize(field)
		if len(tokens) == 0 {
			continue
		}
		for _, term := range terms {
			tf := 0
			for _, tok := range tokens {
				if tok == term {
					tf++
				}
			}
			score += float64(tf) / float64(len(tokens))
		}
	}
	return score
}
