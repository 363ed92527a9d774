package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sngm3741/storefinder/internal/metrics"
	"github.com/sngm3741/storefinder/internal/public/application"
	"github.com/sngm3741/storefinder/internal/public/domain"
)

// Cache keys. Top-rated results are kept in one hash keyed by limit so a
// single DEL drops every cached limit.
const (
	KeyTags     = "storefinder:tags"
	KeyTopRated = "storefinder:top"
)

// DefaultTTL bounds staleness for writes made through other instances.
const DefaultTTL = 60 * time.Second

var _ application.StoreRepository = (*CachedStoreRepository)(nil)

// Cache is the subset of Client the decorator needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	HGet(ctx context.Context, key, field string) ([]byte, error)
	HSetWithTTL(ctx context.Context, key, field string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// CachedStoreRepository caches DistinctTags and TopRated in Redis and
// invalidates both on every store write. Cache failures fall through to the
// wrapped repository.
//
// A miss whose repository read overlaps an invalidation in this process is not
// written back. Writes made through other instances are bounded by the TTL.
type CachedStoreRepository struct {
	application.StoreRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
	// generation is bumped by every invalidation.
	generation atomic.Uint64
}

// NewCachedStoreRepository wraps repo. ttl <= 0 means DefaultTTL.
func NewCachedStoreRepository(repo application.StoreRepository, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedStoreRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStoreRepository{StoreRepository: repo, cache: cache, ttl: ttl, logger: logger}
}

func (r *CachedStoreRepository) DistinctTags(ctx context.Context) ([]domain.TagCount, error) {
	var cached []domain.TagCount
	if r.load("tags", func() ([]byte, error) { return r.cache.Get(ctx, KeyTags) }, &cached) {
		return cached, nil
	}

	gen := r.generation.Load()
	tags, err := r.StoreRepository.DistinctTags(ctx)
	if err != nil {
		return nil, err
	}
	r.store("tags", gen, tags, func(b []byte) error { return r.cache.SetWithTTL(ctx, KeyTags, b, r.ttl) })
	return tags, nil
}

func (r *CachedStoreRepository) TopRated(ctx context.Context, limit int) ([]domain.RatedStore, error) {
	field := strconv.Itoa(limit)
	var cached []domain.RatedStore
	if r.load("top", func() ([]byte, error) { return r.cache.HGet(ctx, KeyTopRated, field) }, &cached) {
		return cached, nil
	}

	gen := r.generation.Load()
	top, err := r.StoreRepository.TopRated(ctx, limit)
	if err != nil {
		return nil, err
	}
	r.store("top", gen, top, func(b []byte) error { return r.cache.HSetWithTTL(ctx, KeyTopRated, field, b, r.ttl) })
	return top, nil
}

func (r *CachedStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	if err := r.StoreRepository.Create(ctx, store); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedStoreRepository) Update(ctx context.Context, store *domain.Store) error {
	if err := r.StoreRepository.Update(ctx, store); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// AddReview only changes ratings, so the tag menu stays cached.
func (r *CachedStoreRepository) AddReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	saved, err := r.StoreRepository.AddReview(ctx, review)
	if err != nil {
		return domain.Review{}, err
	}
	r.generation.Add(1)
	if err := r.cache.Del(context.WithoutCancel(ctx), KeyTopRated); err != nil {
		r.logger.Warn("cache invalidation failed", zap.Error(err))
	}
	return saved, nil
}

// load reports whether a cached value was found and decoded into dst.
func (r *CachedStoreRepository) load(query string, get func() ([]byte, error), dst any) bool {
	data, err := get()
	switch {
	case errors.Is(err, ErrMiss):
		metrics.CacheRequestsTotal.WithLabelValues(query, "miss").Inc()
		return false
	case err != nil:
		metrics.CacheRequestsTotal.WithLabelValues(query, "error").Inc()
		r.logger.Warn("cache read failed", zap.String("query", query), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheRequestsTotal.WithLabelValues(query, "error").Inc()
		r.logger.Warn("cache entry corrupt", zap.String("query", query), zap.Error(err))
		return false
	}
	metrics.CacheRequestsTotal.WithLabelValues(query, "hit").Inc()
	return true
}

// store writes value unless an invalidation happened since gen was read.
func (r *CachedStoreRepository) store(query string, gen uint64, value any, set func([]byte) error) {
	if r.generation.Load() != gen {
		r.logger.Debug("cache write skipped after invalidation", zap.String("query", query))
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.String("query", query), zap.Error(err))
		return
	}
	if err := set(data); err != nil {
		r.logger.Warn("cache write failed", zap.String("query", query), zap.Error(err))
	}
}

func (r *CachedStoreRepository) invalidate(ctx context.Context) {
	r.generation.Add(1)
	if err := r.cache.Del(context.WithoutCancel(ctx), KeyTags, KeyTopRated); err != nil {
		r.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}
