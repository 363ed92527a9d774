package application

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

// discoveryService is the concrete implementation of DiscoveryService.
type discoveryService struct {
	repo     StoreReader
	pageSize int
}

// NewDiscoveryService creates a new discovery service reading from repo.
func NewDiscoveryService(repo StoreReader) DiscoveryService {
	return &discoveryService{repo: repo, pageSize: DefaultPageSize}
}

// ListPaged returns one page of stores, newest first.
// Page and count are fetched concurrently; a page past the end is reported as
// a redirect to the last page instead of an empty result.
func (s *discoveryService) ListPaged(ctx context.Context, page int) (*StorePage, error) {
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * s.pageSize

	var (
		stores []domain.Store
		count  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stores, err = s.repo.Page(gctx, skip, s.pageSize)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.repo.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list stores page %d: %w", page, err)
	}

	pages := ceilDiv(count, s.pageSize)
	if len(stores) == 0 && skip > 0 {
		return &StorePage{
			Page:         page,
			Pages:        pages,
			Count:        count,
			Redirect:     true,
			RedirectPage: max(pages, 1),
		}, nil
	}

	return &StorePage{
		Stores: stores,
		Page:   page,
		Pages:  pages,
		Count:  count,
	}, nil
}

// ListByTag returns the stores carrying tag (any tagged store when tag is empty)
// along with the full tag menu.
func (s *discoveryService) ListByTag(ctx context.Context, tag string) (*TagListing, error) {
	tag = strings.TrimSpace(tag)

	var (
		tags   []domain.TagCount
		stores []domain.Store
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tags, err = s.repo.DistinctTags(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stores, err = s.repo.ByTag(gctx, tag)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list stores by tag %q: %w", tag, err)
	}

	return &TagListing{Tag: tag, Tags: tags, Stores: stores}, nil
}

func (s *discoveryService) Search(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.ScoredStore{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	results, err := s.repo.SearchText(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search stores: %w", err)
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *discoveryService) Nearby(ctx context.Context, lng, lat, maxDistanceMeters float64, limit int) ([]domain.NearbyStore, error) {
	point := domain.Point{Lng: lng, Lat: lat}
	if err := point.Validate(); err != nil {
		return nil, err
	}
	if maxDistanceMeters <= 0 {
		maxDistanceMeters = DefaultNearbyMaxDistance
	}
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}
	stores, err := s.repo.Near(ctx, point, maxDistanceMeters, limit)
	if err != nil {
		return nil, fmt.Errorf("nearby stores: %w", err)
	}
	return stores, nil
}

func (s *discoveryService) TopRated(ctx context.Context, limit int) ([]domain.RatedStore, error) {
	if limit <= 0 {
		limit = DefaultTopRatedLimit
	}
	stores, err := s.repo.TopRated(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top rated stores: %w", err)
	}
	return stores, nil
}

func (s *discoveryService) Detail(ctx context.Context, slug string) (*domain.StoreDetail, error) {
	store, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.ReviewsFor(ctx, store.ID)
	if err != nil {
		return nil, fmt.Errorf("reviews for %s: %w", store.ID, err)
	}
	return &domain.StoreDetail{Store: *store, Reviews: reviews}, nil
}

func ceilDiv(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
