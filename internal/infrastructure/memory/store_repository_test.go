package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

func addStore(t *testing.T, repo *StoreRepository, slug string, created time.Time, mutate func(*domain.Store)) domain.Store {
	t.Helper()
	s := domain.Store{
		Name:      slug,
		Slug:      slug,
		Location:  domain.NewLocation(0, 0, ""),
		CreatedAt: created,
	}
	if mutate != nil {
		mutate(&s)
	}
	require.NoError(t, repo.Create(context.Background(), &s))
	return s
}

func TestPage_NewestFirstWithSkip(t *testing.T) {
	repo := NewStoreRepository(1)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, slug := range []string{"a", "b", "c", "d", "e"} {
		addStore(t, repo, slug, base.Add(time.Duration(i)*time.Hour), nil)
	}

	page, err := repo.Page(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d"}, slugs(page))

	page, err = repo.Page(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, slugs(page))

	page, err = repo.Page(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestCreate_RejectsDuplicateSlug(t *testing.T) {
	repo := NewStoreRepository(1)
	addStore(t, repo, "taken", time.Now(), nil)

	dup := domain.Store{Slug: "taken"}
	assert.ErrorIs(t, repo.Create(context.Background(), &dup), domain.ErrConflict)

	taken, err := repo.SlugTaken(context.Background(), "taken", "")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestSlugTaken_ExcludesOwnRecord(t *testing.T) {
	repo := NewStoreRepository(1)
	s := addStore(t, repo, "mine", time.Now(), nil)

	taken, err := repo.SlugTaken(context.Background(), "mine", s.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestByTag_EmptyTagMatchesAnyTaggedStore(t *testing.T) {
	repo := NewStoreRepository(1)
	now := time.Now()
	addStore(t, repo, "wifi", now, func(s *domain.Store) { s.Tags = []string{"Wifi"} })
	addStore(t, repo, "both", now, func(s *domain.Store) { s.Tags = []string{"Wifi", "Vegan"} })
	addStore(t, repo, "bare", now, nil)

	all, err := repo.ByTag(context.Background(), "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wifi", "both"}, slugs(all))

	vegan, err := repo.ByTag(context.Background(), "Vegan")
	require.NoError(t, err)
	assert.Equal(t, []string{"both"}, slugs(vegan))
}

func TestDistinctTags_CountDescThenName(t *testing.T) {
	repo := NewStoreRepository(1)
	now := time.Now()
	addStore(t, repo, "one", now, func(s *domain.Store) { s.Tags = []string{"Wifi", "Licensed"} })
	addStore(t, repo, "two", now, func(s *domain.Store) { s.Tags = []string{"Wifi", "Vegan"} })
	addStore(t, repo, "three", now, func(s *domain.Store) { s.Tags = []string{"Wifi", "Family Friendly"} })

	tags, err := repo.DistinctTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.TagCount{
		{Tag: "Wifi", Count: 3},
		{Tag: "Family Friendly", Count: 1},
		{Tag: "Licensed", Count: 1},
		{Tag: "Vegan", Count: 1},
	}, tags)
}

func TestRelevance(t *testing.T) {
	terms := uniqueTerms("Sushi SUSHI bar")
	assert.Equal(t, []string{"sushi", "bar"}, terms)

	s := domain.Store{Name: "Sushi Bar", Description: "the best sushi"}
	// name: (1+1)/2, description: 1/3
	assert.InDelta(t, 1.0+1.0/3.0, relevance(terms, s), 1e-9)
	assert.Zero(t, relevance(terms, domain.Store{Name: "Burgers"}))
}

func TestNear_FiltersAndOrdersByDistance(t *testing.T) {
	repo := NewStoreRepository(1)
	now := time.Now()
	addStore(t, repo, "two-km", now, func(s *domain.Store) { s.Location = domain.NewLocation(0, 0.018, "") })
	addStore(t, repo, "here", now, func(s *domain.Store) { s.Location = domain.NewLocation(0, 0, "") })
	addStore(t, repo, "far", now, func(s *domain.Store) { s.Location = domain.NewLocation(0, 1, "") })
	addStore(t, repo, "nowhere", now, func(s *domain.Store) { s.Location = domain.Location{} })

	near, err := repo.Near(context.Background(), domain.Point{}, 10000, 10)
	require.NoError(t, err)
	require.Len(t, near, 2)
	assert.Equal(t, "here", near[0].Slug)
	assert.Equal(t, "two-km", near[1].Slug)

	limited, err := repo.Near(context.Background(), domain.Point{}, 10000, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestTopRated_HonoursMinimumReviews(t *testing.T) {
	repo := NewStoreRepository(2)
	ctx := context.Background()
	now := time.Now()
	single := addStore(t, repo, "single", now, nil)
	pair := addStore(t, repo, "pair", now, nil)
	trio := addStore(t, repo, "trio", now, nil)

	for _, r := range []struct {
		store  string
		rating int
	}{
		{single.ID, 5},
		{pair.ID, 5}, {pair.ID, 3},
		{trio.ID, 5}, {trio.ID, 5}, {trio.ID, 4},
	} {
		_, err := repo.AddReview(ctx, domain.Review{Store: r.store, Rating: r.rating})
		require.NoError(t, err)
	}

	top, err := repo.TopRated(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "trio", top[0].Store.Slug)
	assert.InDelta(t, 14.0/3.0, top[0].AverageRating, 1e-9)
	assert.Equal(t, 3, top[0].ReviewCount)
	assert.Equal(t, "pair", top[1].Store.Slug)
	assert.InDelta(t, 4.0, top[1].AverageRating, 1e-9)
}

func TestAddReview_UnknownStore(t *testing.T) {
	repo := NewStoreRepository(1)
	_, err := repo.AddReview(context.Background(), domain.Review{Store: domain.NewID(), Rating: 3})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReturnedStoresAreCopies(t *testing.T) {
	repo := NewStoreRepository(1)
	s := addStore(t, repo, "copy", time.Now(), func(s *domain.Store) { s.Tags = []string{"Wifi"} })

	found, err := repo.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	found.Tags[0] = "mutated"

	again, err := repo.FindBySlug(context.Background(), "copy")
	require.NoError(t, err)
	assert.Equal(t, []string{"Wifi"}, again.Tags)
}

func TestUserRepository_SaveAndFind(t *testing.T) {
	users := NewUserRepository()
	ctx := context.Background()

	_, err := users.FindByID(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	saved, err := users.SaveHearts(ctx, " u1 ", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "u1", saved.ID)

	found, err := users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, found.Hearts)
}

func slugs(stores []domain.Store) []string {
	out := make([]string, 0, len(stores))
	for _, s := range stores {
		out = append(out, s.Slug)
	}
	return out
}
