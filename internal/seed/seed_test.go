package seed

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/storefinder/internal/infrastructure/memory"
	"github.com/sngm3741/storefinder/internal/public/domain"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestGenerate_IsDeterministic(t *testing.T) {
	opts := Options{Stores: 25, Reviews: 60, RandomSeed: 42, Now: fixedNow}

	a := Generate(opts)
	b := Generate(opts)
	assert.Equal(t, a, b)

	other := Generate(Options{Stores: 25, Reviews: 60, RandomSeed: 7, Now: fixedNow})
	assert.NotEqual(t, a, other)
}

func TestGenerate_ProducesValidStores(t *testing.T) {
	plan := Generate(Options{Stores: 45, Reviews: 100, RandomSeed: 1, Now: fixedNow})
	require.Len(t, plan.Stores, 45)
	require.Len(t, plan.Reviews, 45)

	slugs := make(map[string]struct{}, len(plan.Stores))
	total := 0
	for i, s := range plan.Stores {
		assert.NotEmpty(t, s.Name)
		assert.Equal(t, s.Slug, domain.Slugify(s.Name), "slug must follow the name")
		_, dup := slugs[s.Slug]
		assert.False(t, dup, "duplicate slug %q", s.Slug)
		slugs[s.Slug] = struct{}{}

		p, ok := s.Location.Point()
		require.True(t, ok)
		assert.NoError(t, p.Validate())
		assert.NotEmpty(t, s.Tags)
		assert.False(t, s.CreatedAt.After(fixedNow))

		assert.LessOrEqual(t, len(plan.Reviews[i]), maxReviewsPerStore)
		for _, r := range plan.Reviews[i] {
			assert.GreaterOrEqual(t, r.Rating, 1)
			assert.LessOrEqual(t, r.Rating, 5)
		}
		total += len(plan.Reviews[i])
	}
	assert.Equal(t, 100, total)
}

func TestLoad_WritesIntoRepository(t *testing.T) {
	repo := memory.NewStoreRepository(1)
	ctx := context.Background()

	res, err := Load(ctx, repo, Options{Stores: 10, Reviews: 30, RandomSeed: 3, Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, Result{Stores: 10, Reviews: 30}, res)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	top, err := repo.TopRated(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, top)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].AverageRating, top[i].AverageRating)
	}
}

func TestLoad_RejectsEmptyRequest(t *testing.T) {
	_, err := Load(context.Background(), memory.NewStoreRepository(1), Options{})
	assert.Error(t, err)
}

type failingTarget struct{ *memory.StoreRepository }

func (f *failingTarget) AddReview(context.Context, domain.Review) (domain.Review, error) {
	return domain.Review{}, errors.New("boom")
}

func TestLoad_StopsOnFirstError(t *testing.T) {
	target := &failingTarget{StoreRepository: memory.NewStoreRepository(1)}

	res, err := Load(context.Background(), target, Options{Stores: 3, Reviews: 36, RandomSeed: 9, Now: fixedNow})
	require.Error(t, err)
	assert.Equal(t, 1, res.Stores)
	assert.Zero(t, res.Reviews)
}

func TestDistribute(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	counts := distribute(10, 4, 1, 5, rng)
	sum := 0
	for _, c := range counts {
		assert.GreaterOrEqual(t, c, 1)
		assert.LessOrEqual(t, c, 5)
		sum += c
	}
	assert.Equal(t, 10, sum)

	// more than the buckets can hold is capped rather than looping forever
	capped := distribute(100, 2, 0, 3, rng)
	assert.Equal(t, []int{3, 3}, capped)

	assert.Nil(t, distribute(5, 0, 0, 1, rng))
}
