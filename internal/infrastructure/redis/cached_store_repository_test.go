package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sngm3741/storefinder/internal/infrastructure/memory"
	"github.com/sngm3741/storefinder/internal/public/application"
	"github.com/sngm3741/storefinder/internal/public/domain"
)

func seededRepo(t *testing.T) *memory.StoreRepository {
	t.Helper()
	repo := memory.NewStoreRepository(1)
	for _, s := range []domain.Store{
		{Name: "A", Slug: "a", Tags: []string{"Wifi"}},
		{Name: "B", Slug: "b", Tags: []string{"Wifi", "Vegan"}},
	} {
		s := s
		require.NoError(t, repo.Create(context.Background(), &s))
	}
	return repo
}

func TestClient_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG")))

	assert.NoError(t, newClient(c).Ping(context.Background()))
}

func TestClient_GetMissAndError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).Return(mock.Result(mock.RedisNil())),
		c.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).Return(mock.ErrorResult(context.DeadlineExceeded)),
	)
	client := newClient(c)

	_, err := client.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)

	_, err = client.Get(context.Background(), "k")
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, OpGet, rerr.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_HSetWithTTLSetsExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("HSET", "h", "f", "v")).Return(mock.Result(mock.RedisInt64(1))),
		c.EXPECT().Do(gomock.Any(), mock.Match("EXPIRE", "h", "30")).Return(mock.Result(mock.RedisInt64(1))),
	)

	assert.NoError(t, newClient(c).HSetWithTTL(context.Background(), "h", "f", []byte("v"), 30*time.Second))
}

func TestDistinctTags_MissPopulatesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var written string
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("GET", KeyTags)).Return(mock.Result(mock.RedisNil())),
		c.EXPECT().Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if len(cmd) == 5 && cmd[0] == "SET" && cmd[1] == KeyTags && cmd[3] == "EX" && cmd[4] == "60" {
				written = cmd[2]
				return true
			}
			return false
		})).Return(mock.Result(mock.RedisString("OK"))),
	)

	repo := NewCachedStoreRepository(seededRepo(t), newClient(c), 0, nil)
	tags, err := repo.DistinctTags(context.Background())
	require.NoError(t, err)

	want := []domain.TagCount{{Tag: "Wifi", Count: 2}, {Tag: "Vegan", Count: 1}}
	assert.Equal(t, want, tags)

	var decoded []domain.TagCount
	require.NoError(t, json.Unmarshal([]byte(written), &decoded))
	assert.Equal(t, want, decoded)
}

func TestDistinctTags_HitSkipsRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	cached := []domain.TagCount{{Tag: "Cached", Count: 9}}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	c.EXPECT().Do(gomock.Any(), mock.Match("GET", KeyTags)).Return(mock.Result(mock.RedisString(string(payload))))

	repo := NewCachedStoreRepository(memory.NewStoreRepository(1), newClient(c), time.Minute, nil)
	tags, err := repo.DistinctTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, tags)
}

func TestTopRated_CacheErrorFallsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().Do(gomock.Any(), mock.Match("HGET", KeyTopRated, "10")).Return(mock.ErrorResult(errors.New("connection reset")))
	c.EXPECT().Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
		return cmd[0] == "HSET" && cmd[1] == KeyTopRated && cmd[2] == "10"
	})).Return(mock.ErrorResult(errors.New("connection reset")))

	repo := NewCachedStoreRepository(seededRepo(t), newClient(c), time.Minute, nil)
	top, err := repo.TopRated(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestWritesInvalidateCachedQueries(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().Do(gomock.Any(), mock.Match("DEL", KeyTags, KeyTopRated)).Return(mock.Result(mock.RedisInt64(2))).Times(2)

	base := seededRepo(t)
	repo := NewCachedStoreRepository(base, newClient(c), time.Minute, nil)
	ctx := context.Background()

	store := &domain.Store{Name: "C", Slug: "c", Tags: []string{"Vegan"}}
	require.NoError(t, repo.Create(ctx, store))

	store.Tags = []string{"Licensed"}
	require.NoError(t, repo.Update(ctx, store))

	stored, err := base.FindBySlug(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"Licensed"}, stored.Tags)
}

func TestFailedWriteKeepsCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	repo := NewCachedStoreRepository(seededRepo(t), newClient(c), time.Minute, nil)
	err := repo.Update(context.Background(), &domain.Store{ID: domain.NewID(), Slug: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddReviewInvalidatesTopRatedOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().Do(gomock.Any(), mock.Match("DEL", KeyTopRated)).Return(mock.Result(mock.RedisInt64(1)))

	base := seededRepo(t)
	repo := NewCachedStoreRepository(base, newClient(c), time.Minute, nil)
	ctx := context.Background()

	store, err := base.FindBySlug(ctx, "a")
	require.NoError(t, err)
	_, err = repo.AddReview(ctx, domain.Review{Store: store.ID, Rating: 5, Text: "great"})
	require.NoError(t, err)

	_, err = repo.AddReview(ctx, domain.Review{Store: domain.NewID(), Rating: 5})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// reviewDuringRead adds a review through the decorator while a TopRated read
// is still in flight.
type reviewDuringRead struct {
	application.StoreRepository
	onRead func()
}

func (r *reviewDuringRead) TopRated(ctx context.Context, limit int) ([]domain.RatedStore, error) {
	top, err := r.StoreRepository.TopRated(ctx, limit)
	r.onRead()
	return top, err
}

func TestTopRated_SkipsWriteBackAfterConcurrentInvalidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("HGET", KeyTopRated, "10")).Return(mock.Result(mock.RedisNil())),
		c.EXPECT().Do(gomock.Any(), mock.Match("DEL", KeyTopRated)).Return(mock.Result(mock.RedisInt64(1))),
	)

	base := seededRepo(t)
	ctx := context.Background()
	store, err := base.FindBySlug(ctx, "a")
	require.NoError(t, err)

	inner := &reviewDuringRead{StoreRepository: base}
	repo := NewCachedStoreRepository(inner, newClient(c), time.Minute, nil)
	inner.onRead = func() {
		_, err := repo.AddReview(ctx, domain.Review{Store: store.ID, Rating: 4, Text: "ok"})
		require.NoError(t, err)
	}

	// no HSET is expected: the stale result must not reach the cache
	_, err = repo.TopRated(ctx, 10)
	require.NoError(t, err)
}
