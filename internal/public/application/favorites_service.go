package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

// favoritesService implements FavoritesService.
//
// ToggleHeart is a read-modify-write without a version check: two concurrent
// toggles by the same user may both read the same state and the last write wins.
type favoritesService struct {
	users  UserRepository
	stores StoreReader
}

// NewFavoritesService creates the hearts ledger service.
func NewFavoritesService(users UserRepository, stores StoreReader) FavoritesService {
	return &favoritesService{users: users, stores: stores}
}

func (s *favoritesService) ToggleHeart(ctx context.Context, userID, storeID string) (*domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.Validationf("user id is required")
	}
	if !domain.ValidID(storeID) {
		return nil, domain.Validationf("invalid store id %q", storeID)
	}
	if _, err := s.stores.FindByID(ctx, storeID); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var hearts []string
	if user.HasHeart(storeID) {
		hearts = user.WithoutHeart(storeID)
	} else {
		hearts = user.WithHeart(storeID)
	}

	updated, err := s.users.SaveHearts(ctx, userID, hearts)
	if err != nil {
		return nil, fmt.Errorf("save hearts for %s: %w", userID, err)
	}
	return updated, nil
}

func (s *favoritesService) ListHearted(ctx context.Context, userID string) ([]domain.Store, error) {
	user, err := s.loadUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}
	ids := domain.UniqueIDs(user.Hearts)
	if len(ids) == 0 {
		return []domain.Store{}, nil
	}
	stores, err := s.stores.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hearted stores for %s: %w", userID, err)
	}
	return stores, nil
}

// loadUser returns the stored ledger or an empty one for users who never hearted.
func (s *favoritesService) loadUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.User{ID: userID, Hearts: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	return user, nil
}
