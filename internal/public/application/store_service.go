package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

const maxSlugAttempts = 100

// storeCommandService implements StoreCommandService.
//
// Input is validated before the photo is ingested, and a stored photo is
// discarded again when the store write fails, so a failed submission leaves
// neither a record nor a dangling file behind.
// Update is read, authorize, validate, merge, write with "last write wins":
// there is no optimistic lock token on the store record.
type storeCommandService struct {
	repo     StoreRepository
	photos   PhotoIngestor
	validate *validator.Validate
	now      func() time.Time
}

// NewStoreCommandService creates the store write service.
func NewStoreCommandService(repo StoreRepository, photos PhotoIngestor) StoreCommandService {
	return &storeCommandService{
		repo:     repo,
		photos:   photos,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *storeCommandService) Create(ctx context.Context, authorID string, input StoreInput, photo *PhotoUpload) (*domain.Store, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, domain.Validationf("author is required")
	}
	input, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	filename, err := s.photos.Ingest(ctx, photo)
	if err != nil {
		return nil, err
	}

	store := &domain.Store{
		Name:        input.Name,
		Description: input.Description,
		Tags:        input.Tags,
		Location:    domain.NewLocation(input.Lng, input.Lat, input.Address),
		Photo:       filename,
		Author:      authorID,
		CreatedAt:   s.now(),
	}
	store.Slug, err = s.uniqueSlug(ctx, domain.Slugify(input.Name), "")
	if err == nil {
		err = s.repo.Create(ctx, store)
	}
	if err != nil {
		s.discard(ctx, filename)
		return nil, fmt.Errorf("create store %q: %w", store.Name, err)
	}
	return store, nil
}

func (s *storeCommandService) EditForm(ctx context.Context, requesterID, storeID string) (*domain.Store, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := confirmOwner(store, requesterID); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *storeCommandService) Update(ctx context.Context, requesterID, storeID string, input StoreInput, photo *PhotoUpload) (*domain.Store, error) {
	current, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := confirmOwner(current, requesterID); err != nil {
		return nil, err
	}
	input, err = s.normalize(input)
	if err != nil {
		return nil, err
	}

	filename, err := s.photos.Ingest(ctx, photo)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = input.Name
	updated.Description = input.Description
	updated.Tags = input.Tags
	updated.Location = domain.NewLocation(input.Lng, input.Lat, input.Address)
	if filename != "" {
		updated.Photo = filename
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		s.discard(ctx, filename)
		return nil, fmt.Errorf("update store %s: %w", storeID, err)
	}
	return &updated, nil
}

func (s *storeCommandService) normalize(input StoreInput) (StoreInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Address = strings.TrimSpace(input.Address)
	input.Tags = domain.NormalizeTags(input.Tags)

	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return input, domain.Validationf("%s failed on %s", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return input, domain.Validationf("%v", err)
	}
	if domain.Slugify(input.Name) == "" {
		return input, domain.Validationf("name must contain letters or digits")
	}
	return input, nil
}

// uniqueSlug picks base, base-2, base-3, ... until one is free.
func (s *storeCommandService) uniqueSlug(ctx context.Context, base, excludeID string) (string, error) {
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := domain.NthSlug(base, n)
		taken, err := s.repo.SlugTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free slug for %q", domain.ErrConflict, base)
}

func (s *storeCommandService) discard(ctx context.Context, filename string) {
	if filename == "" {
		return
	}
	// The write already failed; a leftover file only costs disk space.
	_ = s.photos.Discard(context.WithoutCancel(ctx), filename)
}

func confirmOwner(store *domain.Store, requesterID string) error {
	if !store.OwnedBy(requesterID) {
		return fmt.Errorf("%w: you must own a store before you can edit it", domain.ErrForbidden)
	}
	return nil
}
