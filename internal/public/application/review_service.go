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

type reviewService struct {
	stores   StoreRepository
	validate *validator.Validate
	now      func() time.Time
}

// NewReviewService creates the review write service.
func NewReviewService(stores StoreRepository) ReviewService {
	return &reviewService{
		stores:   stores,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewService) Add(ctx context.Context, authorID, storeID string, input ReviewInput) (domain.Review, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return domain.Review{}, domain.Validationf("author is required")
	}
	input.Text = strings.TrimSpace(input.Text)
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.Review{}, domain.Validationf("%s failed on %s", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return domain.Review{}, domain.Validationf("%v", err)
	}

	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return domain.Review{}, err
	}

	review, err := s.stores.AddReview(ctx, domain.Review{
		Store:     store.ID,
		Author:    authorID,
		Rating:    input.Rating,
		Text:      input.Text,
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("add review to %s: %w", store.Slug, err)
	}
	return review, nil
}
