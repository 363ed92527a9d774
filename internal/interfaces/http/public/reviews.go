package public

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/storefinder/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/storefinder/internal/public/application"
	"github.com/sngm3741/storefinder/internal/public/domain"
)

// reviewCreateHandler accepts a urlencoded rating/text pair for the store in the path.
func (h *Handler) reviewCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.requireUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		r.Body = http.MaxBytesReader(w, r.Body, common.MaxReviewRequestBody)
		if err := r.ParseForm(); err != nil {
			common.WriteError(h.logger, w, domain.Validationf("invalid form: %v", err), "フォームの解析に失敗しました")
			return
		}
		rating, ok := common.ParsePositiveInt(r.PostFormValue("rating"), 0)
		if !ok {
			common.WriteError(h.logger, w, domain.Validationf("rating must be between 1 and 5"), "")
			return
		}

		review, err := h.reviews.Add(ctx, user.ID, chi.URLParam(r, "id"), publicapp.ReviewInput{
			Rating: rating,
			Text:   r.PostFormValue("text"),
		})
		if err != nil {
			common.WriteError(h.logger, w, err, "レビューの登録に失敗しました")
			return
		}

		h.logger.Info("review created", zap.String("store", review.Store), zap.String("author", user.ID), zap.Int("rating", review.Rating))
		h.flasher.Flash(w, common.FlashSuccess, "Review Saved!")
		common.WriteJSON(h.logger, w, http.StatusCreated, buildReviewResponses([]domain.Review{review})[0])
	}
}
