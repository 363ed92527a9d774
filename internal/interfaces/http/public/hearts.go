package public

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/storefinder/internal/interfaces/http/common"
	"github.com/sngm3741/storefinder/internal/metrics"
)

// heartToggleHandler flips the caller's heart on a store and returns the new set.
func (h *Handler) heartToggleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.requireUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		storeID := chi.URLParam(r, "id")
		updated, err := h.favorites.ToggleHeart(ctx, user.ID, storeID)
		if err != nil {
			common.WriteError(h.logger, w, err, "お気に入りの更新に失敗しました")
			return
		}

		hearted := updated.HasHeart(storeID)
		state := "unhearted"
		if hearted {
			state = "hearted"
		}
		metrics.HeartTogglesTotal.WithLabelValues(state).Inc()
		h.logger.Debug("heart toggled", zap.String("user", user.ID), zap.String("store", storeID), zap.Bool("hearted", hearted))

		hearts := append([]string{}, updated.Hearts...)
		common.WriteJSON(h.logger, w, http.StatusOK, heartsResponse{Hearts: hearts, Hearted: hearted})
	}
}

func (h *Handler) heartsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.requireUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		stores, err := h.favorites.ListHearted(ctx, user.ID)
		if err != nil {
			common.WriteError(h.logger, w, err, "お気に入り一覧の取得に失敗しました")
			return
		}
		h.renderer.Render(w, http.StatusOK, ViewHearts, map[string]any{"stores": buildStoreResponses(stores)})
	}
}
