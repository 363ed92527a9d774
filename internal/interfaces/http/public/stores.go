package public

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/storefinder/internal/interfaces/http/common"
	"github.com/sngm3741/storefinder/internal/metrics"
)

// storeListHandler serves /, /stores and /stores/page/{page}.
// A page past the end redirects to the last page with an info flash.
func (h *Handler) storeListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		page, _ := common.ParsePositiveInt(chi.URLParam(r, "page"), 1)

		result, err := h.discovery.ListPaged(ctx, page)
		if err != nil {
			common.WriteError(h.logger, w, err, "店舗一覧の取得に失敗しました")
			return
		}
		if result.Redirect {
			metrics.PageRedirectsTotal.Inc()
			h.flasher.Flash(w, common.FlashInfo, fmt.Sprintf(
				"Hey! You asked for page %d. But that doesn't exist. So I put you on page %d", page, result.RedirectPage))
			http.Redirect(w, r, fmt.Sprintf("/stores/page/%d", result.RedirectPage), http.StatusFound)
			return
		}

		h.renderer.Render(w, http.StatusOK, ViewStores, storeListResponse{
			Stores: buildStoreResponses(result.Stores),
			Page:   result.Page,
			Pages:  result.Pages,
			Count:  result.Count,
		})
	}
}

func (h *Handler) tagListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
		if err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.ErrorResponse{Error: "invalid tag"})
			return
		}

		listing, err := h.discovery.ListByTag(ctx, tag)
		if err != nil {
			common.WriteError(h.logger, w, err, "タグ一覧の取得に失敗しました")
			return
		}

		h.renderer.Render(w, http.StatusOK, ViewTags, tagListResponse{
			Tag:    listing.Tag,
			Tags:   buildTagCountResponses(listing.Tags),
			Stores: buildStoreResponses(listing.Stores),
		})
	}
}

func (h *Handler) storeDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		detail, err := h.discovery.Detail(ctx, chi.URLParam(r, "slug"))
		if err != nil {
			common.WriteError(h.logger, w, err, "店舗情報の取得に失敗しました")
			return
		}

		h.renderer.Render(w, http.StatusOK, ViewStore, storeDetailResponse{
			Store:   buildStoreResponse(detail.Store),
			Reviews: buildReviewResponses(detail.Reviews),
		})
	}
}

func (h *Handler) topStoresHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		limit, _ := common.ParsePositiveInt(r.URL.Query().Get("limit"), 0)
		top, err := h.discovery.TopRated(ctx, limit)
		if err != nil {
			common.WriteError(h.logger, w, err, "ランキングの取得に失敗しました")
			return
		}

		items := make([]ratedStoreResponse, 0, len(top))
		for _, s := range top {
			items = append(items, ratedStoreResponse{
				storeResponse: buildStoreResponse(s.Store),
				AverageRating: s.AverageRating,
				ReviewCount:   s.ReviewCount,
			})
		}
		h.renderer.Render(w, http.StatusOK, ViewTopStores, map[string]any{"stores": items})
	}
}

// mapPageHandler renders the map shell; markers come from /api/stores/near.
func (h *Handler) mapPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h.renderer.Render(w, http.StatusOK, ViewMap, map[string]string{"title": "Map"})
	}
}

func (h *Handler) addStoreFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.requireUser(w, r); !ok {
			return
		}
		h.renderer.Render(w, http.StatusOK, ViewEditStore, editStoreResponse{
			Title:         "Add Store",
			SuggestedTags: common.SuggestedTags,
		})
	}
}

func (h *Handler) createStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.requireUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		form, err := parseStoreForm(w, r)
		if err != nil {
			common.WriteError(h.logger, w, err, "フォームの解析に失敗しました")
			return
		}
		defer form.close()

		store, err := h.commands.Create(ctx, user.ID, form.input, form.photo)
		if err != nil {
			common.WriteError(h.logger, w, err, "店舗の登録に失敗しました")
			return
		}

		h.logger.Info("store created", zap.String("id", store.ID), zap.String("slug", store.Slug), zap.String("author", user.ID))
		h.flasher.Flash(w, common.FlashSuccess, fmt.Sprintf("Successfully Created %s. Care to leave a review?", store.Name))
		http.Redirect(w, r, "/store/"+url.PathEscape(store.Slug), http.StatusFound)
	}
}

func (h *Handler) editStoreFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.requireUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		store, err := h.commands.EditForm(ctx, user.ID, chi.URLParam(r, "id"))
		if err != nil {
			common.WriteError(h.logger, w, err, "店舗情報の取得に失敗しました")
			return
		}

		resp := buildStoreResponse(*store)
		h.renderer.Render(w, http.StatusOK, ViewEditStore, editStoreResponse{
			Title:         "Edit " + store.Name,
			Store:         &resp,
			SuggestedTags: common.SuggestedTags,
		})
	}
}

func (h *Handler) updateStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.requireUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		form, err := parseStoreForm(w, r)
		if err != nil {
			common.WriteError(h.logger, w, err, "フォームの解析に失敗しました")
			return
		}
		defer form.close()

		id := chi.URLParam(r, "id")
		store, err := h.commands.Update(ctx, user.ID, id, form.input, form.photo)
		if err != nil {
			common.WriteError(h.logger, w, err, "店舗の更新に失敗しました")
			return
		}

		h.flasher.Flash(w, common.FlashSuccess, fmt.Sprintf("Successfully updated %s.", store.Name))
		http.Redirect(w, r, "/stores/"+url.PathEscape(store.ID)+"/edit", http.StatusFound)
	}
}
