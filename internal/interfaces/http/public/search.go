package public

import (
	"context"
	"net/http"

	"github.com/sngm3741/storefinder/internal/interfaces/http/common"
)

func (h *Handler) searchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		query := []rune(r.URL.Query().Get("q"))
		if len(query) > common.MaxSearchQueryRunes {
			query = query[:common.MaxSearchQueryRunes]
		}

		results, err := h.discovery.Search(ctx, string(query), 0)
		if err != nil {
			common.WriteError(h.logger, w, err, "検索に失敗しました")
			return
		}

		items := make([]searchResultResponse, 0, len(results))
		for _, s := range results {
			items = append(items, searchResultResponse{
				storeResponse: buildStoreResponse(s.Store),
				Score:         s.Score,
			})
		}
		common.WriteJSON(h.logger, w, http.StatusOK, items)
	}
}

func (h *Handler) nearbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		q := r.URL.Query()
		lng, lngOK := common.ParseFloat(q.Get("lng"))
		lat, latOK := common.ParseFloat(q.Get("lat"))
		if !lngOK || !latOK {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.ErrorResponse{Error: "lng と lat を数値で指定してください"})
			return
		}

		stores, err := h.discovery.Nearby(ctx, lng, lat, 0, 0)
		if err != nil {
			common.WriteError(h.logger, w, err, "近くの店舗の取得に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildNearbyResponses(stores))
	}
}
