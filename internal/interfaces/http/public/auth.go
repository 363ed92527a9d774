package public

import (
	"net/http"

	"github.com/sngm3741/storefinder/internal/interfaces/http/common"
)

func (h *Handler) authVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.ErrorResponse{Error: "認証情報の取得に失敗しました"})
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status": "ok",
			"user":   user,
		})
	}
}

// requireUser returns the authenticated user or writes 401.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (common.AuthenticatedUser, bool) {
	user, ok := common.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.ErrorResponse{Error: "ログインが必要です"})
		return common.AuthenticatedUser{}, false
	}
	return user, true
}
