package server

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/storefinder/internal/interfaces/http/common"
	"github.com/sngm3741/storefinder/internal/logger"
)

const bearerPrefix = "Bearer "

var errInvalidToken = errors.New("アクセストークンが無効です")

type authClaims struct {
	jwt.RegisteredClaims
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// authMiddleware は Authorization ヘッダーから JWT を検証し、認証済みユーザーをコンテキストへ詰める。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r.Header.Get("Authorization"))
		if err == nil {
			var claims *authClaims
			claims, err = s.parseAuthToken(tokenString)
			if err == nil {
				user := common.AuthenticatedUser{
					ID:       claims.Subject,
					Name:     claims.Name,
					Username: claims.PreferredUsername,
				}
				next.ServeHTTP(w, r.WithContext(common.ContextWithUser(r.Context(), user)))
				return
			}
		}

		logger.FromContext(r.Context()).Debug("認証に失敗しました", zap.Error(err))
		common.WriteJSON(s.logger, w, http.StatusUnauthorized, common.ErrorResponse{Error: err.Error()})
	})
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("Authorization ヘッダーがありません")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", errors.New("Bearer トークンを指定してください")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", errors.New("アクセストークンが空です")
	}
	return token, nil
}

// parseAuthToken は複数の JWT 設定を順番に試し、署名と Issuer/Audience を確認する。
func (s *Server) parseAuthToken(tokenString string) (*authClaims, error) {
	if len(s.jwtConfigs) == 0 {
		return nil, fmt.Errorf("認証設定が構成されていません")
	}

	for _, cfg := range s.jwtConfigs {
		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return cfg.Secret, nil
		}, jwt.WithLeeway(30*time.Second))
		if err != nil || !token.Valid {
			continue
		}
		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			continue
		}
		if strings.TrimSpace(claims.Subject) == "" {
			continue
		}
		if s.jwtAudience != "" && !slices.Contains(claims.Audience, s.jwtAudience) {
			continue
		}
		return claims, nil
	}

	return nil, errInvalidToken
}
