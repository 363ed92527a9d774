package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Validationf("bad"), http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", domain.ErrUnsupportedMediaType), http.StatusUnsupportedMediaType},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrDecode, http.StatusUnprocessableEntity},
		{domain.ErrPersistence, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError_HidesServerDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(zap.NewNop(), rec, errors.New("mongo: connection refused"), "店舗の取得に失敗しました")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "店舗の取得に失敗しました", body.Error)

	rec = httptest.NewRecorder()
	WriteError(zap.NewNop(), rec, domain.Validationf("name is required"), "ignored")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "name is required")
}

func TestJSONRenderer(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONRenderer{}.Render(rec, http.StatusOK, "stores", map[string]int{"page": 2})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"view":"stores","data":{"page":2}}`, rec.Body.String())
}

func TestHeaderFlasher(t *testing.T) {
	rec := httptest.NewRecorder()
	HeaderFlasher{}.Flash(rec, "info", "moved")
	HeaderFlasher{}.Flash(rec, "SUCCESS", "saved")

	assert.Equal(t, "moved", rec.Header().Get("X-Flash-Info"))
	assert.Equal(t, "saved", rec.Header().Get("X-Flash-Success"))
	assert.Equal(t, "X-Flash-Info", FlashHeader(""))
}

func TestParsePositiveInt(t *testing.T) {
	v, ok := ParsePositiveInt("3", 1)
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	for _, in := range []string{"", "0", "-2", "abc"} {
		v, ok = ParsePositiveInt(in, 1)
		assert.False(t, ok, in)
		assert.Equal(t, 1, v, in)
	}
}

func TestParseFloat(t *testing.T) {
	v, ok := ParseFloat(" -73.5 ")
	assert.True(t, ok)
	assert.Equal(t, -73.5, v)

	for _, in := range []string{"", "NaN", "Inf", "north"} {
		_, ok = ParseFloat(in)
		assert.False(t, ok, in)
	}
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithUser(context.Background(), AuthenticatedUser{ID: "u1"})
	user, ok := UserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", user.ID)
}
