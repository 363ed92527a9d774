package common

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Renderer turns a named view and its data into a response.
type Renderer interface {
	Render(w http.ResponseWriter, status int, view string, data any)
}

// Flasher records a one-shot user message for the next rendered page.
type Flasher interface {
	Flash(w http.ResponseWriter, kind, message string)
}

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

// ViewResponse is the body written by JSONRenderer.
type ViewResponse struct {
	View string `json:"view"`
	Data any    `json:"data"`
}

// JSONRenderer renders views as {"view": ..., "data": ...}.
type JSONRenderer struct {
	Logger *zap.Logger
}

func (r JSONRenderer) Render(w http.ResponseWriter, status int, view string, data any) {
	WriteJSON(r.Logger, w, status, ViewResponse{View: view, Data: data})
}

// HeaderFlasher carries flashes in X-Flash-<Kind> response headers.
type HeaderFlasher struct{}

func (HeaderFlasher) Flash(w http.ResponseWriter, kind, message string) {
	w.Header().Add(FlashHeader(kind), message)
}

// FlashHeader returns the header name used for kind.
func FlashHeader(kind string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = FlashInfo
	}
	return "X-Flash-" + strings.ToUpper(kind[:1]) + strings.ToLower(kind[1:])
}
