package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/locale"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// LocaleHandler serves the session's language preference.
type LocaleHandler struct {
	logger *slog.Logger
}

// NewLocaleHandler creates a new locale HTTP handler.
func NewLocaleHandler(logger *slog.Logger) *LocaleHandler {
	return &LocaleHandler{logger: logger}
}

// SetLocaleRequest is the JSON request body for changing the language. Any
// BCP 47 tag that matches a supported language is accepted.
type SetLocaleRequest struct {
	Language string `json:"language" validate:"required,max=64"`
}

// LocaleView describes the active language.
type LocaleView struct {
	Language  locale.Language   `json:"language"`
	Direction locale.Direction  `json:"direction"`
	Supported []locale.Language `json:"supported"`
}

func newLocaleView(lang locale.Language) LocaleView {
	return LocaleView{Language: lang, Direction: lang.Direction(), Supported: locale.Supported()}
}

// GetLocale handles GET /api/v1/sessions/{sessionID}/locale
func (h *LocaleHandler) GetLocale(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newLocaleView(s.Locale.Language())})
}

// SetLocale handles PUT /api/v1/sessions/{sessionID}/locale
func (h *LocaleHandler) SetLocale(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	var req SetLocaleRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	lang, err := locale.Parse(req.Language)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := s.Locale.Set(r.Context(), lang); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newLocaleView(lang)})
}
