// Package handler exposes storefront product lookups over HTTP.
package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"golang.org/x/text/language"

	"github.com/xenking/storefront/internal/storefront"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// Locales lists the locales the storefront serves. An Accept-Language
	// header is matched against them when a request names no locale. When
	// empty, the header is ignored and the storefront default locale applies.
	Locales []string
}

// Handler serves the product API, delegating lookups to the storefront
// configuration it was built with.
type Handler struct {
	storefront *storefront.Config
	locales    []string
	matcher    language.Matcher
}

// NewHandler constructs a Handler. Locales that fail to parse are dropped.
func NewHandler(cfg HandlerConfig, sf *storefront.Config) *Handler {
	h := &Handler{storefront: sf}

	tags := make([]language.Tag, 0, len(cfg.Locales))
	for _, l := range cfg.Locales {
		tag, err := language.Parse(l)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		h.locales = append(h.locales, l)
	}
	if len(tags) > 0 {
		h.matcher = language.NewMatcher(tags)
	}
	return h
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/product", h.GetProduct)
}

// negotiateLocale picks a supported locale from the Accept-Language header,
// returning "" when none is acceptable.
func (h *Handler) negotiateLocale(r *http.Request) string {
	if h.matcher == nil {
		return ""
	}
	accept := r.Header.Get("Accept-Language")
	if accept == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := h.matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	return h.locales[idx]
}

func writeJSON(w http.ResponseWriter, status int, f func(e *jx.Encoder)) {
	var e jx.Encoder
	f(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}
