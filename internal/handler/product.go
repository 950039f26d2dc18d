package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/catalog"
)

// GetProduct serves GET /api/product?path=...|slug=...[&locale=...].
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vars := catalog.Variables{
		Path:   q.Get("path"),
		Slug:   q.Get("slug"),
		Locale: q.Get("locale"),
	}
	if vars.Locale == "" {
		vars.Locale = h.negotiateLocale(r)
	}

	result, err := catalog.GetProduct(r.Context(), h.storefront, vars)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingPath) || errors.Is(err, catalog.ErrAmbiguousLookup) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		zctx.From(r.Context()).Error("Product lookup failed",
			zap.String("path", vars.Path),
			zap.String("slug", vars.Slug),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "storefront request failed")
		return
	}
	if result.Product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	locale := vars.Locale
	if locale == "" && h.storefront != nil {
		locale = h.storefront.Locale
	}
	if locale != "" {
		w.Header().Set("Content-Language", locale)
	}
	writeJSON(w, http.StatusOK, result.Product.Encode)
}
