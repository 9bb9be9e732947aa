package delivery

import (
	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, h *ConvertHandler) {
	r.With(httputil.RecoverMiddleware).
		Post("/convert", h.Convert)
}
