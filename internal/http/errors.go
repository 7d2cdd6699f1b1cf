package httpapi

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/middleware"
)

// writeAppError maps err to its status and stable message. The cause is
// logged for 5xx answers and never written to the body.
func writeAppError(w http.ResponseWriter, r *http.Request, fallback zerolog.Logger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logging.From(r.Context(), fallback).Error().Err(err).Int("status", status).Msg("request failed")
	}
	middleware.WriteError(w, r, status, apperr.Message(err))
}
