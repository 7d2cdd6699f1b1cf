package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/logging"
)

// TokenVerifier turns a raw bearer token into the caller it identifies.
type TokenVerifier interface {
	Verify(raw string) (auth.Requester, error)
}

// AuthJWT rejects requests without a valid bearer token and stores the
// verified requester in the request context.
func AuthJWT(v TokenVerifier, fallback zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				WriteError(w, r, http.StatusUnauthorized, "missing or malformed bearer token")
				return
			}
			requester, err := v.Verify(raw)
			if err != nil {
				logging.From(r.Context(), fallback).Debug().Err(err).Msg("token rejected")
				WriteError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := auth.WithRequester(r.Context(), requester)
			l := logging.From(ctx, fallback).With().Int64("requester_id", requester.UserID).Logger()
			next.ServeHTTP(w, r.WithContext(l.WithContext(ctx)))
		})
	}
}
