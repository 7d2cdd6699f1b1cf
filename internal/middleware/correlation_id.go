package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/logging"
)

const HeaderCorrelationID = "X-Correlation-Id"

type ctxKey string

const ctxCorrelationID ctxKey = "correlation_id"

// CorrelationID reuses the caller's X-Correlation-Id or generates one, echoes
// it on the response and attaches a request logger carrying it.
func CorrelationID(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := strings.TrimSpace(r.Header.Get(HeaderCorrelationID))
			if cid == "" {
				cid = uuid.NewString()
			}
			w.Header().Set(HeaderCorrelationID, cid)

			ctx := context.WithValue(r.Context(), ctxCorrelationID, cid)
			ctx = logging.WithCorrelationID(ctx, base, cid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetCorrelationID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxCorrelationID).(string); ok {
		return s
	}
	return ""
}
