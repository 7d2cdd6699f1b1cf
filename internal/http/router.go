package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/middleware"
)

const (
	defaultCheckoutTimeout = 10 * time.Second
	defaultReadTimeout     = 3 * time.Second
)

type Deps struct {
	Logger   zerolog.Logger
	Service  string
	Verifier middleware.TokenVerifier

	Checkout Checkouter
	Orders   OrderQueries
	Carts    CartEditor

	Gatherer prometheus.Gatherer
	Requests middleware.RequestObserver

	CORSAllowOrigins []string

	CheckoutTimeout time.Duration
	ReadTimeout     time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.CheckoutTimeout <= 0 {
		d.CheckoutTimeout = defaultCheckoutTimeout
	}
	if d.ReadTimeout <= 0 {
		d.ReadTimeout = defaultReadTimeout
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID(d.Logger))
	r.Use(middleware.Trace)
	r.Use(middleware.Logging(d.Logger, d.Requests))
	r.Use(middleware.Recover(d.Logger))
	if len(d.CORSAllowOrigins) > 0 {
		r.Use(middleware.CORS(d.CORSAllowOrigins))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", healthHandler(d.Service))
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	orders := NewOrderHandler(d.Checkout, d.Orders, d.Logger, d.CheckoutTimeout, d.ReadTimeout)
	carts := NewCartHandler(d.Carts, d.Logger, d.ReadTimeout)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthJWT(d.Verifier, d.Logger))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/checkout", orders.Checkout)
			r.Get("/user/{userId}", orders.UserOrders)
			r.Get("/{id}", orders.GetOrder)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.List)
			r.Post("/", carts.Add)
			r.Put("/{itemId}", carts.SetQuantity)
			r.Delete("/{itemId}", carts.Remove)
		})
	})

	return r
}

func healthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": service,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
