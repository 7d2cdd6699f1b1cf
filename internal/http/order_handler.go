package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/order"
)

type Checkouter interface {
	Checkout(ctx context.Context, req checkout.Request) (checkout.Result, error)
}

type OrderQueries interface {
	GetOrder(ctx context.Context, orderID int64, requester auth.Requester) (*order.Detail, error)
	UserOrders(ctx context.Context, userID int64, requester auth.Requester) ([]order.Summary, error)
}

type OrderHandler struct {
	checkout        Checkouter
	orders          OrderQueries
	logger          zerolog.Logger
	checkoutTimeout time.Duration
	readTimeout     time.Duration
}

func NewOrderHandler(c Checkouter, q OrderQueries, logger zerolog.Logger, checkoutTimeout, readTimeout time.Duration) *OrderHandler {
	return &OrderHandler{
		checkout:        c,
		orders:          q,
		logger:          logger,
		checkoutTimeout: checkoutTimeout,
		readTimeout:     readTimeout,
	}
}

type checkoutRequest struct {
	UserID        userID `json:"userId"`
	PaymentMethod string `json:"paymentMethod"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
}

// userID accepts a JSON number or a numeric string. null, "" and 0 leave it
// unset.
type userID int64

func (id *userID) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "null" {
		*id = 0
		return nil
	}
	if s, err := strconv.Unquote(raw); err == nil {
		raw = s
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return apperr.InvalidInput("invalid user id")
	}
	*id = userID(v)
	return nil
}

type checkoutResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
	Total   string `json:"total"`
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.FromContext(r.Context())
	if !ok {
		writeAppError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}

	var body checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			writeAppError(w, r, h.logger, err)
			return
		}
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	// The body may omit userId; it then defaults to the caller.
	target := int64(body.UserID)
	if target == 0 {
		target = requester.UserID
	}
	if !requester.CanAccess(target) {
		writeAppError(w, r, h.logger, apperr.ErrForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.checkoutTimeout)
	defer cancel()

	res, err := h.checkout.Checkout(ctx, checkout.Request{
		UserID:        target,
		PaymentMethod: body.PaymentMethod,
		Address:       body.Address,
		Phone:         body.Phone,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		Message: "order placed",
		OrderID: res.OrderID,
		Total:   res.Total.StringFixed(2),
	})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.FromContext(r.Context())
	if !ok {
		writeAppError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}
	orderID, err := order.ParseID(chi.URLParam(r, "id"), "order id")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.readTimeout)
	defer cancel()

	detail, err := h.orders.GetOrder(ctx, orderID, requester)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *OrderHandler) UserOrders(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.FromContext(r.Context())
	if !ok {
		writeAppError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}
	userID, err := order.ParseID(chi.URLParam(r, "userId"), "user id")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.readTimeout)
	defer cancel()

	summaries, err := h.orders.UserOrders(ctx, userID, requester)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if summaries == nil {
		summaries = []order.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}
