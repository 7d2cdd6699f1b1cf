package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/middleware"
)

type CartEditor interface {
	List(ctx context.Context, userID int64) ([]cart.Item, error)
	Add(ctx context.Context, userID, productID int64, quantity int) (cart.Item, error)
	SetQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	Remove(ctx context.Context, userID, itemID int64) error
}

// CartHandler edits the cart of the authenticated caller only.
type CartHandler struct {
	carts   CartEditor
	timeout time.Duration
	logger  zerolog.Logger
}

func NewCartHandler(carts CartEditor, logger zerolog.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{carts: carts, timeout: timeout, logger: logger}
}

func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.FromContext(r.Context())
	if !ok {
		writeAppError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.carts.List(ctx, requester.UserID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []cart.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.FromContext(r.Context())
	if !ok {
		writeAppError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}

	var body struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	item, err := h.carts.Add(ctx, requester.UserID, body.ProductID, body.Quantity)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.FromContext(r.Context())
	if !ok {
		writeAppError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}
	itemID, err := parseItemID(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.SetQuantity(ctx, requester.UserID, itemID, body.Quantity); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart quantity updated"})
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.FromContext(r.Context())
	if !ok {
		writeAppError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}
	itemID, err := parseItemID(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.Remove(ctx, requester.UserID, itemID); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}

func parseItemID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("invalid cart item id")
	}
	return id, nil
}
