package cart

import (
	"context"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
)

type Store interface {
	List(ctx context.Context, userID int64) ([]Item, error)
	Add(ctx context.Context, userID, productID int64, quantity int) (Item, error)
	SetQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	Remove(ctx context.Context, userID, itemID int64) error
}

// Service validates cart edits before they reach the store. Every call is
// scoped to the owning user.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, userID int64) ([]Item, error) {
	if userID <= 0 {
		return nil, apperr.InvalidInput("invalid user id")
	}
	return s.store.List(ctx, userID)
}

func (s *Service) Add(ctx context.Context, userID, productID int64, quantity int) (Item, error) {
	if userID <= 0 || productID <= 0 {
		return Item{}, apperr.Validation("missing required fields")
	}
	if quantity <= 0 {
		return Item{}, apperr.Validation("quantity must be positive")
	}
	return s.store.Add(ctx, userID, productID, quantity)
}

func (s *Service) SetQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	if itemID <= 0 {
		return apperr.InvalidInput("invalid cart item id")
	}
	if quantity <= 0 {
		return apperr.Validation("invalid quantity")
	}
	return s.store.SetQuantity(ctx, userID, itemID, quantity)
}

func (s *Service) Remove(ctx context.Context, userID, itemID int64) error {
	if itemID <= 0 {
		return apperr.InvalidInput("invalid cart item id")
	}
	return s.store.Remove(ctx, userID, itemID)
}
