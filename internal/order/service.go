package order

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/auth"
)

var tracer = otel.Tracer("marketplace/order")

// Store is the read side used by QueryService.
type Store interface {
	Detail(ctx context.Context, orderID int64) (*Detail, error)
	ListByUser(ctx context.Context, userID int64) ([]Summary, error)
}

// QueryService answers order reads. It never opens a write transaction.
type QueryService struct {
	store Store
}

func NewQueryService(store Store) *QueryService {
	return &QueryService{store: store}
}

// GetOrder returns the order if the requester owns it or is an admin.
func (s *QueryService) GetOrder(ctx context.Context, orderID int64, requester auth.Requester) (*Detail, error) {
	ctx, span := tracer.Start(ctx, "order.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.Int64("requester.id", requester.UserID))

	if orderID <= 0 {
		return nil, apperr.InvalidInput("invalid order id")
	}

	d, err := s.store.Detail(ctx, orderID)
	if err != nil {
		span.SetStatus(codes.Error, "load order")
		return nil, err
	}
	if !requester.CanAccess(d.UserID) {
		return nil, apperr.ErrForbidden
	}
	return d, nil
}

// UserOrders lists a user's orders, newest first. Non-admins may only list
// their own.
func (s *QueryService) UserOrders(ctx context.Context, userID int64, requester auth.Requester) ([]Summary, error) {
	ctx, span := tracer.Start(ctx, "order.UserOrders")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID), attribute.Int64("requester.id", requester.UserID))

	if userID <= 0 {
		return nil, apperr.InvalidInput("invalid user id")
	}
	if !requester.CanAccess(userID) {
		return nil, apperr.ErrForbidden
	}

	out, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, "list orders")
		return nil, err
	}
	return out, nil
}

// ParseID parses a positive numeric id from a path parameter.
func ParseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("invalid %s", what)
	}
	return id, nil
}
