// Package checkout turns a user's cart into an order in one transaction.
//
// The cart rows are read with FOR UPDATE OF the cart table, so two checkouts
// of the same user serialize: the second one blocks until the first commits,
// then finds the cart empty. Product rows are never locked, so checkouts of
// different users do not contend. Each price is read once, under the lock,
// and used both for the order total and for the line snapshot.
package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/order"
)

var tracer = otel.Tracer("marketplace/checkout")

const (
	OutcomeSuccess     = "success"
	OutcomeEmptyCart   = "empty_cart"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"
)

type CartStore interface {
	LockLines(ctx context.Context, tx pgx.Tx, userID int64) ([]cart.Line, error)
	Clear(ctx context.Context, tx pgx.Tx, userID int64, itemIDs []int64) (int64, error)
}

type OrderWriter interface {
	InsertOrder(ctx context.Context, tx pgx.Tx, o *order.Order) error
	InsertLines(ctx context.Context, tx pgx.Tx, orderID int64, lines []order.Line) error
}

// EventRecorder stores an OrderPlaced event inside the checkout transaction.
type EventRecorder interface {
	RecordOrderPlaced(ctx context.Context, tx pgx.Tx, o order.Order, meta events.EnvelopeMetadata) error
}

type Observer interface {
	ObserveCheckout(outcome string, d time.Duration)
}

type Request struct {
	UserID        int64
	PaymentMethod string
	Address       string
	Phone         string
	CorrelationID string
}

func (r Request) normalized() Request {
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = strings.TrimSpace(r.Phone)
	return r
}

func (r Request) Validate() error {
	if r.UserID <= 0 || r.PaymentMethod == "" || r.Address == "" || r.Phone == "" {
		return apperr.Validation("missing required fields")
	}
	return nil
}

type Result struct {
	OrderID   int64
	Total     decimal.Decimal
	Lines     []order.Line
	CreatedAt time.Time
}

type Service struct {
	pool     db.Beginner
	carts    CartStore
	orders   OrderWriter
	events   EventRecorder
	observer Observer
	logger   zerolog.Logger
}

type Option func(*Service)

// WithEvents records an OrderPlaced event in the same transaction as the order.
func WithEvents(r EventRecorder) Option {
	return func(s *Service) { s.events = r }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func NewService(pool db.Beginner, carts CartStore, orders OrderWriter, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{pool: pool, carts: carts, orders: orders, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Price computes the order total and the line snapshots from one read of the
// cart. The total always equals the sum of the returned line subtotals.
func Price(lines []cart.Line) (decimal.Decimal, []order.Line) {
	total := decimal.Zero
	out := make([]order.Line, 0, len(lines))
	for _, l := range lines {
		ol := order.Line{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.Price}
		total = total.Add(ol.Subtotal())
		out = append(out, ol)
	}
	return total, out
}

// Checkout places an order for everything in the user's cart and empties it.
//
// Errors: apperr.ErrValidation before any transaction is opened,
// apperr.ErrEmptyCart with nothing written, apperr.ErrTransientStore when no
// transaction could be started, and apperr.ErrCheckoutFailed (wrapping the
// cause) once the transaction has been rolled back.
func (s *Service) Checkout(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "checkout.Checkout")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", req.UserID))

	log := logging.From(ctx, s.logger)

	req = req.normalized()
	if err := req.Validate(); err != nil {
		s.observe(OutcomeInvalid, start)
		return Result{}, err
	}

	var (
		res   Result
		began bool
	)
	err := db.InTx(ctx, s.pool, db.ReadCommitted, func(tx pgx.Tx) error {
		began = true

		cartLines, err := s.carts.LockLines(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if len(cartLines) == 0 {
			return apperr.ErrEmptyCart
		}

		total, lines := Price(cartLines)
		o := order.Order{
			UserID:        req.UserID,
			TotalPrice:    total,
			PaymentMethod: req.PaymentMethod,
			Address:       req.Address,
			Phone:         req.Phone,
		}
		if err := s.orders.InsertOrder(ctx, tx, &o); err != nil {
			return err
		}
		if err := s.orders.InsertLines(ctx, tx, o.ID, lines); err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = o.ID
		}
		o.Items = lines

		if s.events != nil {
			meta := events.EnvelopeMetadata{CorrelationID: req.CorrelationID}
			if err := s.events.RecordOrderPlaced(ctx, tx, o, meta); err != nil {
				return err
			}
		}

		if _, err := s.carts.Clear(ctx, tx, req.UserID, itemIDs(cartLines)); err != nil {
			return err
		}

		res = Result{OrderID: o.ID, Total: total, Lines: lines, CreatedAt: o.CreatedAt}
		return nil
	})

	switch {
	case err == nil:
		s.observe(OutcomeSuccess, start)
		span.SetAttributes(attribute.Int64("order.id", res.OrderID))
		log.Info().Int64("user_id", req.UserID).Int64("order_id", res.OrderID).
			Str("total", res.Total.StringFixed(2)).Int("lines", len(res.Lines)).Msg("checkout completed")
		return res, nil

	case errors.Is(err, apperr.ErrEmptyCart):
		s.observe(OutcomeEmptyCart, start)
		log.Info().Int64("user_id", req.UserID).Msg("checkout rejected: cart is empty")
		return Result{}, apperr.ErrEmptyCart

	case !began:
		s.observe(OutcomeUnavailable, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin transaction")
		log.Error().Err(err).Int64("user_id", req.UserID).Msg("checkout could not start a transaction")
		return Result{}, err

	default:
		outcome := OutcomeFailed
		if errors.Is(err, apperr.ErrTransientStore) {
			outcome = OutcomeUnavailable
		}
		s.observe(outcome, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout rolled back")
		log.Error().Err(err).Int64("user_id", req.UserID).Msg("checkout rolled back")
		return Result{}, apperr.CheckoutFailed(err)
	}
}

func itemIDs(lines []cart.Line) []int64 {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ItemID
	}
	return ids
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveCheckout(outcome, time.Since(start))
	}
}
