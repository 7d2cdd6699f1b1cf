package events

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/order"
)

const (
	OrderPlacedEventName    = "OrderPlaced"
	OrderPlacedEventVersion = 1
)

var orderPlaced = eventKind{
	name:    OrderPlacedEventName,
	version: OrderPlacedEventVersion,
	schema:  "contracts/events/order/OrderPlaced.v1.payload.schema.json",
}

type OrderPlacedItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderPlacedPayload represents the v1 payload schema.
type OrderPlacedPayload struct {
	OrderID       int64             `json:"orderId"`
	UserID        int64             `json:"userId"`
	Items         []OrderPlacedItem `json:"items"`
	TotalPrice    decimal.Decimal   `json:"totalPrice"`
	PaymentMethod string            `json:"paymentMethod"`
	PlacedAt      time.Time         `json:"placedAt"`
}

type OrderPlacedEnvelope = EventEnvelope[OrderPlacedPayload]

// BuildOrderPlacedEnvelope builds the event for a committed order. The order
// id is the partition key so consumers see one order's events in order.
func BuildOrderPlacedEnvelope(o order.Order, producer string, meta EnvelopeMetadata) OrderPlacedEnvelope {
	items := make([]OrderPlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderPlacedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
		})
	}

	return wrap(orderPlaced, producer, strconv.FormatInt(o.ID, 10), meta, OrderPlacedPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Items:         items,
		TotalPrice:    o.TotalPrice,
		PaymentMethod: o.PaymentMethod,
		PlacedAt:      o.CreatedAt,
	})
}
