package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the committed header of a checkout. Orders are immutable once
// written.
type Order struct {
	ID            int64
	UserID        int64
	TotalPrice    decimal.Decimal
	PaymentMethod string
	Address       string
	Phone         string
	CreatedAt     time.Time
	Items         []Line
}

// Line is one product of an order with the price captured at checkout.
type Line struct {
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal is quantity × unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type DetailLine struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image"`
}

// Detail is an order hydrated for display.
type Detail struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	UserName      string          `json:"userName"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PaymentMethod string          `json:"paymentMethod"`
	Address       string          `json:"address"`
	Phone         string          `json:"phone"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []DetailLine    `json:"items"`
}

type Summary struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	UserName      string          `json:"userName"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PaymentMethod string          `json:"paymentMethod"`
	Address       string          `json:"address"`
	Phone         string          `json:"phone"`
	CreatedAt     time.Time       `json:"createdAt"`
	ItemCount     int             `json:"itemCount"`
	Items         []DetailLine    `json:"items"`
}
