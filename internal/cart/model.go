package cart

import "github.com/shopspring/decimal"

// Line is one cart row priced against the product's current price. Price is
// never stored on the cart.
type Line struct {
	ItemID    int64
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// Item is a cart row as shown to its owner.
type Item struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ImageURL    *string         `json:"image"`
}
