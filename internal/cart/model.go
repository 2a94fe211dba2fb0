package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a cart line joined with the current product data.
type Item struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	AddedAt   time.Time       `json:"addedAt"`
}

type Cart struct {
	Items     []*Item         `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func newCart(items []*Item) *Cart {
	c := &Cart{Items: items, Subtotal: decimal.Zero}
	if c.Items == nil {
		c.Items = []*Item{}
	}
	for _, it := range c.Items {
		it.LineTotal = it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		c.Subtotal = c.Subtotal.Add(it.LineTotal)
		c.ItemCount += it.Quantity
	}
	return c
}

type AddInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}
