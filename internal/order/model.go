package order

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	PaymentCOD     PaymentMethod = "COD"
	PaymentPhonePe PaymentMethod = "PHONEPE"
)

// transitions lists, per target status, the statuses an order may move from.
var transitions = map[Status][]Status{
	StatusShipped:   {StatusProcessing},
	StatusDelivered: {StatusProcessing, StatusShipped},
	StatusCancelled: {StatusProcessing},
}

func allowedFrom(to Status) []Status {
	return transitions[to]
}

// ShippingAddress is copied from the user's address when the order is placed.
type ShippingAddress struct {
	ReceiverName string  `json:"receiverName"`
	Phone        string  `json:"phone"`
	Line1        string  `json:"line1"`
	Line2        *string `json:"line2,omitempty"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postalCode"`
	Country      string  `json:"country"`
}

type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Item struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (i *Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uint            `json:"userId"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Status          Status          `json:"status"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	Shipping        ShippingAddress `json:"shippingAddress"`
	ShippingID      *string         `json:"shippingId,omitempty"`
	ShippingPartner *string         `json:"shippingPartner,omitempty"`
	Customer        Customer        `json:"customer"`
	Items           []*Item         `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Total sums price × quantity over the items.
func Total(items []*Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

type LineInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

type CreateInput struct {
	AddressID     uuid.UUID     `json:"addressId" validate:"required"`
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=COD PHONEPE"`
	Items         []LineInput   `json:"items" validate:"required,min=1,dive"`
}

// mergeLines folds duplicate products together and sorts by product id so
// concurrent orders lock product rows in the same order.
func mergeLines(lines []LineInput) ([]LineInput, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	byID := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		byID[l.ProductID] += l.Quantity
	}

	out := make([]LineInput, 0, len(byID))
	for id, qty := range byID {
		out = append(out, LineInput{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out, nil
}

type ShippingInput struct {
	ShippingID      string `json:"shippingId" validate:"required,max=100"`
	ShippingPartner string `json:"shippingPartner" validate:"required,max=100"`
}

type ListFilter struct {
	Status        *Status
	PaymentStatus *PaymentStatus
	Page          int
	Limit         int
}

type ListResult struct {
	Items      []*Order `json:"items"`
	TotalCount int      `json:"totalCount"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
}
