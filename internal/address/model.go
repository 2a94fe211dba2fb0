package address

import (
	"time"

	"github.com/google/uuid"
)

type Address struct {
	ID           uuid.UUID `json:"id"`
	UserID       uint      `json:"userId"`
	ReceiverName string    `json:"receiverName"`
	Phone        string    `json:"phone"`
	Line1        string    `json:"line1"`
	Line2        *string   `json:"line2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postalCode"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"isDefault"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Input struct {
	ReceiverName string  `json:"receiverName" validate:"required,max=100"`
	Phone        string  `json:"phone" validate:"required,min=8,max=20"`
	Line1        string  `json:"line1" validate:"required,max=255"`
	Line2        *string `json:"line2" validate:"omitempty,max=255"`
	City         string  `json:"city" validate:"required,max=100"`
	State        string  `json:"state" validate:"required,max=100"`
	PostalCode   string  `json:"postalCode" validate:"required,max=12"`
	Country      string  `json:"country" validate:"omitempty,max=60"`
	SetAsDefault bool    `json:"setAsDefault"`
}

func (in Input) apply(a *Address) {
	a.ReceiverName = in.ReceiverName
	a.Phone = in.Phone
	a.Line1 = in.Line1
	a.Line2 = in.Line2
	a.City = in.City
	a.State = in.State
	a.PostalCode = in.PostalCode
	a.Country = in.Country
	if a.Country == "" {
		a.Country = "India"
	}
	if in.SetAsDefault {
		a.IsDefault = true
	}
}
