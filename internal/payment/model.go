package payment

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"storefront-be/internal/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidWebhook      = errors.New("invalid webhook payload")
)

// Transaction is one gateway attempt for an order. Its status leaves PENDING
// at most once.
type Transaction struct {
	ID                    uuid.UUID           `json:"id"`
	OrderID               uuid.UUID           `json:"orderId"`
	MerchantTransactionID string              `json:"merchantTransactionId"`
	GatewayTransactionID  *string             `json:"gatewayTransactionId,omitempty"`
	Amount                decimal.Decimal     `json:"amount"`
	Status                order.PaymentStatus `json:"status"`
	GatewayResponse       json.RawMessage     `json:"-"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

// ApplyResult reports what a guarded status write did.
type ApplyResult struct {
	Applied bool
	Status  order.PaymentStatus
	OrderID uuid.UUID
}

type InitiateInput struct {
	AddressID    uuid.UUID         `json:"addressId" validate:"required"`
	Items        []order.LineInput `json:"items" validate:"omitempty,dive"`
	MobileNumber string            `json:"mobileNumber" validate:"omitempty,numeric,len=10"`
}

type InitiateResult struct {
	OrderID               uuid.UUID `json:"orderId"`
	MerchantTransactionID string    `json:"merchantTransactionId"`
	RedirectURL           string    `json:"redirectUrl"`
}

// MapCode translates a PhonePe response code into a payment status. Anything
// not known to be terminal stays PENDING and is never written.
func MapCode(code string) order.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "PAYMENT_SUCCESS":
		return order.PaymentSuccess
	case "PAYMENT_ERROR", "PAYMENT_DECLINED", "TIMED_OUT", "PAYMENT_CANCELLED",
		"AUTHORIZATION_FAILED", "TRANSACTION_NOT_FOUND":
		return order.PaymentFailed
	default:
		return order.PaymentPending
	}
}

func newMerchantTransactionID() string {
	return "MT" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
