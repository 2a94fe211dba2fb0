package order

import "errors"

var (
	ErrUserNotAuthenticated = errors.New("user not authenticated")
	ErrForbidden            = errors.New("admin access required")

	ErrOrderNotFound     = errors.New("order not found")
	ErrAddressNotFound   = errors.New("address not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")

	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrCannotCancel      = errors.New("order can only be cancelled while processing")
)
