package rest

import (
	"errors"
	"net/http"

	"storefront-be/internal/address"
	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/transport"
	"storefront-be/internal/user"
	"storefront-be/internal/validation"
	"storefront-be/internal/wishlist"

	"go.uber.org/zap"
)

var errInvalidID = errors.New("invalid id")

var errorStatus = []struct {
	err    error
	status int
}{
	{transport.ErrBadRequestBody, http.StatusBadRequest},
	{errInvalidID, http.StatusBadRequest},

	{user.ErrEmailExists, http.StatusConflict},
	{user.ErrInvalidCredentials, http.StatusUnauthorized},
	{user.ErrInvalidToken, http.StatusUnauthorized},
	{user.ErrUserNotFound, http.StatusNotFound},

	{address.ErrUserNotAuthenticated, http.StatusUnauthorized},
	{address.ErrAddressNotFound, http.StatusNotFound},
	{product.ErrProductNotFound, http.StatusNotFound},

	{cart.ErrInvalidQuantity, http.StatusBadRequest},
	{cart.ErrCartItemNotFound, http.StatusNotFound},
	{cart.ErrInsufficientStock, http.StatusConflict},
	{wishlist.ErrItemNotFound, http.StatusNotFound},

	{order.ErrUserNotAuthenticated, http.StatusUnauthorized},
	{order.ErrForbidden, http.StatusForbidden},
	{order.ErrOrderNotFound, http.StatusNotFound},
	{order.ErrAddressNotFound, http.StatusNotFound},
	{order.ErrUserNotFound, http.StatusNotFound},
	{order.ErrProductNotFound, http.StatusNotFound},
	{order.ErrInsufficientStock, http.StatusConflict},
	{order.ErrEmptyOrder, http.StatusBadRequest},
	{order.ErrInvalidQuantity, http.StatusBadRequest},
	{order.ErrInvalidTransition, http.StatusConflict},
	{order.ErrCannotCancel, http.StatusConflict},

	{payment.ErrTransactionNotFound, http.StatusNotFound},
	{payment.ErrInvalidWebhook, http.StatusBadRequest},
	{payment.ErrInvalidSignature, http.StatusUnauthorized},
	{payment.ErrGateway, http.StatusBadGateway},
}

// writeError maps domain errors to HTTP statuses. Unknown errors are logged
// and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		transport.FieldErrors(w, http.StatusBadRequest, "validation failed", verr.Fields)
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			msg := e.err.Error()
			if e.status == http.StatusBadGateway {
				msg = "payment gateway unavailable"
			}
			transport.Error(w, e.status, msg)
			return
		}
	}

	logger.FromCtx(r.Context()).Error("unhandled error",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	transport.Error(w, http.StatusInternalServerError, "internal server error")
}
