package rest

import (
	"errors"
	"net/http"
	"net/url"

	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/transport"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pageSuccess = "/order-success"
	pageFailure = "/order-failure"
	pagePending = "/order-pending"
)

func (h *Handler) initiatePayment(w http.ResponseWriter, r *http.Request) {
	var input payment.InitiateInput
	if err := transport.Decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Payments.Initiate(r.Context(), currentUser(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, res)
}

func (h *Handler) paymentForOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	txn, err := h.Payments.GetForOrder(r.Context(), currentUser(r), orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, txn)
}

// paymentRedirect is where the gateway sends the browser back. It always
// answers with a redirect to the frontend.
func (h *Handler) paymentRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	merchantTxnID := q.Get("id")
	rawOrderID := q.Get("orderId")

	page := pageFailure
	orderID, err := uuid.Parse(rawOrderID)
	if err == nil && merchantTxnID != "" {
		status, err := h.Payments.HandleRedirect(r.Context(), merchantTxnID, orderID, q.Get("code"))
		switch {
		case err != nil:
			logger.FromCtx(r.Context()).Warn("payment redirect failed",
				zap.String("merchant_transaction_id", merchantTxnID),
				zap.Error(err),
			)
		case status == order.PaymentSuccess:
			page = pageSuccess
		case status == order.PaymentPending:
			page = pagePending
		}
	}

	target := h.FrontendURL + page
	if rawOrderID != "" {
		target += "?" + url.Values{"orderId": {rawOrderID}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

type webhookReply struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := transport.ReadBody(r)
	if err != nil {
		transport.Raw(w, http.StatusBadRequest, webhookReply{Status: "error", Message: "unreadable body"})
		return
	}

	err = h.Payments.HandleWebhook(r.Context(), body, r.Header.Get("X-VERIFY"))
	switch {
	case err == nil:
		transport.Raw(w, http.StatusOK, webhookReply{Status: "ok"})
	case errors.Is(err, payment.ErrInvalidWebhook):
		transport.Raw(w, http.StatusBadRequest, webhookReply{Status: "error", Message: err.Error()})
	case errors.Is(err, payment.ErrInvalidSignature):
		transport.Raw(w, http.StatusUnauthorized, webhookReply{Status: "error", Message: err.Error()})
	case errors.Is(err, payment.ErrTransactionNotFound):
		transport.Raw(w, http.StatusNotFound, webhookReply{Status: "error", Message: err.Error()})
	default:
		logger.FromCtx(r.Context()).Error("webhook processing failed", zap.Error(err))
		transport.Raw(w, http.StatusInternalServerError, webhookReply{Status: "error", Message: "processing failed"})
	}
}
