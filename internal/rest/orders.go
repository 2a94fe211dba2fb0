package rest

import (
	"net/http"

	"storefront-be/internal/order"
	"storefront-be/internal/transport"
	"storefront-be/internal/validation"

	"github.com/google/uuid"
)

// createOrderRequest places an order from explicit items, or from the cart
// when items are omitted.
type createOrderRequest struct {
	AddressID     uuid.UUID           `json:"addressId" validate:"required"`
	PaymentMethod order.PaymentMethod `json:"paymentMethod" validate:"required,oneof=COD PHONEPE"`
	Items         []order.LineInput   `json:"items" validate:"omitempty,dive"`
}

type statusRequest struct {
	Status order.Status `json:"status"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := transport.Decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		o   *order.Order
		err error
	)
	if len(req.Items) > 0 {
		o, err = h.Orders.Create(r.Context(), currentUser(r), order.CreateInput{
			AddressID:     req.AddressID,
			PaymentMethod: req.PaymentMethod,
			Items:         req.Items,
		})
	} else {
		o, err = h.Orders.Checkout(r.Context(), currentUser(r), req.AddressID, req.PaymentMethod)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusCreated, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	res, err := h.Orders.ListForUser(r.Context(), currentUser(r), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, res)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.Orders.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.Orders.Cancel(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, o)
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	f := order.ListFilter{
		Page:  queryInt(r, "page"),
		Limit: queryInt(r, "limit"),
	}
	if v := queryString(r, "status"); v != nil {
		s := order.Status(*v)
		f.Status = &s
	}
	if v := queryString(r, "paymentStatus"); v != nil {
		s := order.PaymentStatus(*v)
		f.PaymentStatus = &s
	}

	res, err := h.Orders.ListAll(r.Context(), currentUser(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, res)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req statusRequest
	if err := transport.Decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.Orders.UpdateStatus(r.Context(), currentUser(r), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, o)
}

func (h *Handler) updateOrderShipping(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input order.ShippingInput
	if err := transport.Decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.Orders.UpdateShipping(r.Context(), currentUser(r), id, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, o)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Orders.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
