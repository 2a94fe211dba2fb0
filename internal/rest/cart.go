package rest

import (
	"net/http"

	"storefront-be/internal/cart"
	"storefront-be/internal/transport"

	"github.com/google/uuid"
)

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type productRequest struct {
	ProductID uuid.UUID `json:"productId"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.Carts.Get(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, c)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var input cart.AddInput
	if err := transport.Decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.Carts.Add(r.Context(), currentUser(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, c)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req quantityRequest
	if err := transport.Decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.Carts.UpdateQuantity(r.Context(), currentUser(r), productID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, c)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.Carts.Remove(r.Context(), currentUser(r), productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, c)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Carts.Clear(r.Context(), currentUser(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
