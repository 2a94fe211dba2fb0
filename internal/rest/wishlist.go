package rest

import (
	"net/http"

	"storefront-be/internal/transport"

	"github.com/google/uuid"
)

func (h *Handler) getWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.Wishlist.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, items)
}

func (h *Handler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := transport.Decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ProductID == uuid.Nil {
		writeError(w, r, errInvalidID)
		return
	}

	if err := h.Wishlist.Add(r.Context(), currentUser(r), req.ProductID); err != nil {
		writeError(w, r, err)
		return
	}
	h.getWishlist(w, r)
}

func (h *Handler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Wishlist.Remove(r.Context(), currentUser(r), productID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) moveToCart(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.Wishlist.MoveToCart(r.Context(), currentUser(r), productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, c)
}
