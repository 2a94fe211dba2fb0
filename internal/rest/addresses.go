package rest

import (
	"net/http"

	"storefront-be/internal/address"
	"storefront-be/internal/transport"
)

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	list, err := h.Addresses.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, list)
}

func (h *Handler) createAddress(w http.ResponseWriter, r *http.Request) {
	var input address.Input
	if err := transport.Decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Addresses.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusCreated, a)
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input address.Input
	if err := transport.Decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Addresses.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, a)
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Addresses.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Addresses.SetDefault(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, map[string]string{"id": id.String()})
}
