package rest

import (
	"net/http"
	"strconv"

	"storefront-be/internal/product"
	"storefront-be/internal/transport"

	"github.com/shopspring/decimal"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := product.ListFilter{
		Category: queryString(r, "category"),
		Search:   queryString(r, "search"),
		Sort:     product.SortBy(q.Get("sort")),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}
	if v, err := strconv.ParseBool(q.Get("featured")); err == nil {
		f.Featured = &v
	}
	if v, err := decimal.NewFromString(q.Get("minPrice")); err == nil {
		f.MinPrice = &v
	}
	if v, err := decimal.NewFromString(q.Get("maxPrice")); err == nil {
		f.MaxPrice = &v
	}

	res, err := h.Products.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, res)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.Products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, p)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Products.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, cats)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var input product.Input
	if err := transport.Decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.Products.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input product.Input
	if err := transport.Decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.Products.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Products.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
