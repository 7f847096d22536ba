package handler

import (
	"net/http"

	"github.com/xenking/herbal-kart/internal/domain/catalog"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeList(w, list, encodeCategory)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	category := catalog.CategoryName(query.Get("category"))
	if category != "" && !category.Valid() {
		fail(w, r, invalid("category: unknown category %q", category))
		return
	}

	list, err := h.catalog.ListProducts(r.Context(), category, query.Get("q"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeList(w, list, encodeProduct)
}

func (h *Handler) listBanners(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListBanners(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeList(w, list, encodeBanner)
}

func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListOffers(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeList(w, list, encodeOffer)
}

func (h *Handler) listAreas(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListAreas(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeList(w, list, encodeArea)
}
