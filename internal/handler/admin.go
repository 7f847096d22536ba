package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/herbal-kart/internal/domain/catalog"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
)

// create decodes an entity into v, stores it and responds with its id.
// v carries the defaults for fields the body omits.
func create[T any](
	w http.ResponseWriter,
	r *http.Request,
	v *T,
	decode func(d *jx.Decoder, key string, v *T) error,
	store func(ctx context.Context, v *T) (string, error),
) {
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		return decode(d, key, v)
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := store(r.Context(), v)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeID(w, "id", id)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	create(w, r, &catalog.Category{Active: true}, decodeCategory, h.catalog.CreateCategory)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	p := &catalog.Product{InStock: true, Tags: []string{}}
	create(w, r, p, decodeProduct, h.catalog.CreateProduct)
}

func (h *Handler) createBanner(w http.ResponseWriter, r *http.Request) {
	create(w, r, &catalog.Banner{Active: true}, decodeBanner, h.catalog.CreateBanner)
}

func (h *Handler) createOffer(w http.ResponseWriter, r *http.Request) {
	create(w, r, &catalog.Offer{Active: true}, decodeOffer, h.catalog.CreateOffer)
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	create(w, r, &coupon.Coupon{Active: true}, decodeCoupon, h.coupons.Create)
}
