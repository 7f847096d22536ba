package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, c) })
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeBody(w, r, req.decode); err != nil {
		fail(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.carts.AddItem(r.Context(), chi.URLParam(r, "user_id"), req.ProductID, req.Quantity); err != nil {
		fail(w, r, err)
		return
	}
	writeOK(w)
}

// removeFromCart accepts the same body as add; the quantity is required but
// ignored.
func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeBody(w, r, req.decode); err != nil {
		fail(w, r, err)
		return
	}
	if err := req.validatePresence(); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.carts.RemoveItem(r.Context(), chi.URLParam(r, "user_id"), req.ProductID); err != nil {
		fail(w, r, err)
		return
	}
	writeOK(w)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := decodeBody(w, r, req.decode); err != nil {
		fail(w, r, err)
		return
	}
	if req.Code == "" {
		fail(w, r, invalid("code: required"))
		return
	}
	if err := h.carts.ApplyCoupon(r.Context(), chi.URLParam(r, "user_id"), req.Code); err != nil {
		fail(w, r, err)
		return
	}
	writeOK(w)
}
