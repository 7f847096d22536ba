package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeBody(w, r, req.decode); err != nil {
		fail(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		fail(w, r, err)
		return
	}

	res, err := h.checkout.PlaceOrder(r.Context(), chi.URLParam(r, "user_id"), req.CheckoutRequest)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("order_id", func(e *jx.Encoder) { e.Str(res.OrderID) })
			e.Field("tracking_code", func(e *jx.Encoder) { e.Str(res.TrackingCode) })
			e.Field("payment", func(e *jx.Encoder) { encodePayment(e, res.Payment) })
		})
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeList(w, orders, encodeOrder)
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Track(r.Context(), chi.URLParam(r, "tracking_code"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// listNotifications lives next to orders: placed orders are the only source
// of notifications.
func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifications.List(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeList(w, list, encodeNotification)
}
