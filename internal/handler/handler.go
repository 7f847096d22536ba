// Package handler exposes the store API over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/herbal-kart/internal/domain/cart"
	"github.com/xenking/herbal-kart/internal/domain/catalog"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
	"github.com/xenking/herbal-kart/internal/domain/notification"
	"github.com/xenking/herbal-kart/internal/domain/order"
	"github.com/xenking/herbal-kart/internal/domain/user"
)

// StoreName is reported by the root endpoint.
const StoreName = "The Herbal Chicken"

// Services holds the domain services the handlers delegate to.
type Services struct {
	Carts         *cart.Manager
	Checkout      *order.Checkout
	Orders        *order.Tracker
	Catalog       *catalog.Service
	Coupons       *coupon.Service
	Users         *user.Service
	Notifications *notification.Notifier
}

// Handler serves the JSON API.
type Handler struct {
	carts         *cart.Manager
	checkout      *order.Checkout
	orders        *order.Tracker
	catalog       *catalog.Service
	coupons       *coupon.Service
	users         *user.Service
	notifications *notification.Notifier
}

// New constructs a Handler from s.
func New(s Services) *Handler {
	return &Handler{
		carts:         s.Carts,
		checkout:      s.Checkout,
		orders:        s.Orders,
		catalog:       s.Catalog,
		coupons:       s.Coupons,
		users:         s.Users,
		notifications: s.Notifications,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.root)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart/{user_id}", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Post("/add", h.addToCart)
			r.Post("/remove", h.removeFromCart)
			r.Post("/apply-coupon", h.applyCoupon)
		})
		r.Post("/checkout/{user_id}", h.placeOrder)
		r.Get("/orders/{user_id}", h.listOrders)
		r.Get("/track/{tracking_code}", h.trackOrder)

		r.Get("/categories", h.listCategories)
		r.Get("/products", h.listProducts)
		r.Get("/banners", h.listBanners)
		r.Get("/offers", h.listOffers)
		r.Get("/areas", h.listAreas)

		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/category", h.createCategory)
			r.Post("/product", h.createProduct)
			r.Post("/banner", h.createBanner)
			r.Post("/offer", h.createOffer)
			r.Post("/coupon", h.createCoupon)
		})

		r.Get("/notifications/{user_id}", h.listNotifications)
	})
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("name", func(e *jx.Encoder) { e.Str(StoreName) })
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
		})
	})
}
