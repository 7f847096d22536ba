package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/herbal-kart/internal/domain/cart"
	"github.com/xenking/herbal-kart/internal/domain/catalog"
	"github.com/xenking/herbal-kart/internal/domain/notification"
	"github.com/xenking/herbal-kart/internal/domain/order"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("ok", func(e *jx.Encoder) { e.Bool(true) })
		})
	})
}

func writeID(w http.ResponseWriter, key, id string) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field(key, func(e *jx.Encoder) { e.Str(id) })
		})
	})
}

// writeList encodes items as a JSON array; an empty slice encodes as [].
func writeList[T any](w http.ResponseWriter, items []T, encode func(e *jx.Encoder, v *T)) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range items {
				encode(e, &items[i])
			}
		})
	})
}

func money(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

func nullStr(e *jx.Encoder, v string) {
	if v == "" {
		e.Null()
		return
	}
	e.Str(v)
}

func timestamp(e *jx.Encoder, t time.Time) {
	if t.IsZero() {
		e.Null()
		return
	}
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeItem(e *jx.Encoder, it *cart.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(it.Title) })
		e.Field("price", func(e *jx.Encoder) { money(e, it.Price) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("image_url", func(e *jx.Encoder) { nullStr(e, it.ImageURL) })
	})
}

func encodeItems(e *jx.Encoder, items []cart.Item) {
	e.Arr(func(e *jx.Encoder) {
		for i := range items {
			encodeItem(e, &items[i])
		}
	})
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("_id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("user_id", func(e *jx.Encoder) { e.Str(c.UserID) })
		e.Field("items", func(e *jx.Encoder) { encodeItems(e, c.Items) })
		e.Field("area_pincode", func(e *jx.Encoder) { nullStr(e, c.AreaPincode) })
		e.Field("coupon_code", func(e *jx.Encoder) { nullStr(e, c.CouponCode) })
		e.Field("subtotal", func(e *jx.Encoder) { money(e, c.Subtotal()) })
		e.Field("version", func(e *jx.Encoder) { e.Int64(c.Version) })
	})
}

func encodePayment(e *jx.Encoder, p order.Payment) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("method", func(e *jx.Encoder) { e.Str(string(p.Method)) })
		e.Field("provider", func(e *jx.Encoder) { nullStr(e, p.Provider) })
		e.Field("transaction_id", func(e *jx.Encoder) { nullStr(e, p.TransactionID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(p.Status)) })
	})
}

func encodeAddress(e *jx.Encoder, a order.Address) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("label", func(e *jx.Encoder) { nullStr(e, a.Label) })
		e.Field("line1", func(e *jx.Encoder) { e.Str(a.Line1) })
		e.Field("line2", func(e *jx.Encoder) { nullStr(e, a.Line2) })
		e.Field("city", func(e *jx.Encoder) { e.Str(a.City) })
		e.Field("state", func(e *jx.Encoder) { e.Str(a.State) })
		e.Field("pincode", func(e *jx.Encoder) { e.Str(a.Pincode) })
		e.Field("coordinates", func(e *jx.Encoder) {
			if a.Coordinates == nil {
				e.Null()
				return
			}
			e.Arr(func(e *jx.Encoder) {
				e.Float64(a.Coordinates[0])
				e.Float64(a.Coordinates[1])
			})
		})
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("_id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("user_id", func(e *jx.Encoder) { e.Str(o.UserID) })
		e.Field("items", func(e *jx.Encoder) { encodeItems(e, o.Items) })
		e.Field("total_amount", func(e *jx.Encoder) { money(e, o.TotalAmount) })
		e.Field("discount_amount", func(e *jx.Encoder) { money(e, o.DiscountAmount) })
		e.Field("final_amount", func(e *jx.Encoder) { money(e, o.FinalAmount) })
		e.Field("address", func(e *jx.Encoder) { encodeAddress(e, o.Address) })
		e.Field("area_pincode", func(e *jx.Encoder) { e.Str(o.AreaPincode) })
		e.Field("payment", func(e *jx.Encoder) { encodePayment(e, o.Payment) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("tracking_code", func(e *jx.Encoder) { e.Str(o.TrackingCode) })
		e.Field("created_at", func(e *jx.Encoder) { timestamp(e, o.CreatedAt) })
	})
}

func encodeCategory(e *jx.Encoder, c *catalog.Category) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("_id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(string(c.Name)) })
		e.Field("slug", func(e *jx.Encoder) { e.Str(c.Slug) })
		e.Field("description", func(e *jx.Encoder) { nullStr(e, c.Description) })
		e.Field("image_url", func(e *jx.Encoder) { nullStr(e, c.ImageURL) })
		e.Field("active", func(e *jx.Encoder) { e.Bool(c.Active) })
	})
}

func encodeProduct(e *jx.Encoder, p *catalog.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("_id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
		e.Field("sku", func(e *jx.Encoder) { nullStr(e, p.SKU) })
		e.Field("description", func(e *jx.Encoder) { nullStr(e, p.Description) })
		e.Field("price", func(e *jx.Encoder) { money(e, p.Price) })
		e.Field("mrp", func(e *jx.Encoder) {
			if !p.MRP.Valid {
				e.Null()
				return
			}
			money(e, p.MRP.Decimal)
		})
		e.Field("unit", func(e *jx.Encoder) { e.Str(string(p.Unit)) })
		e.Field("weight", func(e *jx.Encoder) {
			if p.Weight == nil {
				e.Null()
				return
			}
			e.Float64(*p.Weight)
		})
		e.Field("category", func(e *jx.Encoder) { e.Str(string(p.Category)) })
		e.Field("image_url", func(e *jx.Encoder) { e.Str(p.ImageURL) })
		e.Field("in_stock", func(e *jx.Encoder) { e.Bool(p.InStock) })
		e.Field("tags", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, t := range p.Tags {
					e.Str(t)
				}
			})
		})
	})
}

func encodeBanner(e *jx.Encoder, b *catalog.Banner) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("_id", func(e *jx.Encoder) { e.Str(b.ID) })
		e.Field("title", func(e *jx.Encoder) { nullStr(e, b.Title) })
		e.Field("subtitle", func(e *jx.Encoder) { nullStr(e, b.Subtitle) })
		e.Field("image_url", func(e *jx.Encoder) { e.Str(b.ImageURL) })
		e.Field("aspect_ratio", func(e *jx.Encoder) { e.Str(b.AspectRatio) })
		e.Field("active", func(e *jx.Encoder) { e.Bool(b.Active) })
	})
}

func encodeOffer(e *jx.Encoder, o *catalog.Offer) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("_id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(o.Title) })
		e.Field("description", func(e *jx.Encoder) { nullStr(e, o.Description) })
		e.Field("image_url", func(e *jx.Encoder) { nullStr(e, o.ImageURL) })
		e.Field("active", func(e *jx.Encoder) { e.Bool(o.Active) })
	})
}

func encodeArea(e *jx.Encoder, a *catalog.DeliveryArea) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("_id", func(e *jx.Encoder) { e.Str(a.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(a.Name) })
		e.Field("pincode", func(e *jx.Encoder) { e.Str(a.Pincode) })
		e.Field("city", func(e *jx.Encoder) { nullStr(e, a.City) })
		e.Field("active", func(e *jx.Encoder) { e.Bool(a.Active) })
	})
}

func encodeNotification(e *jx.Encoder, n *notification.Notification) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("_id", func(e *jx.Encoder) { e.Str(n.ID) })
		e.Field("user_id", func(e *jx.Encoder) { e.Str(n.UserID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(n.Title) })
		e.Field("message", func(e *jx.Encoder) { e.Str(n.Message) })
		e.Field("type", func(e *jx.Encoder) { e.Str(string(n.Type)) })
		e.Field("read", func(e *jx.Encoder) { e.Bool(n.Read) })
		e.Field("created_at", func(e *jx.Encoder) { timestamp(e, n.CreatedAt) })
	})
}
