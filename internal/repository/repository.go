// Package repository maps domain types onto docstore collections. Every
// collection has an explicit record type; records are validated when read
// back so that malformed persisted data surfaces as
// docstore.ErrMalformedDocument instead of leaking into the domain.
package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/herbal-kart/internal/docstore"
)

// Collection names.
const (
	Carts         = "cart"
	Coupons       = "coupon"
	Products      = "product"
	Categories    = "category"
	Banners       = "banner"
	Offers        = "offer"
	DeliveryAreas = "deliveryarea"
	Orders        = "order"
	Notifications = "notification"
	Users         = "user"
)

type index struct {
	collection string
	field      string
	unique     bool
}

var indexes = []index{
	{Carts, "user_id", true},
	{Coupons, "code", true},
	{Orders, "tracking_code", true},
	{Orders, "user_id", false},
	{Products, "category", false},
	{Categories, "slug", true},
	{DeliveryAreas, "pincode", true},
	{Notifications, "user_id", false},
	{Users, "email", true},
	{Users, "mobile", true},
}

// EnsureIndexes creates the indexes the repositories rely on. The unique ones
// back the one-cart-per-user, coupon code and tracking code guarantees.
func EnsureIndexes(ctx context.Context, store docstore.Store) error {
	for _, idx := range indexes {
		if err := store.EnsureIndex(ctx, idx.collection, idx.field, idx.unique); err != nil {
			return errors.Wrapf(err, "ensure index %s.%s", idx.collection, idx.field)
		}
	}
	return nil
}

func malformed(collection, id string, err error) error {
	return &docstore.MalformedDocumentError{Collection: collection, ID: id, Err: err}
}

// Money is persisted as float64.
func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func fromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func toNullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

func fromNullFloat(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*f))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
