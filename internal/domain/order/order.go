// Package order implements checkout and order tracking.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/herbal-kart/internal/domain/cart"
)

var (
	// ErrNotFound is returned when no order matches a lookup.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyCart is returned by checkout when the cart is absent or empty.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrTrackingCodeTaken is returned by a Repository when the order's
	// tracking code already belongs to another order.
	ErrTrackingCodeTaken = errors.New("tracking code already in use")
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPlaced         Status = "placed"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlaced, StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Address is the delivery address captured at checkout.
type Address struct {
	Label   string
	Line1   string
	Line2   string
	City    string
	State   string
	Pincode string
	// Coordinates is (lat, lng) when known.
	Coordinates *[2]float64
}

// Validate checks the required address fields.
func (a Address) Validate() error {
	switch {
	case a.Line1 == "":
		return errors.New("address.line1: required")
	case a.City == "":
		return errors.New("address.city: required")
	case a.State == "":
		return errors.New("address.state: required")
	case a.Pincode == "":
		return errors.New("address.pincode: required")
	}
	return nil
}

// Order is an immutable record of a checkout.
type Order struct {
	ID             string
	UserID         string
	Items          []cart.Item
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	Address        Address
	AreaPincode    string
	Payment        Payment
	Status         Status
	TrackingCode   string
	CreatedAt      time.Time
}

// Validate checks an order read back from storage.
func (o *Order) Validate() error {
	switch {
	case o.UserID == "":
		return errors.New("user_id: required")
	case len(o.Items) == 0:
		return errors.New("items: empty")
	case o.TotalAmount.IsNegative(), o.DiscountAmount.IsNegative(), o.FinalAmount.IsNegative():
		return errors.New("amounts: negative")
	case !o.Status.Valid():
		return errors.Errorf("status: unknown status %q", o.Status)
	case !o.Payment.Method.Valid():
		return errors.Errorf("payment.method: unknown method %q", o.Payment.Method)
	}
	for i, it := range o.Items {
		if it.ProductID == "" || it.Quantity < 1 || it.Price.IsNegative() {
			return errors.Errorf("items[%d]: invalid line %q x%d", i, it.ProductID, it.Quantity)
		}
	}
	return nil
}

// Repository persists orders.
type Repository interface {
	// Create stores o and returns its ID. ErrTrackingCodeTaken when the
	// tracking code collides.
	Create(ctx context.Context, o *Order) (string, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// FindByTrackingCode returns ErrNotFound when no order has code.
	FindByTrackingCode(ctx context.Context, code string) (*Order, error)
}
