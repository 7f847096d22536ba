// Package coupon models discount coupons and computes their discount.
package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercent takes a percentage of the subtotal.
	DiscountPercent DiscountType = "percent"
	// DiscountFlat takes a fixed amount off the subtotal.
	DiscountFlat DiscountType = "flat"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercent || t == DiscountFlat
}

var (
	// ErrNotFound is returned when no active coupon matches a code.
	ErrNotFound = errors.New("invalid coupon")
	// ErrAlreadyExists is returned when a coupon code is already taken.
	ErrAlreadyExists = errors.New("coupon already exists")
)

// Coupon is a discount rule addressed by its code.
type Coupon struct {
	ID           string
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	// MinAmount is stored and returned but not enforced at checkout.
	MinAmount   decimal.Decimal
	MaxDiscount decimal.NullDecimal
	Active      bool
}

// Validate checks the coupon fields.
func (c *Coupon) Validate() error {
	switch {
	case c.Code == "":
		return errors.New("code: required")
	case !c.DiscountType.Valid():
		return errors.Errorf("discount_type: unknown type %q", c.DiscountType)
	case c.Value.IsNegative():
		return errors.New("value: must be greater than or equal to 0")
	}
	return nil
}

// InvalidError reports a coupon rejected by validation.
type InvalidError struct {
	Code string
	Err  error
}

func (e *InvalidError) Error() string {
	return "invalid coupon " + e.Code + ": " + e.Err.Error()
}

func (e *InvalidError) Unwrap() error { return e.Err }

// Finder looks up active coupons.
type Finder interface {
	// FindActive returns ErrNotFound unless an active coupon has exactly code.
	FindActive(ctx context.Context, code string) (*Coupon, error)
}

// Repository provides coupon lookup and mutation.
type Repository interface {
	Finder
	// Create stores a new coupon; ErrAlreadyExists when the code is taken.
	Create(ctx context.Context, c *Coupon) (string, error)
	// Upsert creates or replaces the coupon with the same code.
	Upsert(ctx context.Context, c *Coupon) error
}
