package repository

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
)

type couponRecord struct {
	ID           string   `bson:"_id,omitempty"`
	Code         string   `bson:"code"`
	DiscountType string   `bson:"discount_type"`
	Value        float64  `bson:"value"`
	MinAmount    float64  `bson:"min_amount"`
	MaxDiscount  *float64 `bson:"max_discount"`
	Active       bool     `bson:"active"`
}

func newCouponRecord(c *coupon.Coupon) couponRecord {
	return couponRecord{
		ID:           c.ID,
		Code:         c.Code,
		DiscountType: string(c.DiscountType),
		Value:        toFloat(c.Value),
		MinAmount:    toFloat(c.MinAmount),
		MaxDiscount:  toNullFloat(c.MaxDiscount),
		Active:       c.Active,
	}
}

func (r *couponRecord) toDomain() (*coupon.Coupon, error) {
	c := &coupon.Coupon{
		ID:           r.ID,
		Code:         r.Code,
		DiscountType: coupon.DiscountType(r.DiscountType),
		Value:        fromFloat(r.Value),
		MinAmount:    fromFloat(r.MinAmount),
		MaxDiscount:  fromNullFloat(r.MaxDiscount),
		Active:       r.Active,
	}
	if err := c.Validate(); err != nil {
		return nil, malformed(Coupons, r.ID, err)
	}
	return c, nil
}

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository on a document store.
type CouponRepository struct {
	store docstore.Store
}

// NewCouponRepository returns a CouponRepository that uses the given store.
func NewCouponRepository(store docstore.Store) *CouponRepository {
	return &CouponRepository{store: store}
}

// FindActive returns the active coupon with exactly code (case-sensitive).
// Returns coupon.ErrNotFound when no matching active coupon exists.
func (r *CouponRepository) FindActive(ctx context.Context, code string) (*coupon.Coupon, error) {
	var rec couponRecord
	err := r.store.FindOne(ctx, Coupons, docstore.Filter{"code": code, "active": true}, &rec)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, coupon.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}
	return rec.toDomain()
}

// Create stores a new coupon.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) (string, error) {
	id, err := r.store.Create(ctx, Coupons, newCouponRecord(c))
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return "", coupon.ErrAlreadyExists
	}
	if err != nil {
		return "", errors.Wrapf(err, "create coupon %q", c.Code)
	}
	c.ID = id
	return id, nil
}

// Upsert replaces the fields of the coupon with c.Code, creating it when
// absent.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	rec := newCouponRecord(c)
	_, err := r.store.Update(ctx, Coupons,
		docstore.Filter{"code": rec.Code},
		docstore.Patch{
			"discount_type": rec.DiscountType,
			"value":         rec.Value,
			"min_amount":    rec.MinAmount,
			"max_discount":  rec.MaxDiscount,
			"active":        rec.Active,
		},
		true,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert coupon %q", c.Code)
	}
	return nil
}
