package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/domain/cart"
)

type itemRecord struct {
	ProductID string  `bson:"product_id"`
	Title     string  `bson:"title"`
	Price     float64 `bson:"price"`
	Quantity  int     `bson:"quantity"`
	ImageURL  *string `bson:"image_url"`
}

func newItemRecords(items []cart.Item) []itemRecord {
	out := make([]itemRecord, 0, len(items))
	for _, it := range items {
		out = append(out, itemRecord{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     toFloat(it.Price),
			Quantity:  it.Quantity,
			ImageURL:  optional(it.ImageURL),
		})
	}
	return out
}

func toItems(records []itemRecord) []cart.Item {
	items := make([]cart.Item, 0, len(records))
	for _, r := range records {
		items = append(items, cart.Item{
			ProductID: r.ProductID,
			Title:     r.Title,
			Price:     fromFloat(r.Price),
			Quantity:  r.Quantity,
			ImageURL:  deref(r.ImageURL),
		})
	}
	return items
}

type cartRecord struct {
	ID          string       `bson:"_id,omitempty"`
	UserID      string       `bson:"user_id"`
	Items       []itemRecord `bson:"items"`
	AreaPincode *string      `bson:"area_pincode"`
	CouponCode  *string      `bson:"coupon_code"`
	Version     int64        `bson:"version"`
	CreatedAt   time.Time    `bson:"created_at"`
	UpdatedAt   time.Time    `bson:"updated_at"`
}

func (r *cartRecord) toDomain() (*cart.Cart, error) {
	c := &cart.Cart{
		ID:          r.ID,
		UserID:      r.UserID,
		Items:       toItems(r.Items),
		AreaPincode: deref(r.AreaPincode),
		CouponCode:  deref(r.CouponCode),
		Version:     r.Version,
	}
	if err := c.Validate(); err != nil {
		return nil, malformed(Carts, r.ID, err)
	}
	return c, nil
}

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository on a document store.
type CartRepository struct {
	store docstore.Store
	now   func() time.Time
}

// NewCartRepository returns a CartRepository that uses the given store.
func NewCartRepository(store docstore.Store) *CartRepository {
	return &CartRepository{store: store, now: time.Now}
}

// Get returns the cart of userID.
func (r *CartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var rec cartRecord
	err := r.store.FindOne(ctx, Carts, docstore.Filter{"user_id": userID}, &rec)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get cart of %s", userID)
	}
	return rec.toDomain()
}

// Create stores a new cart. The unique user_id index turns a concurrent
// create into cart.ErrAlreadyExists.
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	now := r.now().UTC()
	id, err := r.store.Create(ctx, Carts, cartRecord{
		ID:          c.ID,
		UserID:      c.UserID,
		Items:       newItemRecords(c.Items),
		AreaPincode: optional(c.AreaPincode),
		CouponCode:  optional(c.CouponCode),
		Version:     c.Version,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return cart.ErrAlreadyExists
	}
	if err != nil {
		return errors.Wrapf(err, "create cart of %s", c.UserID)
	}
	c.ID = id
	return nil
}

// Save writes the cart back if its stored version still equals c.Version and
// bumps the version. cart.ErrVersionConflict otherwise.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	res, err := r.store.Update(ctx, Carts,
		docstore.Filter{"user_id": c.UserID, "version": c.Version},
		docstore.Patch{
			"items":        newItemRecords(c.Items),
			"area_pincode": optional(c.AreaPincode),
			"coupon_code":  optional(c.CouponCode),
			"version":      c.Version + 1,
			"updated_at":   r.now().UTC(),
		},
		false,
	)
	if err != nil {
		return errors.Wrapf(err, "save cart of %s", c.UserID)
	}
	if res.Matched == 0 {
		return cart.ErrVersionConflict
	}
	c.Version++
	return nil
}
