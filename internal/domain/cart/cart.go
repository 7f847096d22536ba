// Package cart implements the per-user server-side shopping cart.
package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned by a Repository when the user has no cart.
	ErrNotFound = errors.New("cart not found")
	// ErrAlreadyExists is returned by Repository.Create when another request
	// created the user's cart first.
	ErrAlreadyExists = errors.New("cart already exists")
	// ErrVersionConflict is returned by Repository.Save when the stored cart
	// changed since it was read.
	ErrVersionConflict = errors.New("cart version conflict")
	// ErrConcurrentUpdate is returned by the Manager when a mutation kept
	// losing version conflicts.
	ErrConcurrentUpdate = errors.New("cart was modified concurrently, retry the request")
	// ErrCacheMiss is returned by a Cache when the entry is absent.
	ErrCacheMiss = errors.New("cart cache miss")
)

// InvalidQuantityError indicates a line item with a quantity below one.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for product %s, got %d", e.ProductID, e.Quantity)
}

// Item is a product snapshot taken when it was added to the cart.
type Item struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// Total returns price × quantity.
func (i Item) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the single cart of a user.
type Cart struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Items       []Item `json:"items"`
	AreaPincode string `json:"area_pincode,omitempty"`
	CouponCode  string `json:"coupon_code,omitempty"`
	// Version increases with every successful save.
	Version int64 `json:"version"`
}

// New returns an empty cart for userID.
func New(userID string) *Cart {
	return &Cart{UserID: userID, Items: []Item{}}
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal returns Σ price × quantity over the snapshot prices.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.Total())
	}
	return sum
}

// SetItem replaces the quantity of an existing line for the same product, or
// appends item. The snapshot of an existing line is kept.
func (c *Cart) SetItem(item Item) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity = item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// RemoveItem drops every line for productID and reports whether any was
// removed.
func (c *Cart) RemoveItem(productID string) bool {
	kept := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	removed := len(kept) != len(c.Items)
	c.Items = kept
	return removed
}

// Reset empties the cart and drops the coupon.
func (c *Cart) Reset() {
	c.Items = []Item{}
	c.CouponCode = ""
}

// Validate checks a cart read back from storage.
func (c *Cart) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id: required")
	}
	for i, it := range c.Items {
		switch {
		case it.ProductID == "":
			return errors.Errorf("items[%d].product_id: required", i)
		case it.Price.IsNegative():
			return errors.Errorf("items[%d].price: negative", i)
		case it.Quantity < 1:
			return errors.Errorf("items[%d].quantity: must be at least 1", i)
		}
	}
	return nil
}

// Repository persists carts.
type Repository interface {
	// Get returns ErrNotFound when the user has no cart.
	Get(ctx context.Context, userID string) (*Cart, error)
	// Create stores a new cart; ErrAlreadyExists when one exists for the user.
	Create(ctx context.Context, c *Cart) error
	// Save writes c if the stored version still equals c.Version, then
	// increments c.Version. ErrVersionConflict otherwise.
	Save(ctx context.Context, c *Cart) error
}

// Cache is a read-through cache for carts.
type Cache interface {
	// Get returns ErrCacheMiss when the entry is absent.
	Get(ctx context.Context, userID string) (*Cart, error)
	// Set stores c unless the entry already holds a higher version.
	Set(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, userID string) error
}

// NopCache is a Cache that never holds anything.
type NopCache struct{}

var _ Cache = NopCache{}

func (NopCache) Get(context.Context, string) (*Cart, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, *Cart) error           { return nil }
func (NopCache) Delete(context.Context, string) error       { return nil }
