package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/herbal-kart/internal/domain/catalog"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
)

const (
	// maxSaveAttempts bounds the read-modify-write loop on version conflicts.
	maxSaveAttempts = 3
	// sharedReadTimeout bounds a cart read shared by concurrent callers.
	sharedReadTimeout = 5 * time.Second
)

// Manager owns cart mutations. Every mutation is a read-modify-write of the
// whole cart guarded by the stored version.
type Manager struct {
	carts    Repository
	products catalog.ProductFinder
	coupons  coupon.Finder
	cache    Cache

	reads singleflight.Group
}

// NewManager creates a Manager. Pass NopCache when no cache is configured.
func NewManager(
	carts Repository,
	products catalog.ProductFinder,
	coupons coupon.Finder,
	cache Cache,
) *Manager {
	return &Manager{
		carts:    carts,
		products: products,
		coupons:  coupons,
		cache:    cache,
	}
}

// GetOrCreate returns the user's cart, creating an empty one when absent.
// When two requests race to create it, the loser re-reads the winner's cart.
func (m *Manager) GetOrCreate(ctx context.Context, userID string) (*Cart, error) {
	c, err := m.carts.Get(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "get cart")
	}

	c = New(userID)
	if err := m.carts.Create(ctx, c); err != nil {
		if !errors.Is(err, ErrAlreadyExists) {
			return nil, errors.Wrap(err, "create cart")
		}
		c, err = m.carts.Get(ctx, userID)
		if err != nil {
			return nil, errors.Wrap(err, "get cart after create race")
		}
	}
	return c, nil
}

// Find returns the user's cart without creating it.
func (m *Manager) Find(ctx context.Context, userID string) (*Cart, error) {
	return m.carts.Get(ctx, userID)
}

// Get serves the cart read path: cache first, then GetOrCreate. Concurrent
// misses for the same user share one store read, which runs detached from
// any single caller's cancellation.
func (m *Manager) Get(ctx context.Context, userID string) (*Cart, error) {
	ch := m.reads.DoChan(userID, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		return m.readThrough(ctx, userID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Cart), nil
	}
}

func (m *Manager) readThrough(ctx context.Context, userID string) (*Cart, error) {
	lg := zctx.From(ctx)

	c, err := m.cache.Get(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		lg.Warn("Cart cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	c, err = m.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	// A mutation that saved a newer version meanwhile wins: Set never
	// replaces a higher version.
	if err := m.cache.Set(ctx, c); err != nil {
		lg.Warn("Cart cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return c, nil
}

// AddItem sets productID to quantity in the user's cart. An existing line has
// its quantity replaced; otherwise a snapshot of the product is appended.
func (m *Manager) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return &InvalidQuantityError{ProductID: productID, Quantity: quantity}
	}
	p, err := m.products.GetProduct(ctx, productID)
	if err != nil {
		return errors.Wrapf(err, "get product %s", productID)
	}

	item := Item{
		ProductID: productID,
		Title:     p.Title,
		Price:     p.Price,
		Quantity:  quantity,
		ImageURL:  p.ImageURL,
	}
	return m.mutate(ctx, userID, true, func(c *Cart) bool {
		c.SetItem(item)
		return true
	})
}

// RemoveItem drops productID from the user's cart. It is a no-op when the
// user has no cart or the product is not in it.
func (m *Manager) RemoveItem(ctx context.Context, userID, productID string) error {
	return m.mutate(ctx, userID, false, func(c *Cart) bool {
		return c.RemoveItem(productID)
	})
}

// ApplyCoupon records code on the user's cart when it names an active coupon.
// The coupon's minimum amount is not checked.
func (m *Manager) ApplyCoupon(ctx context.Context, userID, code string) error {
	if _, err := m.coupons.FindActive(ctx, code); err != nil {
		return errors.Wrapf(err, "find coupon %q", code)
	}
	return m.mutate(ctx, userID, true, func(c *Cart) bool {
		c.CouponCode = code
		return true
	})
}

// Clear empties the user's cart and drops its coupon.
func (m *Manager) Clear(ctx context.Context, userID string) error {
	return m.mutate(ctx, userID, false, func(c *Cart) bool {
		if c.IsEmpty() && c.CouponCode == "" {
			return false
		}
		c.Reset()
		return true
	})
}

// mutate applies fn to a fresh copy of the cart and saves it, retrying on
// version conflicts. fn reports whether it changed anything. Without
// create, a missing cart makes mutate a no-op.
func (m *Manager) mutate(ctx context.Context, userID string, create bool, fn func(c *Cart) bool) error {
	lg := zctx.From(ctx).With(zap.String("user_id", userID))

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		var (
			c   *Cart
			err error
		)
		if create {
			c, err = m.GetOrCreate(ctx, userID)
		} else {
			c, err = m.carts.Get(ctx, userID)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
		}
		if err != nil {
			return err
		}

		if !fn(c) {
			return nil
		}

		err = m.carts.Save(ctx, c)
		if err == nil {
			m.refresh(ctx, c)
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return errors.Wrap(err, "save cart")
		}
		lg.Debug("Cart version conflict", zap.Int("attempt", attempt))
	}

	lg.Warn("Cart update gave up after version conflicts", zap.Int("attempts", maxSaveAttempts))
	return ErrConcurrentUpdate
}

// refresh writes a saved cart through to the cache. When that fails the
// entry is dropped so readers fall back to the store.
func (m *Manager) refresh(ctx context.Context, c *Cart) {
	lg := zctx.From(ctx).With(zap.String("user_id", c.UserID))
	err := m.cache.Set(ctx, c)
	if err == nil {
		return
	}
	lg.Warn("Cart cache write failed", zap.Error(err))
	if err := m.cache.Delete(ctx, c.UserID); err != nil {
		lg.Warn("Cart cache invalidation failed", zap.Error(err))
	}
}
