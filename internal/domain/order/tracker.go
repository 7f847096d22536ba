package order

import (
	"context"

	"github.com/go-faster/errors"
)

// Tracker answers order history and tracking queries.
type Tracker struct {
	orders Repository
}

// NewTracker returns a Tracker backed by orders.
func NewTracker(orders Repository) *Tracker {
	return &Tracker{orders: orders}
}

// ListOrders returns the user's orders, newest first.
func (t *Tracker) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	orders, err := t.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Track returns the order with exactly code, or ErrNotFound.
func (t *Tracker) Track(ctx context.Context, code string) (*Order, error) {
	return t.orders.FindByTrackingCode(ctx, code)
}
