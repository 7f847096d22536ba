package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/herbal-kart/internal/domain/cart"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
)

const (
	instrumentationName = "github.com/xenking/herbal-kart/internal/domain/order"

	// maxTrackingAttempts bounds tracking code regeneration on collisions.
	maxTrackingAttempts = 5
)

// State is a checkout pipeline stage, used for logging.
type State int

const (
	StateCartActive State = iota
	StateValidated
	StatePriced
	StateOrderCreated
	StateCartCleared
	StateNotified
)

func (s State) String() string {
	switch s {
	case StateCartActive:
		return "CART_ACTIVE"
	case StateValidated:
		return "VALIDATED"
	case StatePriced:
		return "PRICED"
	case StateOrderCreated:
		return "ORDER_CREATED"
	case StateCartCleared:
		return "CART_CLEARED"
	case StateNotified:
		return "NOTIFIED"
	default:
		return "UNKNOWN"
	}
}

// Carts is the cart access checkout needs.
type Carts interface {
	// Find returns cart.ErrNotFound when the user has no cart.
	Find(ctx context.Context, userID string) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// Notifier is told about placed orders.
type Notifier interface {
	OrderPlaced(ctx context.Context, userID, orderID string) error
}

// CheckoutRequest holds the checkout input.
type CheckoutRequest struct {
	Address       Address
	AreaPincode   string
	PaymentMethod string
}

// CheckoutResult holds the output of a successful checkout.
type CheckoutResult struct {
	OrderID      string
	TrackingCode string
	Payment      Payment
}

// Checkout turns a user's cart into an order.
type Checkout struct {
	carts    Carts
	coupons  coupon.Finder
	orders   Repository
	notifier Notifier

	newCode func() (string, error)
	now     func() time.Time

	tracer trace.Tracer
	placed metric.Int64Counter
}

// NewCheckout creates a Checkout with the required dependencies.
func NewCheckout(
	carts Carts,
	coupons coupon.Finder,
	orders Repository,
	notifier Notifier,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Checkout, error) {
	placed, err := mp.Meter(instrumentationName).Int64Counter("orders.placed",
		metric.WithDescription("Number of orders placed"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.placed counter")
	}

	return &Checkout{
		carts:    carts,
		coupons:  coupons,
		orders:   orders,
		notifier: notifier,
		newCode:  NewTrackingCode,
		now:      time.Now,
		tracer:   tp.Tracer(instrumentationName),
		placed:   placed,
	}, nil
}

// PlaceOrder validates the cart, prices it, stores the order, clears the cart
// and notifies the user. Only a missing/empty cart or a failure to store the
// order fail the call; later steps are logged and skipped.
func (s *Checkout) PlaceOrder(ctx context.Context, userID string, req CheckoutRequest) (_ *CheckoutResult, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	lg := zctx.From(ctx).With(zap.String("user_id", userID))
	state := func(s State) {
		lg.Debug("Checkout state", zap.Stringer("state", s))
	}
	state(StateCartActive)

	c, err := s.carts.Find(ctx, userID)
	switch {
	case errors.Is(err, cart.ErrNotFound):
		return nil, ErrEmptyCart
	case err != nil:
		return nil, errors.Wrap(err, "load cart")
	case c.IsEmpty():
		return nil, ErrEmptyCart
	}
	state(StateValidated)

	subtotal := c.Subtotal()
	discount := s.discount(ctx, lg, c.CouponCode, subtotal)
	final := subtotal.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	state(StatePriced)

	o := &Order{
		UserID:         userID,
		Items:          c.Items,
		TotalAmount:    subtotal.Round(2),
		DiscountAmount: discount.Round(2),
		FinalAmount:    final.Round(2),
		Address:        req.Address,
		AreaPincode:    req.AreaPincode,
		Payment:        NewPayment(req.PaymentMethod),
		Status:         StatusPlaced,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.create(ctx, lg, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	lg = lg.With(zap.String("order_id", o.ID))
	span.SetAttributes(attribute.String("order.id", o.ID))
	state(StateOrderCreated)

	if err := s.carts.Clear(ctx, userID); err != nil {
		lg.Error("Failed to clear cart after checkout", zap.Error(err))
	} else {
		state(StateCartCleared)
	}

	if err := s.notifier.OrderPlaced(ctx, userID, o.ID); err != nil {
		lg.Warn("Failed to notify about placed order", zap.Error(err))
	} else {
		state(StateNotified)
	}

	s.placed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment.method", string(o.Payment.Method)),
	))
	lg.Info("Order placed",
		zap.String("tracking_code", o.TrackingCode),
		zap.Stringer("final_amount", o.FinalAmount),
	)

	return &CheckoutResult{
		OrderID:      o.ID,
		TrackingCode: o.TrackingCode,
		Payment:      o.Payment,
	}, nil
}

// discount re-fetches the cart's coupon and evaluates it. Any lookup problem
// yields no discount.
func (s *Checkout) discount(ctx context.Context, lg *zap.Logger, code string, subtotal decimal.Decimal) decimal.Decimal {
	if code == "" {
		return decimal.Zero
	}
	cp, err := s.coupons.FindActive(ctx, code)
	if err != nil {
		lg.Warn("Ignoring coupon at checkout", zap.String("coupon_code", code), zap.Error(err))
		return decimal.Zero
	}
	return coupon.Evaluate(subtotal, cp)
}

// create stores o under a fresh tracking code, regenerating the code when it
// collides with an existing order.
func (s *Checkout) create(ctx context.Context, lg *zap.Logger, o *Order) error {
	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return errors.Wrap(err, "generate tracking code")
		}
		o.TrackingCode = code

		id, err := s.orders.Create(ctx, o)
		if err == nil {
			o.ID = id
			return nil
		}
		if !errors.Is(err, ErrTrackingCodeTaken) || attempt >= maxTrackingAttempts {
			return err
		}
		lg.Warn("Tracking code collision", zap.String("tracking_code", code), zap.Int("attempt", attempt))
	}
}
