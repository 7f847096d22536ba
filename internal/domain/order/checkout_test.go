package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/herbal-kart/internal/domain/cart"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
)

// --- Mock implementations ---

type mockCarts struct {
	cart     *cart.Cart
	findErr  error
	clearErr error
	cleared  bool
}

func (m *mockCarts) Find(_ context.Context, _ string) (*cart.Cart, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.cart == nil {
		return nil, cart.ErrNotFound
	}
	return m.cart, nil
}

func (m *mockCarts) Clear(_ context.Context, _ string) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = true
	m.cart.Reset()
	return nil
}

type mockCoupons struct {
	coupons map[string]*coupon.Coupon
	err     error
}

func (m *mockCoupons) FindActive(_ context.Context, code string) (*coupon.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.coupons[code]
	if !ok || !c.Active {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

type mockOrderRepo struct {
	created []Order
	taken   map[string]bool
	err     error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.taken[o.TrackingCode] {
		return "", ErrTrackingCodeTaken
	}
	m.created = append(m.created, *o)
	return "order-1", nil
}

func (m *mockOrderRepo) ListByUser(context.Context, string) ([]Order, error) { return m.created, nil }

func (m *mockOrderRepo) FindByTrackingCode(_ context.Context, code string) (*Order, error) {
	for i := range m.created {
		if m.created[i].TrackingCode == code {
			return &m.created[i], nil
		}
	}
	return nil, ErrNotFound
}

type mockNotifier struct {
	calls []string
	err   error
}

func (m *mockNotifier) OrderPlaced(_ context.Context, userID, orderID string) error {
	m.calls = append(m.calls, userID+"/"+orderID)
	return m.err
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

var testAddress = Address{
	Label:   "Home",
	Line1:   "12 MG Road",
	City:    "Bengaluru",
	State:   "KA",
	Pincode: "560001",
}

func newCart(couponCode string, items ...cart.Item) *cart.Cart {
	c := cart.New("u1")
	c.Items = items
	c.CouponCode = couponCode
	return c
}

func save10() *coupon.Coupon {
	return &coupon.Coupon{
		Code:         "SAVE10",
		DiscountType: coupon.DiscountPercent,
		Value:        d("10"),
		MaxDiscount:  decimal.NewNullDecimal(d("20")),
		Active:       true,
	}
}

type fixture struct {
	carts    *mockCarts
	coupons  *mockCoupons
	orders   *mockOrderRepo
	notifier *mockNotifier
	svc      *Checkout
}

func newFixture(t *testing.T, c *cart.Cart) *fixture {
	t.Helper()
	f := &fixture{
		carts:    &mockCarts{cart: c},
		coupons:  &mockCoupons{coupons: map[string]*coupon.Coupon{"SAVE10": save10()}},
		orders:   &mockOrderRepo{taken: map[string]bool{}},
		notifier: &mockNotifier{},
	}
	svc, err := NewCheckout(f.carts, f.coupons, f.orders, f.notifier,
		tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	f.svc = svc
	return f
}

func placeOrder(f *fixture, method string) (*CheckoutResult, error) {
	return f.svc.PlaceOrder(context.Background(), "u1", CheckoutRequest{
		Address:       testAddress,
		AreaPincode:   "560001",
		PaymentMethod: method,
	})
}

// --- Tests ---

func TestPlaceOrder_EmptyCart(t *testing.T) {
	tests := []struct {
		name string
		cart *cart.Cart
	}{
		{name: "no cart"},
		{name: "no items", cart: newCart("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.cart)

			_, err := placeOrder(f, "COD")
			require.ErrorIs(t, err, ErrEmptyCart)
			assert.Empty(t, f.orders.created)
			assert.Empty(t, f.notifier.calls)
		})
	}
}

func TestPlaceOrder_CartLoadError(t *testing.T) {
	f := newFixture(t, nil)
	f.carts.findErr = errors.New("store unavailable")

	_, err := placeOrder(f, "COD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.orders.created)
}

func TestPlaceOrder_Save10Scenario(t *testing.T) {
	f := newFixture(t, newCart("SAVE10",
		cart.Item{ProductID: "p1", Title: "Chicken Curry Cut", Price: d("100"), Quantity: 2},
		cart.Item{ProductID: "p2", Title: "Farm Eggs", Price: d("50"), Quantity: 1},
	))

	res, err := placeOrder(f, "cod")
	require.NoError(t, err)

	require.Len(t, f.orders.created, 1)
	o := f.orders.created[0]
	assert.True(t, d("250").Equal(o.TotalAmount), "total %s", o.TotalAmount)
	assert.True(t, d("20").Equal(o.DiscountAmount), "discount %s", o.DiscountAmount)
	assert.True(t, d("230").Equal(o.FinalAmount), "final %s", o.FinalAmount)
	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "560001", o.AreaPincode)
	assert.Equal(t, testAddress, o.Address)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), o.CreatedAt)

	assert.Equal(t, "order-1", res.OrderID)
	assert.Equal(t, o.TrackingCode, res.TrackingCode)
	assert.True(t, IsTrackingCode(res.TrackingCode))
	assert.Equal(t, Payment{Method: PaymentCOD, Status: PaymentPaid}, res.Payment)

	assert.True(t, f.carts.cleared)
	assert.Empty(t, f.carts.cart.Items)
	assert.Empty(t, f.carts.cart.CouponCode)
	assert.Equal(t, []string{"u1/order-1"}, f.notifier.calls)
}

func TestPlaceOrder_Rounding(t *testing.T) {
	f := newFixture(t, newCart("HALF",
		cart.Item{ProductID: "p1", Price: d("33.333"), Quantity: 3},
	))
	f.coupons.coupons["HALF"] = &coupon.Coupon{Code: "HALF", DiscountType: coupon.DiscountPercent, Value: d("50"), Active: true}

	_, err := placeOrder(f, "ONLINE")
	require.NoError(t, err)

	o := f.orders.created[0]
	assert.Equal(t, "100", o.TotalAmount.String())
	assert.Equal(t, "50", o.DiscountAmount.String())
	assert.Equal(t, "50", o.FinalAmount.String())
}

func TestPlaceOrder_CouponProblemsMeanNoDiscount(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		setup func(f *fixture)
	}{
		{name: "unknown coupon", code: "NOPE"},
		{name: "deactivated coupon", code: "SAVE10", setup: func(f *fixture) { f.coupons.coupons["SAVE10"].Active = false }},
		{name: "lookup failure", code: "SAVE10", setup: func(f *fixture) { f.coupons.err = errors.New("timeout") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, newCart(tt.code, cart.Item{ProductID: "p1", Price: d("100"), Quantity: 1}))
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := placeOrder(f, "COD")
			require.NoError(t, err)

			o := f.orders.created[0]
			assert.True(t, o.DiscountAmount.IsZero())
			assert.True(t, d("100").Equal(o.FinalAmount))
		})
	}
}

func TestPlaceOrder_OnlinePayment(t *testing.T) {
	for _, method := range []string{"ONLINE", "online", "upi", ""} {
		t.Run(method, func(t *testing.T) {
			f := newFixture(t, newCart("", cart.Item{ProductID: "p1", Price: d("10"), Quantity: 1}))

			res, err := placeOrder(f, method)
			require.NoError(t, err)
			assert.Equal(t, Payment{Method: PaymentOnline, Provider: ProviderRazorpay, Status: PaymentPending}, res.Payment)
		})
	}
}

func TestPlaceOrder_RegeneratesCollidingTrackingCode(t *testing.T) {
	f := newFixture(t, newCart("", cart.Item{ProductID: "p1", Price: d("10"), Quantity: 1}))
	codes := []string{"AAAAAAAA", "BBBBBBBB", "CCCCCCCC"}
	f.svc.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	f.orders.taken["AAAAAAAA"] = true
	f.orders.taken["BBBBBBBB"] = true

	res, err := placeOrder(f, "COD")
	require.NoError(t, err)
	assert.Equal(t, "CCCCCCCC", res.TrackingCode)
}

func TestPlaceOrder_GivesUpOnPersistentCollisions(t *testing.T) {
	f := newFixture(t, newCart("", cart.Item{ProductID: "p1", Price: d("10"), Quantity: 1}))
	calls := 0
	f.svc.newCode = func() (string, error) {
		calls++
		return "AAAAAAAA", nil
	}
	f.orders.taken["AAAAAAAA"] = true

	_, err := placeOrder(f, "COD")
	require.ErrorIs(t, err, ErrTrackingCodeTaken)
	assert.Equal(t, maxTrackingAttempts, calls)
	assert.False(t, f.carts.cleared)
}

func TestPlaceOrder_OrderStoreFailure(t *testing.T) {
	f := newFixture(t, newCart("", cart.Item{ProductID: "p1", Price: d("10"), Quantity: 1}))
	f.orders.err = errors.New("disk full")

	_, err := placeOrder(f, "COD")
	require.Error(t, err)
	assert.False(t, f.carts.cleared)
	assert.Empty(t, f.notifier.calls)
}

func TestPlaceOrder_DegradedStepsDoNotFail(t *testing.T) {
	f := newFixture(t, newCart("", cart.Item{ProductID: "p1", Price: d("10"), Quantity: 1}))
	f.carts.clearErr = errors.New("clear failed")
	f.notifier.err = errors.New("notify failed")

	res, err := placeOrder(f, "COD")
	require.NoError(t, err)
	assert.Equal(t, "order-1", res.OrderID)
	assert.Len(t, f.orders.created, 1)
}

func TestNewPayment(t *testing.T) {
	tests := []struct {
		method string
		want   Payment
	}{
		{method: "COD", want: Payment{Method: PaymentCOD, Status: PaymentPaid}},
		{method: "cod", want: Payment{Method: PaymentCOD, Status: PaymentPaid}},
		{method: " Cod ", want: Payment{Method: PaymentCOD, Status: PaymentPaid}},
		{method: "ONLINE", want: Payment{Method: PaymentOnline, Provider: ProviderRazorpay, Status: PaymentPending}},
		{method: "card", want: Payment{Method: PaymentOnline, Provider: ProviderRazorpay, Status: PaymentPending}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPayment(tt.method))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "CART_ACTIVE", StateCartActive.String())
	assert.Equal(t, "NOTIFIED", StateNotified.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}
