package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/domain/cart"
	"github.com/xenking/herbal-kart/internal/domain/catalog"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
	"github.com/xenking/herbal-kart/internal/domain/notification"
	"github.com/xenking/herbal-kart/internal/domain/order"
	"github.com/xenking/herbal-kart/internal/domain/user"
)

func newStore(t *testing.T) *docstore.Memory {
	t.Helper()
	store := docstore.NewMemory()
	require.NoError(t, EnsureIndexes(context.Background(), store))
	return store
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCartRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository(newStore(t))

	_, err := repo.Get(ctx, "u1")
	require.ErrorIs(t, err, cart.ErrNotFound)

	c := cart.New("u1")
	require.NoError(t, repo.Create(ctx, c))
	assert.NotEmpty(t, c.ID)
	require.ErrorIs(t, repo.Create(ctx, cart.New("u1")), cart.ErrAlreadyExists)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []cart.Item{}, got.Items)
	assert.Zero(t, got.Version)

	got.SetItem(cart.Item{ProductID: "p1", Title: "Curry Cut", Price: d("249.5"), Quantity: 2})
	got.CouponCode = "SAVE10"
	require.NoError(t, repo.Save(ctx, got))
	assert.EqualValues(t, 1, got.Version)

	reloaded, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.True(t, reloaded.Items[0].Price.Equal(d("249.5")))
	assert.Equal(t, "SAVE10", reloaded.CouponCode)
	assert.EqualValues(t, 1, reloaded.Version)

	// A stale copy loses.
	c.SetItem(cart.Item{ProductID: "p2", Price: d("10"), Quantity: 1})
	require.ErrorIs(t, repo.Save(ctx, c), cart.ErrVersionConflict)

	reloaded.Reset()
	require.NoError(t, repo.Save(ctx, reloaded))
	cleared, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())
	assert.Empty(t, cleared.CouponCode)
}

func TestCartRepository_Malformed(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := store.Create(ctx, Carts, bson.M{
		"user_id": "u1",
		"items":   bson.A{bson.M{"product_id": "p1", "price": 10.0, "quantity": 0}},
		"version": int64(0),
	})
	require.NoError(t, err)

	_, err = NewCartRepository(store).Get(ctx, "u1")
	require.ErrorIs(t, err, docstore.ErrMalformedDocument)
}

func TestCouponRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepository(newStore(t))

	save10 := &coupon.Coupon{
		Code:         "SAVE10",
		DiscountType: coupon.DiscountPercent,
		Value:        d("10"),
		MaxDiscount:  decimal.NewNullDecimal(d("20")),
		Active:       true,
	}
	_, err := repo.Create(ctx, save10)
	require.NoError(t, err)
	_, err = repo.Create(ctx, &coupon.Coupon{Code: "SAVE10", DiscountType: coupon.DiscountFlat})
	require.ErrorIs(t, err, coupon.ErrAlreadyExists)

	got, err := repo.FindActive(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, coupon.DiscountPercent, got.DiscountType)
	assert.True(t, got.Value.Equal(d("10")))
	require.True(t, got.MaxDiscount.Valid)
	assert.True(t, got.MaxDiscount.Decimal.Equal(d("20")))

	_, err = repo.FindActive(ctx, "save10")
	require.ErrorIs(t, err, coupon.ErrNotFound)

	save10.Active = false
	require.NoError(t, repo.Upsert(ctx, save10))
	_, err = repo.FindActive(ctx, "SAVE10")
	require.ErrorIs(t, err, coupon.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, &coupon.Coupon{
		Code:         "FLAT50",
		DiscountType: coupon.DiscountFlat,
		Value:        d("50"),
		Active:       true,
	}))
	flat, err := repo.FindActive(ctx, "FLAT50")
	require.NoError(t, err)
	assert.False(t, flat.MaxDiscount.Valid)
}

func testOrder(code string, at time.Time) *order.Order {
	return &order.Order{
		UserID: "u1",
		Items: []cart.Item{
			{ProductID: "p1", Title: "Curry Cut", Price: d("125"), Quantity: 2, ImageURL: "https://img/p1.jpg"},
		},
		TotalAmount:    d("250"),
		DiscountAmount: d("20"),
		FinalAmount:    d("230"),
		Address: order.Address{
			Line1:       "12 MG Road",
			City:        "Bengaluru",
			State:       "KA",
			Pincode:     "560001",
			Coordinates: &[2]float64{12.97, 77.59},
		},
		AreaPincode:  "560001",
		Payment:      order.NewPayment("cod"),
		Status:       order.StatusPlaced,
		TrackingCode: code,
		CreatedAt:    at,
	}
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newStore(t))
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	firstID, err := repo.Create(ctx, testOrder("AAAA1111", base))
	require.NoError(t, err)
	secondID, err := repo.Create(ctx, testOrder("BBBB2222", base.Add(time.Minute)))
	require.NoError(t, err)

	_, err = repo.Create(ctx, testOrder("AAAA1111", base))
	require.ErrorIs(t, err, order.ErrTrackingCodeTaken)

	orders, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, secondID, orders[0].ID)
	assert.Equal(t, firstID, orders[1].ID)

	got, err := repo.FindByTrackingCode(ctx, "AAAA1111")
	require.NoError(t, err)
	assert.Equal(t, firstID, got.ID)
	assert.True(t, got.FinalAmount.Equal(d("230")))
	assert.Equal(t, order.PaymentCOD, got.Payment.Method)
	assert.Empty(t, got.Payment.Provider)
	require.NotNil(t, got.Address.Coordinates)
	assert.Equal(t, [2]float64{12.97, 77.59}, *got.Address.Coordinates)
	assert.True(t, got.CreatedAt.Equal(base))

	_, err = repo.FindByTrackingCode(ctx, "aaaa1111")
	require.ErrorIs(t, err, order.ErrNotFound)

	none, err := repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCatalogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(newStore(t))

	id, err := repo.CreateProduct(ctx, &catalog.Product{
		ID:       "p1",
		Title:    "Chicken Curry Cut",
		Price:    d("249"),
		Unit:     catalog.UnitKG,
		Category: catalog.CategoryChicken,
		ImageURL: "https://img/p1.jpg",
		InStock:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	_, err = repo.CreateProduct(ctx, &catalog.Product{
		Title:    "Mutton Keema",
		Price:    d("699"),
		Unit:     catalog.UnitKG,
		Category: catalog.CategoryMutton,
		ImageURL: "https://img/p2.jpg",
	})
	require.NoError(t, err)

	p, err := repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Chicken Curry Cut", p.Title)
	assert.False(t, p.MRP.Valid)
	assert.Equal(t, []string{}, p.Tags)

	_, err = repo.GetProduct(ctx, "missing")
	require.ErrorIs(t, err, catalog.ErrProductNotFound)

	all, err := repo.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mutton, err := repo.ListProducts(ctx, catalog.CategoryMutton)
	require.NoError(t, err)
	require.Len(t, mutton, 1)
	assert.Equal(t, "Mutton Keema", mutton[0].Title)

	_, err = repo.CreateCategory(ctx, &catalog.Category{Name: catalog.CategoryFish, Slug: "fish", Active: true})
	require.NoError(t, err)
	_, err = repo.CreateCategory(ctx, &catalog.Category{Name: catalog.CategoryFish, Slug: "fish"})
	require.ErrorIs(t, err, catalog.ErrAlreadyExists)

	_, err = repo.CreateBanner(ctx, &catalog.Banner{ImageURL: "https://img/b1.jpg", AspectRatio: "16:9", Active: true})
	require.NoError(t, err)
	_, err = repo.CreateBanner(ctx, &catalog.Banner{ImageURL: "https://img/b2.jpg", AspectRatio: "16:9"})
	require.NoError(t, err)
	banners, err := repo.ListBanners(ctx)
	require.NoError(t, err)
	require.Len(t, banners, 1)
	assert.Equal(t, "https://img/b1.jpg", banners[0].ImageURL)

	_, err = repo.CreateArea(ctx, &catalog.DeliveryArea{Name: "Indiranagar", Pincode: "560038", Active: true})
	require.NoError(t, err)
	areas, err := repo.ListAreas(ctx)
	require.NoError(t, err)
	assert.Len(t, areas, 1)

	offers, err := repo.ListOffers(ctx)
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestCatalogRepository_Malformed(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := store.Create(ctx, Products, bson.M{
		"_id":      "p1",
		"title":    "Eggs",
		"price":    -1.0,
		"unit":     "kg",
		"category": "Eggs",
	})
	require.NoError(t, err)

	_, err = NewCatalogRepository(store).GetProduct(ctx, "p1")
	var malformedErr *docstore.MalformedDocumentError
	require.ErrorAs(t, err, &malformedErr)
	assert.Equal(t, Products, malformedErr.Collection)
	assert.Equal(t, "p1", malformedErr.ID)
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(newStore(t))
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i, title := range []string{"first", "second"} {
		_, err := repo.Create(ctx, &notification.Notification{
			UserID:    "u1",
			Title:     title,
			Type:      notification.TypeOrder,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	notes, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "second", notes[0].Title)
	assert.False(t, notes[0].Read)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newStore(t))

	id, err := repo.Create(ctx, &user.User{Name: "Asha", Email: "asha@example.com", Mobile: "9876543210", IsActive: true})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &user.User{Email: "asha@example.com", Mobile: "1112223334"})
	require.ErrorIs(t, err, user.ErrAlreadyExists)

	u, err := repo.FindByMobile(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)
}
