package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/domain/order"
)

type addressRecord struct {
	Label       *string   `bson:"label"`
	Line1       string    `bson:"line1"`
	Line2       *string   `bson:"line2"`
	City        string    `bson:"city"`
	State       string    `bson:"state"`
	Pincode     string    `bson:"pincode"`
	Coordinates []float64 `bson:"coordinates"`
}

type paymentRecord struct {
	Method        string  `bson:"method"`
	Provider      *string `bson:"provider"`
	TransactionID *string `bson:"transaction_id"`
	Status        string  `bson:"status"`
}

type orderRecord struct {
	ID             string        `bson:"_id,omitempty"`
	UserID         string        `bson:"user_id"`
	Items          []itemRecord  `bson:"items"`
	TotalAmount    float64       `bson:"total_amount"`
	DiscountAmount float64       `bson:"discount_amount"`
	FinalAmount    float64       `bson:"final_amount"`
	Address        addressRecord `bson:"address"`
	AreaPincode    *string       `bson:"area_pincode"`
	Payment        paymentRecord `bson:"payment"`
	Status         string        `bson:"status"`
	TrackingCode   string        `bson:"tracking_code"`
	CreatedAt      time.Time     `bson:"created_at"`
}

func newOrderRecord(o *order.Order) orderRecord {
	a := o.Address
	rec := orderRecord{
		ID:             o.ID,
		UserID:         o.UserID,
		Items:          newItemRecords(o.Items),
		TotalAmount:    toFloat(o.TotalAmount),
		DiscountAmount: toFloat(o.DiscountAmount),
		FinalAmount:    toFloat(o.FinalAmount),
		Address: addressRecord{
			Label:   optional(a.Label),
			Line1:   a.Line1,
			Line2:   optional(a.Line2),
			City:    a.City,
			State:   a.State,
			Pincode: a.Pincode,
		},
		AreaPincode: optional(o.AreaPincode),
		Payment: paymentRecord{
			Method:        string(o.Payment.Method),
			Provider:      optional(o.Payment.Provider),
			TransactionID: optional(o.Payment.TransactionID),
			Status:        string(o.Payment.Status),
		},
		Status:       string(o.Status),
		TrackingCode: o.TrackingCode,
		CreatedAt:    o.CreatedAt,
	}
	if a.Coordinates != nil {
		rec.Address.Coordinates = a.Coordinates[:]
	}
	return rec
}

func (r *orderRecord) toDomain() (*order.Order, error) {
	a := r.Address
	o := &order.Order{
		ID:             r.ID,
		UserID:         r.UserID,
		Items:          toItems(r.Items),
		TotalAmount:    fromFloat(r.TotalAmount),
		DiscountAmount: fromFloat(r.DiscountAmount),
		FinalAmount:    fromFloat(r.FinalAmount),
		Address: order.Address{
			Label:   deref(a.Label),
			Line1:   a.Line1,
			Line2:   deref(a.Line2),
			City:    a.City,
			State:   a.State,
			Pincode: a.Pincode,
		},
		AreaPincode: deref(r.AreaPincode),
		Payment: order.Payment{
			Method:        order.PaymentMethod(r.Payment.Method),
			Provider:      deref(r.Payment.Provider),
			TransactionID: deref(r.Payment.TransactionID),
			Status:        order.PaymentStatus(r.Payment.Status),
		},
		Status:       order.Status(r.Status),
		TrackingCode: r.TrackingCode,
		CreatedAt:    r.CreatedAt.UTC(),
	}
	switch len(a.Coordinates) {
	case 0:
	case 2:
		o.Address.Coordinates = &[2]float64{a.Coordinates[0], a.Coordinates[1]}
	default:
		return nil, malformed(Orders, r.ID, errors.Errorf("address.coordinates: want 2 values, got %d", len(a.Coordinates)))
	}
	if err := o.Validate(); err != nil {
		return nil, malformed(Orders, r.ID, err)
	}
	return o, nil
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository on a document store.
type OrderRepository struct {
	store docstore.Store
}

// NewOrderRepository returns an OrderRepository that uses the given store.
func NewOrderRepository(store docstore.Store) *OrderRepository {
	return &OrderRepository{store: store}
}

// Create persists a new order. The unique tracking_code index reports a
// collision as order.ErrTrackingCodeTaken.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) (string, error) {
	id, err := r.store.Create(ctx, Orders, newOrderRecord(o))
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return "", order.ErrTrackingCodeTaken
	}
	if err != nil {
		return "", errors.Wrap(err, "create order")
	}
	return id, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	var recs []orderRecord
	err := r.store.FindMany(ctx, Orders,
		docstore.Filter{"user_id": userID},
		docstore.Sort{Field: "created_at", Desc: true},
		&recs,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of %s", userID)
	}

	orders := make([]order.Order, 0, len(recs))
	for i := range recs {
		o, err := recs[i].toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

// FindByTrackingCode returns the order with exactly code.
func (r *OrderRepository) FindByTrackingCode(ctx context.Context, code string) (*order.Order, error) {
	var rec orderRecord
	err := r.store.FindOne(ctx, Orders, docstore.Filter{"tracking_code": code}, &rec)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find order %q", code)
	}
	return rec.toDomain()
}
