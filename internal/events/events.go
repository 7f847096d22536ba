// Package events publishes domain events to a message broker.
package events

import (
	"context"
	"time"

	"github.com/go-faster/jx"
)

// TopicOrdersPlaced is the default topic for OrderPlaced events.
const TopicOrdersPlaced = "orders.placed"

// Publisher delivers an encoded event to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Nop drops every event.
type Nop struct{}

var _ Publisher = Nop{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, string, []byte) error { return nil }

// OrderPlaced is emitted after an order is stored.
type OrderPlaced struct {
	OrderID  string
	UserID   string
	PlacedAt time.Time
}

// Encode writes the event as a JSON object.
func (e OrderPlaced) Encode(enc *jx.Encoder) {
	enc.Obj(func(enc *jx.Encoder) {
		enc.Field("type", func(enc *jx.Encoder) { enc.Str("order.placed") })
		enc.Field("order_id", func(enc *jx.Encoder) { enc.Str(e.OrderID) })
		enc.Field("user_id", func(enc *jx.Encoder) { enc.Str(e.UserID) })
		enc.Field("placed_at", func(enc *jx.Encoder) { enc.Str(e.PlacedAt.UTC().Format(time.RFC3339Nano)) })
	})
}

// Marshal returns the JSON encoding of the event.
func (e OrderPlaced) Marshal() []byte {
	var enc jx.Encoder
	e.Encode(&enc)
	return enc.Bytes()
}
