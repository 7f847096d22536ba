// Package notification stores in-app notifications and emits order events.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/multierr"

	"github.com/xenking/herbal-kart/internal/events"
)

// Type classifies a notification.
type Type string

const (
	TypeOrder     Type = "order"
	TypePromotion Type = "promotion"
	TypeSystem    Type = "system"
)

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t == TypeOrder || t == TypePromotion || t == TypeSystem
}

// Notification is a message shown to a user.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      Type
	Read      bool
	CreatedAt time.Time
}

// Validate checks a notification read back from storage.
func (n *Notification) Validate() error {
	switch {
	case n.UserID == "":
		return errors.New("user_id: required")
	case !n.Type.Valid():
		return errors.Errorf("type: unknown type %q", n.Type)
	}
	return nil
}

// Repository persists notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) (string, error)
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID string) ([]Notification, error)
}

// Notifier records notifications and publishes the matching events.
type Notifier struct {
	repo      Repository
	publisher events.Publisher
	topic     string
	now       func() time.Time
}

// NewNotifier creates a Notifier. An empty topic means events.TopicOrdersPlaced.
func NewNotifier(repo Repository, publisher events.Publisher, topic string) *Notifier {
	if topic == "" {
		topic = events.TopicOrdersPlaced
	}
	return &Notifier{
		repo:      repo,
		publisher: publisher,
		topic:     topic,
		now:       time.Now,
	}
}

// OrderPlaced stores the "Order Placed" notification for the user and
// publishes an OrderPlaced event. Both are attempted; their errors are
// combined.
func (n *Notifier) OrderPlaced(ctx context.Context, userID, orderID string) error {
	now := n.now().UTC()

	var err error
	_, createErr := n.repo.Create(ctx, &Notification{
		UserID:    userID,
		Title:     "Order Placed",
		Message:   fmt.Sprintf("Your order #%s has been placed.", orderID),
		Type:      TypeOrder,
		CreatedAt: now,
	})
	if createErr != nil {
		err = multierr.Append(err, errors.Wrap(createErr, "store notification"))
	}

	payload := events.OrderPlaced{OrderID: orderID, UserID: userID, PlacedAt: now}.Marshal()
	if pubErr := n.publisher.Publish(ctx, n.topic, orderID, payload); pubErr != nil {
		err = multierr.Append(err, errors.Wrap(pubErr, "publish order event"))
	}
	return err
}

// List returns the user's notifications, newest first.
func (n *Notifier) List(ctx context.Context, userID string) ([]Notification, error) {
	notes, err := n.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	return notes, nil
}
