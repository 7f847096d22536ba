package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/domain/notification"
)

type notificationRecord struct {
	ID        string    `bson:"_id,omitempty"`
	UserID    string    `bson:"user_id"`
	Title     string    `bson:"title"`
	Message   string    `bson:"message"`
	Type      string    `bson:"type"`
	Read      bool      `bson:"read"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *notificationRecord) toDomain() (notification.Notification, error) {
	n := notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      notification.Type(r.Type),
		Read:      r.Read,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if err := n.Validate(); err != nil {
		return n, malformed(Notifications, r.ID, err)
	}
	return n, nil
}

var _ notification.Repository = (*NotificationRepository)(nil)

// NotificationRepository implements notification.Repository on a document
// store.
type NotificationRepository struct {
	store docstore.Store
}

// NewNotificationRepository returns a NotificationRepository that uses the
// given store.
func NewNotificationRepository(store docstore.Store) *NotificationRepository {
	return &NotificationRepository{store: store}
}

// Create stores n.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) (string, error) {
	id, err := r.store.Create(ctx, Notifications, notificationRecord{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return "", errors.Wrap(err, "create notification")
	}
	n.ID = id
	return id, nil
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]notification.Notification, error) {
	var recs []notificationRecord
	err := r.store.FindMany(ctx, Notifications,
		docstore.Filter{"user_id": userID},
		docstore.Sort{Field: "created_at", Desc: true},
		&recs,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "list notifications of %s", userID)
	}

	out := make([]notification.Notification, 0, len(recs))
	for i := range recs {
		n, err := recs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
