package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ecomstack/ecommerce-api/internal/model"
	"github.com/ecomstack/ecommerce-api/internal/queue"
	"github.com/ecomstack/ecommerce-api/internal/repository"
)

// Store is the persistence the notifier writes to.
// *repository.NotificationRepo satisfies it; tests supply in-memory fakes.
type Store interface {
	Insert(ctx context.Context, n model.Notification) (model.Notification, error)
}

// Notifier writes notification rows for domain events. Delivery is
// at-most-once and deliberately outside the domain transaction: a failed
// insert is retried exactly once, then logged and dropped. Record never
// returns an error to the caller, so an order status change or payment
// succeeds whether or not its notification lands. This is a documented
// trade-off, not transactional coupling to be added casually.
type Notifier struct {
	Store   Store
	publish func(ctx context.Context, ev queue.NotificationCreatedEvent) error
}

func NewNotifier(store Store) *Notifier {
	return &Notifier{Store: store, publish: PublishNotificationCreated}
}

var _ Store = (*repository.NotificationRepo)(nil)

// Record appends a notification for the user. payload is marshalled to the
// JSON column; orderID may be nil for events that do not concern an order.
// A copy of the stored event is published to RabbitMQ for the audit
// consumer, also best-effort.
func (n *Notifier) Record(ctx context.Context, userID uint64, typ, title, message string, payload map[string]interface{}, orderID *uint64) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notifier: marshal payload failed: %v", err)
		body = []byte("{}")
	}
	row := model.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Payload: body,
		OrderID: orderID,
	}

	stored, err := n.Store.Insert(ctx, row)
	if err != nil {
		log.Printf("notifier: insert failed, retrying once: %v", err)
		stored, err = n.Store.Insert(ctx, row)
		if err != nil {
			log.Printf("notifier: insert failed twice, dropping notification (user=%d type=%s): %v",
				userID, typ, err)
			return
		}
	}
	n.emit(ctx, stored)
}

// Create inserts a notification and, unlike Record, reports the failure to
// the caller: explicit creations (the admin endpoint) must surface a lost
// write as an error. The broker mirror stays best-effort either way.
func (n *Notifier) Create(ctx context.Context, row model.Notification) (model.Notification, error) {
	stored, err := n.Store.Insert(ctx, row)
	if err != nil {
		return model.Notification{}, err
	}
	n.emit(ctx, stored)
	return stored, nil
}

// emit mirrors a stored notification onto the broker for the audit
// consumer. Publish failures are already logged by the publisher.
func (n *Notifier) emit(ctx context.Context, stored model.Notification) {
	if n.publish == nil {
		return
	}
	ev := queue.NotificationCreatedEvent{
		NotificationID: stored.ID,
		UserID:         stored.UserID,
		Type:           stored.Type,
		Title:          stored.Title,
		Message:        stored.Message,
		CreatedAt:      stored.CreatedAt.UTC().Format(time.RFC3339),
	}
	if stored.OrderID != nil {
		ev.OrderID = *stored.OrderID
	}
	_ = n.publish(ctx, ev)
}
