// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationCreatedEvent is published whenever a notification row is
// written. It carries enough information for downstream consumers to log,
// forward, or feed analytics without querying the primary database.
// Delivery is best-effort: a dropped event never blocks the domain action
// that produced it.
type NotificationCreatedEvent struct {
	NotificationID uint64 `json:"notification_id"`
	UserID         uint64 `json:"user_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	OrderID        uint64 `json:"order_id,omitempty"`
	CreatedAt      string `json:"created_at"`
}
