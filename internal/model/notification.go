package model

import "time"

// Notification type names stored in notifications.type. Clients may filter
// polls to a subset of these; anything else is rejected as a caller error.
const (
	NotificationOrderStatus   = "order_status"
	NotificationPaymentStatus = "payment_status"
	NotificationGeneric       = "notification"
	NotificationSystemAlert   = "system_alert"
)

// ValidNotificationType reports whether t is one of the known notification
// type names.
func ValidNotificationType(t string) bool {
	switch t {
	case NotificationOrderStatus, NotificationPaymentStatus, NotificationGeneric, NotificationSystemAlert:
		return true
	}
	return false
}

// Notification mirrors the `notifications` table. Rows are immutable once
// written except for the IsRead flag. Ordering within a user's timeline is
// by CreatedAt with ID as the tie-break, which gives polling clients an
// unambiguous watermark.
//
// Fields:
//
//	ID        – primary key, also the ordering tie-break.
//	UserID    – owner of the notification.
//	Type      – one of the Notification* constants above.
//	Title     – short human-readable headline.
//	Message   – longer body text.
//	Payload   – structured JSON payload (e.g. {"order_id": 42, "status": "SHIPPED"}).
//	OrderID   – referenced order, when the event concerns one (nullable).
//	IsRead    – whether the owner marked the notification read.
//	CreatedAt – creation timestamp; the polling watermark dimension.
type Notification struct {
	ID        uint64    // notifications.id
	UserID    uint64    // notifications.user_id
	Type      string    // notifications.type
	Title     string    // notifications.title
	Message   string    // notifications.message
	Payload   []byte    // notifications.payload (JSON column)
	OrderID   *uint64   // notifications.order_id (nullable)
	IsRead    bool      // notifications.is_read
	CreatedAt time.Time // notifications.created_at
}
