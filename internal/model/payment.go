package model

import "time"

// Payment status values stored in payments.status.
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

// Payment mirrors the `payments` table. A payment always belongs to an
// order; a completed payment moves its order to PAID.
type Payment struct {
	ID          uint64    // payments.id
	OrderID     uint64    // payments.order_id
	Reference   string    // payments.reference (uuid)
	Method      string    // payments.method (e.g. "card", "cod")
	AmountCents uint32    // payments.amount_cents
	Status      string    // payments.status
	CreatedAt   time.Time // payments.created_at
}
