package model

import "time"

// Order status values stored in orders.status. Transitions are restricted:
// PENDING -> PAID -> SHIPPED -> DELIVERED, with CANCELLED reachable from
// PENDING and PAID only.
const (
	OrderPending   = "PENDING"
	OrderPaid      = "PAID"
	OrderShipped   = "SHIPPED"
	OrderDelivered = "DELIVERED"
	OrderCancelled = "CANCELLED"
)

// ValidOrderTransition reports whether an order may move from one status
// to another.
func ValidOrderTransition(from, to string) bool {
	switch from {
	case OrderPending:
		return to == OrderPaid || to == OrderCancelled
	case OrderPaid:
		return to == OrderShipped || to == OrderCancelled
	case OrderShipped:
		return to == OrderDelivered
	}
	return false
}

// Order mirrors the `orders` table.
//
// Fields:
//
//	ID         – primary key identifier.
//	UserID     – owner of the order.
//	Reference  – external order reference (uuid), safe to show to clients.
//	Status     – one of the Order* constants above.
//	TotalCents – order total in cents, derived from its items at creation.
//	AddressID  – shipping address (nullable until set).
//	CreatedAt  – timestamp of creation.
//	UpdatedAt  – timestamp of last update.
type Order struct {
	ID         uint64    // orders.id
	UserID     uint64    // orders.user_id
	Reference  string    // orders.reference
	Status     string    // orders.status
	TotalCents uint32    // orders.total_cents
	AddressID  *uint64   // orders.address_id (nullable)
	CreatedAt  time.Time // orders.created_at
	UpdatedAt  time.Time // orders.updated_at
}

// OrderItem mirrors the `order_items` table. UnitCents snapshots the
// product price at order time so later catalog edits do not rewrite
// history.
type OrderItem struct {
	ID        uint64 // order_items.id
	OrderID   uint64 // order_items.order_id
	ProductID uint64 // order_items.product_id
	Quantity  uint32 // order_items.quantity
	UnitCents uint32 // order_items.unit_cents
}
