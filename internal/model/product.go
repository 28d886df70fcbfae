package model

import "time"

// Product mirrors the `products` table. Prices are stored in cents to
// avoid floating point money. Products are soft-deactivated via IsActive
// rather than deleted so existing orders keep valid references.
type Product struct {
	ID          uint64    // products.id
	SKU         string    // products.sku (unique)
	Name        string    // products.name
	Description string    // products.description
	PriceCents  uint32    // products.price_cents
	Stock       int32     // products.stock
	IsActive    bool      // products.is_active
	CreatedAt   time.Time // products.created_at
	UpdatedAt   time.Time // products.updated_at
}
