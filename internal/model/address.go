package model

import "time"

// Address mirrors the `addresses` table. Addresses belong to exactly one
// user; every repository operation on them is scoped by user_id.
type Address struct {
	ID         uint64    // addresses.id
	UserID     uint64    // addresses.user_id
	Label      string    // addresses.label (e.g. "home", "office")
	Line1      string    // addresses.line1
	Line2      string    // addresses.line2
	City       string    // addresses.city
	PostalCode string    // addresses.postal_code
	Country    string    // addresses.country (ISO 3166-1 alpha-2)
	IsDefault  bool      // addresses.is_default
	CreatedAt  time.Time // addresses.created_at
	UpdatedAt  time.Time // addresses.updated_at
}
