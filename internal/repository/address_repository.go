package repository

import (
	"context"
	"database/sql"

	"github.com/ecomstack/ecommerce-api/internal/model"
)

// AddressRepo provides CRUD operations for user addresses. Every statement
// includes the owning user_id so a caller can only ever touch their own
// rows; a mismatched id behaves exactly like a missing one.
type AddressRepo struct{ DB *sql.DB }

func NewAddressRepo(db *sql.DB) *AddressRepo { return &AddressRepo{DB: db} }

const addressColumns = "id,user_id,label,line1,line2,city,postal_code,country,is_default,created_at,updated_at"

// Create inserts an address for the user and returns its id. Marking an
// address default clears the flag on the user's other addresses first.
func (r *AddressRepo) Create(ctx context.Context, a model.Address) (uint64, error) {
	if a.IsDefault {
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE addresses SET is_default=0 WHERE user_id=?", a.UserID); err != nil {
			return 0, err
		}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO addresses (user_id, label, line1, line2, city, postal_code, country, is_default) VALUES (?,?,?,?,?,?,?,?)",
		a.UserID, a.Label, a.Line1, a.Line2, a.City, a.PostalCode, a.Country, a.IsDefault)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one address owned by the user.
func (r *AddressRepo) GetByID(ctx context.Context, userID, id uint64) (model.Address, error) {
	var a model.Address
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE id=? AND user_id=? LIMIT 1",
		id, userID).Scan(
		&a.ID, &a.UserID, &a.Label, &a.Line1, &a.Line2, &a.City,
		&a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

// ListByUser returns all addresses of the user, default first.
func (r *AddressRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Address, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id=? ORDER BY is_default DESC, id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Address
	for rows.Next() {
		var a model.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.Line1, &a.Line2, &a.City,
			&a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update overwrites the mutable fields of an address owned by the user.
func (r *AddressRepo) Update(ctx context.Context, a model.Address) error {
	if a.IsDefault {
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE addresses SET is_default=0 WHERE user_id=? AND id<>?", a.UserID, a.ID); err != nil {
			return err
		}
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE addresses SET label=?, line1=?, line2=?, city=?, postal_code=?, country=?, is_default=? WHERE id=? AND user_id=?",
		a.Label, a.Line1, a.Line2, a.City, a.PostalCode, a.Country, a.IsDefault, a.ID, a.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, a.UserID, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an address owned by the user.
func (r *AddressRepo) Delete(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM addresses WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
