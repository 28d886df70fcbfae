package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ecomstack/ecommerce-api/internal/model"
)

// OrderRepo provides operations on orders and their items. Order creation
// runs inside a transaction that also adjusts product stock; status changes
// are single conditional UPDATEs so concurrent transitions cannot race past
// the transition rules.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

const orderColumns = "id,user_id,reference,status,total_cents,address_id,created_at,updated_at"

// VisibleTo enforces order visibility: the owner sees their own orders,
// ADMIN and MANAGER see all, everyone else gets ErrForbidden. Roles are a
// flat set, so no other role is implied in.
func VisibleTo(o model.Order, userID uint64, role string) error {
	if o.UserID == userID || role == model.RoleAdmin || role == model.RoleManager {
		return nil
	}
	return ErrForbidden
}

// CreateTx inserts a new order within the scope of an existing transaction
// and populates the generated ID and timestamps on the record. The caller
// commits or rolls back.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, reference, status, total_cents, address_id) VALUES (?,?,?,?,?)",
		o.UserID, o.Reference, o.Status, o.TotalCents, o.AddressID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	// Query back to populate timestamps from the database clock.
	var addressID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id=?", o.ID).Scan(
		&o.ID, &o.UserID, &o.Reference, &o.Status, &o.TotalCents,
		&addressID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}
	if addressID.Valid {
		v := uint64(addressID.Int64)
		o.AddressID = &v
	}
	return nil
}

// CreateItemsBulkTx inserts the order's items in a single statement.
// Passing an empty slice has no effect and returns nil.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := "INSERT INTO order_items (order_id, product_id, quantity, unit_cents) VALUES "
	args := make([]interface{}, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.OrderID, it.ProductID, it.Quantity, it.UnitCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID fetches an order without an ownership check; callers enforce
// visibility via the UserID field or an admin role.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	var (
		o         model.Order
		addressID sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id=? LIMIT 1", id).Scan(
		&o.ID, &o.UserID, &o.Reference, &o.Status, &o.TotalCents,
		&addressID, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	if err != nil {
		return o, err
	}
	if addressID.Valid {
		v := uint64(addressID.Int64)
		o.AddressID = &v
	}
	return o, nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id=? ORDER BY id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var (
			o         model.Order
			addressID sql.NullInt64
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.Reference, &o.Status, &o.TotalCents,
			&addressID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if addressID.Valid {
			v := uint64(addressID.Int64)
			o.AddressID = &v
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListItems returns the items of one order.
func (r *OrderRepo) ListItems(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,order_id,product_id,quantity,unit_cents FROM order_items WHERE order_id=? ORDER BY id",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateStatus moves an order to a new status. The WHERE clause pins the
// expected current status, so a concurrent transition makes this a no-op
// and the caller sees ErrConflict instead of a silently skipped step.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID uint64, from, to string) error {
	if !model.ValidOrderTransition(from, to) {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=? AND status=?", to, orderID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// PaymentRepo records payments against orders.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

// Create inserts a payment row and returns the stored record.
func (r *PaymentRepo) Create(ctx context.Context, p model.Payment) (model.Payment, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO payments (order_id, reference, method, amount_cents, status) VALUES (?,?,?,?,?)",
		p.OrderID, p.Reference, p.Method, p.AmountCents, p.Status)
	if err != nil {
		return model.Payment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Payment{}, err
	}
	p.ID = uint64(id)
	p.CreatedAt = time.Now().UTC()
	return p, nil
}

// ListByOrder returns the payments recorded against one order.
func (r *PaymentRepo) ListByOrder(ctx context.Context, orderID uint64) ([]model.Payment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,order_id,reference,method,amount_cents,status,created_at FROM payments WHERE order_id=? ORDER BY id",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Reference, &p.Method,
			&p.AmountCents, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
