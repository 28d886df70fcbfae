package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ecomstack/ecommerce-api/internal/model"
)

// ProductRepo provides CRUD operations for the catalog. Products are never
// deleted; deactivation hides them from the public listing while existing
// order items keep valid references.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productColumns = "id,sku,name,description,price_cents,stock,is_active,created_at,updated_at"

var ErrSKUExists = ErrConflict

// Create inserts a product and returns its id.
func (r *ProductRepo) Create(ctx context.Context, p model.Product) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (sku, name, description, price_cents, stock, is_active) VALUES (?,?,?,?,?,1)",
		strings.TrimSpace(p.SKU), p.Name, p.Description, p.PriceCents, p.Stock)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrSKUExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a single product regardless of active state; the handler
// decides whether inactive products are visible to the caller.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	var p model.Product
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? LIMIT 1", id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Stock,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// ListActive returns a page of active products, newest first.
func (r *ProductRepo) ListActive(ctx context.Context, page, pageSize int) ([]model.Product, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE is_active=1").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_active=1 ORDER BY id DESC LIMIT ? OFFSET ?",
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents,
			&p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Update overwrites the mutable fields of a product.
func (r *ProductRepo) Update(ctx context.Context, p model.Product) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE products SET name=?, description=?, price_cents=?, stock=? WHERE id=?",
		p.Name, p.Description, p.PriceCents, p.Stock, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for missing rows and no-op updates;
		// confirm existence before reporting not found.
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate hides a product from the catalog.
func (r *ProductRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE products SET is_active=0 WHERE id=? AND is_active=1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustStockTx decrements stock within an order-creation transaction and
// fails with ErrConflict when stock would go negative.
func (r *ProductRepo) AdjustStockTx(ctx context.Context, tx *sql.Tx, productID uint64, delta int32) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock=stock+? WHERE id=? AND stock+? >= 0",
		delta, productID, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}
