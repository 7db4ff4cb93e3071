package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/storefront/internal/repository"
)

// CartRepo implements CartRepository using PostgreSQL.
type CartRepo struct{ db *DB }

// NewCartRepo constructs a cart repository.
func NewCartRepo(db *DB) *CartRepo { return &CartRepo{db: db} }

// ListCart returns the user's lines, newest first.
func (r *CartRepo) ListCart(ctx context.Context, userID uuid.UUID) ([]repository.CartRow, error) {
	const q = `
SELECT user_id, product_id, size, quantity, product_name, product_price, product_image, product_category, created_at
FROM cart_items WHERE user_id=$1
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.CartRow
	for rows.Next() {
		var c repository.CartRow
		if err := rows.Scan(&c.UserID, &c.ProductID, &c.Size, &c.Quantity, &c.ProductName,
			&c.ProductPrice, &c.ProductImage, &c.ProductCategory, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertCart writes the absolute quantity for (user_id, product_id, size).
func (r *CartRepo) UpsertCart(ctx context.Context, c repository.CartRow) error {
	const q = `
INSERT INTO cart_items (user_id, product_id, size, quantity, product_name, product_price, product_image, product_category, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (user_id, product_id, size) DO UPDATE SET
  quantity=EXCLUDED.quantity, product_name=EXCLUDED.product_name, product_price=EXCLUDED.product_price,
  product_image=EXCLUDED.product_image, product_category=EXCLUDED.product_category`
	_, err := r.db.Pool.Exec(ctx, q, c.UserID, c.ProductID, c.Size, c.Quantity, c.ProductName,
		c.ProductPrice, c.ProductImage, c.ProductCategory, c.CreatedAt)
	return err
}

// DeleteCart removes one line. A missing line is not an error.
func (r *CartRepo) DeleteCart(ctx context.Context, userID uuid.UUID, productID, size string) error {
	const q = `DELETE FROM cart_items WHERE user_id=$1 AND product_id=$2 AND size=$3`
	_, err := r.db.Pool.Exec(ctx, q, userID, productID, size)
	return err
}

// ClearCart removes all lines of the user.
func (r *CartRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	const q = `DELETE FROM cart_items WHERE user_id=$1`
	_, err := r.db.Pool.Exec(ctx, q, userID)
	return err
}
