package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/storefront/internal/repository"
)

// WishlistRepo implements WishlistRepository using PostgreSQL.
type WishlistRepo struct{ db *DB }

// NewWishlistRepo constructs a wishlist repository.
func NewWishlistRepo(db *DB) *WishlistRepo { return &WishlistRepo{db: db} }

func (r *WishlistRepo) ListWishlist(ctx context.Context, userID uuid.UUID) ([]repository.WishlistRow, error) {
	const q = `
SELECT user_id, product_id, product_name, product_price, product_image, product_category, created_at
FROM wishlist_items WHERE user_id=$1
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.WishlistRow
	for rows.Next() {
		var w repository.WishlistRow
		if err := rows.Scan(&w.UserID, &w.ProductID, &w.ProductName, &w.ProductPrice,
			&w.ProductImage, &w.ProductCategory, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *WishlistRepo) UpsertWishlist(ctx context.Context, w repository.WishlistRow) error {
	const q = `
INSERT INTO wishlist_items (user_id, product_id, product_name, product_price, product_image, product_category, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id, product_id) DO UPDATE SET
  product_name=EXCLUDED.product_name, product_price=EXCLUDED.product_price,
  product_image=EXCLUDED.product_image, product_category=EXCLUDED.product_category`
	_, err := r.db.Pool.Exec(ctx, q, w.UserID, w.ProductID, w.ProductName, w.ProductPrice,
		w.ProductImage, w.ProductCategory, w.CreatedAt)
	return err
}

func (r *WishlistRepo) DeleteWishlist(ctx context.Context, userID uuid.UUID, productID string) error {
	const q = `DELETE FROM wishlist_items WHERE user_id=$1 AND product_id=$2`
	_, err := r.db.Pool.Exec(ctx, q, userID, productID)
	return err
}

func (r *WishlistRepo) ClearWishlist(ctx context.Context, userID uuid.UUID) error {
	const q = `DELETE FROM wishlist_items WHERE user_id=$1`
	_, err := r.db.Pool.Exec(ctx, q, userID)
	return err
}
