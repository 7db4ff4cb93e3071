package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/repository"
)

// CatalogRepo implements CatalogRepository using PostgreSQL.
type CatalogRepo struct{ db *DB }

// NewCatalogRepo constructs a catalog repository.
func NewCatalogRepo(db *DB) *CatalogRepo { return &CatalogRepo{db: db} }

const catalogColumns = `id, vendor_id, name, description, price, original_price, category, images, sizes,
  status, is_active, rejection_reason, reviewed_by, reviewed_at, created_at, updated_at`

func scanCatalog(row pgx.Row) (repository.CatalogRow, error) {
	var c repository.CatalogRow
	err := row.Scan(&c.ID, &c.VendorID, &c.Name, &c.Description, &c.Price, &c.OriginalPrice,
		&c.Category, &c.Images, &c.Sizes, &c.Status, &c.IsActive, &c.RejectionReason,
		&c.ReviewedBy, &c.ReviewedAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *CatalogRepo) list(ctx context.Context, q string, args ...any) ([]repository.CatalogRow, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.CatalogRow
	for rows.Next() {
		c, err := scanCatalog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByVendor returns a vendor's items, newest first.
func (r *CatalogRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]repository.CatalogRow, error) {
	q := `SELECT ` + catalogColumns + ` FROM vendor_products WHERE vendor_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, q, vendorID)
}

// ListByStatus returns items in the given status, oldest first (review queue order).
func (r *CatalogRepo) ListByStatus(ctx context.Context, status string) ([]repository.CatalogRow, error) {
	q := `SELECT ` + catalogColumns + ` FROM vendor_products WHERE status=$1 ORDER BY created_at ASC`
	return r.list(ctx, q, status)
}

// ListVisible returns the shopper-visible catalog.
func (r *CatalogRepo) ListVisible(ctx context.Context) ([]repository.CatalogRow, error) {
	q := `SELECT ` + catalogColumns + ` FROM vendor_products WHERE status='approved' AND is_active ORDER BY created_at DESC`
	return r.list(ctx, q)
}

// Get returns one item by id.
func (r *CatalogRepo) Get(ctx context.Context, id uuid.UUID) (repository.CatalogRow, error) {
	q := `SELECT ` + catalogColumns + ` FROM vendor_products WHERE id=$1`
	c, err := scanCatalog(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.CatalogRow{}, errs.ErrNotFound
		}
		return repository.CatalogRow{}, err
	}
	return c, nil
}

// Upsert writes vendor content keyed by id.
func (r *CatalogRepo) Upsert(ctx context.Context, c repository.CatalogRow) error {
	const q = `
INSERT INTO vendor_products (id, vendor_id, name, description, price, original_price, category, images, sizes,
  status, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, description=EXCLUDED.description, price=EXCLUDED.price,
  original_price=EXCLUDED.original_price, category=EXCLUDED.category, images=EXCLUDED.images,
  sizes=EXCLUDED.sizes, is_active=EXCLUDED.is_active, updated_at=EXCLUDED.updated_at,
  status=CASE WHEN vendor_products.status='draft' AND EXCLUDED.status IN ('draft','pending')
    THEN EXCLUDED.status ELSE vendor_products.status END
WHERE vendor_products.vendor_id=EXCLUDED.vendor_id`
	tag, err := r.db.Pool.Exec(ctx, q, c.ID, c.VendorID, c.Name, c.Description, c.Price, c.OriginalPrice,
		c.Category, c.Images, c.Sizes, c.Status, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		// id exists but belongs to another vendor
		return errs.ErrPermissionDenied
	}
	return nil
}

// Delete hard-deletes an item owned by vendorID. A missing item is not an error.
func (r *CatalogRepo) Delete(ctx context.Context, vendorID, id uuid.UUID) error {
	const q = `DELETE FROM vendor_products WHERE id=$1 AND vendor_id=$2`
	_, err := r.db.Pool.Exec(ctx, q, id, vendorID)
	return err
}

// DeleteAllByVendor hard-deletes every item of the vendor.
func (r *CatalogRepo) DeleteAllByVendor(ctx context.Context, vendorID uuid.UUID) error {
	const q = `DELETE FROM vendor_products WHERE vendor_id=$1`
	_, err := r.db.Pool.Exec(ctx, q, vendorID)
	return err
}

// UpdateStatus applies ch only if the row is still in ch.From.
// It returns ErrNotFound for an unknown id and ErrVersionConflict when the
// status moved in the meantime.
func (r *CatalogRepo) UpdateStatus(ctx context.Context, id uuid.UUID, ch repository.StatusChange) (repository.CatalogRow, error) {
	q := `
UPDATE vendor_products
SET status=$3, rejection_reason=$4, reviewed_by=$5, reviewed_at=$6, updated_at=$6
WHERE id=$1 AND status=$2
RETURNING ` + catalogColumns
	c, err := scanCatalog(r.db.Pool.QueryRow(ctx, q, id, ch.From, ch.To, ch.RejectionReason, ch.ReviewedBy, ch.At))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return repository.CatalogRow{}, err
	}

	const exists = `SELECT status FROM vendor_products WHERE id=$1`
	var cur string
	if err := r.db.Pool.QueryRow(ctx, exists, id).Scan(&cur); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.CatalogRow{}, errs.ErrNotFound
		}
		return repository.CatalogRow{}, err
	}
	return repository.CatalogRow{}, errs.ErrVersionConflict
}
