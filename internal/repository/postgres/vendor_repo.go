package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/repository"
)

// VendorRepo implements VendorRepository using PostgreSQL.
type VendorRepo struct{ db *DB }

// NewVendorRepo constructs a vendor repository.
func NewVendorRepo(db *DB) *VendorRepo { return &VendorRepo{db: db} }

// Create inserts a new vendor row; new vendors start unapproved.
func (r *VendorRepo) Create(ctx context.Context, v repository.VendorRow) error {
	const q = `
INSERT INTO vendors (id, user_id, business_name, is_approved)
VALUES ($1, $2, $3, false)`
	_, err := r.db.Pool.Exec(ctx, q, v.ID, v.UserID, v.BusinessName)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByUserID loads the vendor record of an account.
func (r *VendorRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (repository.VendorRow, error) {
	const q = `
SELECT id, user_id, business_name, is_approved, created_at
FROM vendors WHERE user_id=$1`
	var v repository.VendorRow
	err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&v.ID, &v.UserID, &v.BusinessName, &v.IsApproved, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.VendorRow{}, errs.ErrNotFound
		}
		return repository.VendorRow{}, err
	}
	return v, nil
}

// SetApproved toggles the vendor-wide approval flag.
func (r *VendorRepo) SetApproved(ctx context.Context, userID uuid.UUID, approved bool) error {
	const q = `UPDATE vendors SET is_approved=$2 WHERE user_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, userID, approved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
