package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// CartRepository stores cart lines per user.
type CartRepository interface {
	// ListCart returns the user's lines ordered by created_at descending.
	ListCart(ctx context.Context, userID uuid.UUID) ([]CartRow, error)
	// UpsertCart inserts or overwrites the line keyed by (user_id, product_id, size).
	UpsertCart(ctx context.Context, row CartRow) error
	// DeleteCart removes one line by natural key.
	DeleteCart(ctx context.Context, userID uuid.UUID, productID, size string) error
	// ClearCart removes every line of the user.
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

// WishlistRepository stores wishlist entries per user.
type WishlistRepository interface {
	ListWishlist(ctx context.Context, userID uuid.UUID) ([]WishlistRow, error)
	// UpsertWishlist inserts or overwrites the entry keyed by (user_id, product_id).
	UpsertWishlist(ctx context.Context, row WishlistRow) error
	DeleteWishlist(ctx context.Context, userID uuid.UUID, productID string) error
	ClearWishlist(ctx context.Context, userID uuid.UUID) error
}

// CatalogRepository stores vendor catalog items.
type CatalogRepository interface {
	// ListByVendor returns a vendor's items, newest first.
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]CatalogRow, error)
	// ListByStatus returns items in a moderation status across vendors, oldest first.
	ListByStatus(ctx context.Context, status string) ([]CatalogRow, error)
	// ListVisible returns approved and active items, newest first.
	ListVisible(ctx context.Context) ([]CatalogRow, error)
	// Get returns one item by id.
	Get(ctx context.Context, id uuid.UUID) (CatalogRow, error)
	// Upsert inserts or overwrites vendor-owned content keyed by id. On conflict
	// the status only moves while the stored row is a draft (draft -> pending),
	// so content edits never overwrite a moderation decision.
	Upsert(ctx context.Context, row CatalogRow) error
	// Delete hard-deletes an item owned by vendorID.
	Delete(ctx context.Context, vendorID, id uuid.UUID) error
	// DeleteAllByVendor hard-deletes every item of the vendor.
	DeleteAllByVendor(ctx context.Context, vendorID uuid.UUID) error
	// UpdateStatus applies a conditional status change and returns the updated row.
	UpdateStatus(ctx context.Context, id uuid.UUID, ch StatusChange) (CatalogRow, error)
}

// VendorRepository stores the coarse vendor approval flag.
type VendorRepository interface {
	Create(ctx context.Context, v VendorRow) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (VendorRow, error)
	SetApproved(ctx context.Context, userID uuid.UUID, approved bool) error
}
