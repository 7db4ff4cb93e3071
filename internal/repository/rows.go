// Package repository defines the remote relational tier: row shapes mirroring
// the tables and the storage interfaces implemented by concrete backends.
package repository

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// CartRow mirrors cart_items. Unique on (user_id, product_id, size).
type CartRow struct {
	UserID          uuid.UUID
	ProductID       string
	Size            string
	Quantity        int
	ProductName     string
	ProductPrice    int64
	ProductImage    string
	ProductCategory string
	CreatedAt       time.Time
}

// WishlistRow mirrors wishlist_items. Unique on (user_id, product_id).
type WishlistRow struct {
	UserID          uuid.UUID
	ProductID       string
	ProductName     string
	ProductPrice    int64
	ProductImage    string
	ProductCategory string
	CreatedAt       time.Time
}

// CatalogRow mirrors vendor_products. Nullable columns are pointers.
type CatalogRow struct {
	ID              uuid.UUID
	VendorID        uuid.UUID
	Name            string
	Description     string
	Price           int64
	OriginalPrice   *int64
	Category        string
	Images          []string
	Sizes           []string
	Status          string
	IsActive        bool
	RejectionReason *string
	ReviewedBy      *uuid.UUID
	ReviewedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatusChange is a conditional moderation write: it applies only while the
// row still has status From.
type StatusChange struct {
	From            string
	To              string
	RejectionReason *string
	ReviewedBy      uuid.UUID
	At              time.Time
}

// VendorRow mirrors vendors.
type VendorRow struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	BusinessName string
	IsApproved   bool
	CreatedAt    time.Time
}
