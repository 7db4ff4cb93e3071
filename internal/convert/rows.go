// Package convert maps domain entities to remote row shapes and back.
package convert

import (
	"time"

	u "github.com/gofrs/uuid/v5"

	model "github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/repository"
)

// --- helpers ---

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func uuidPtr(id u.UUID) *u.UUID {
	if id.IsNil() {
		return nil
	}
	return &id
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// --- Cart ---

// ToCartRow converts a cart line of userID to its remote row.
func ToCartRow(userID u.UUID, l model.CartLine) repository.CartRow {
	return repository.CartRow{
		UserID:          userID,
		ProductID:       l.ProductID,
		Size:            l.Size,
		Quantity:        l.Quantity,
		ProductName:     l.Name,
		ProductPrice:    l.Price,
		ProductImage:    l.Image,
		ProductCategory: l.Category,
		CreatedAt:       l.AddedAt,
	}
}

// FromCartRow converts a remote row to a cart line.
func FromCartRow(r repository.CartRow) model.CartLine {
	return model.CartLine{
		ProductID: r.ProductID,
		Size:      r.Size,
		Quantity:  r.Quantity,
		Name:      r.ProductName,
		Price:     r.ProductPrice,
		Image:     r.ProductImage,
		Category:  r.ProductCategory,
		AddedAt:   r.CreatedAt,
	}
}

// FromCartRows converts rows preserving order.
func FromCartRows(rows []repository.CartRow) []model.CartLine {
	out := make([]model.CartLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromCartRow(r))
	}
	return out
}

// --- Wishlist ---

// ToWishlistRow converts a wishlist entry of userID to its remote row.
func ToWishlistRow(userID u.UUID, w model.WishlistEntry) repository.WishlistRow {
	return repository.WishlistRow{
		UserID:          userID,
		ProductID:       w.ProductID,
		ProductName:     w.Name,
		ProductPrice:    w.Price,
		ProductImage:    w.Image,
		ProductCategory: w.Category,
		CreatedAt:       w.AddedAt,
	}
}

// FromWishlistRow converts a remote row to a wishlist entry.
func FromWishlistRow(r repository.WishlistRow) model.WishlistEntry {
	return model.WishlistEntry{
		ProductID: r.ProductID,
		Name:      r.ProductName,
		Price:     r.ProductPrice,
		Image:     r.ProductImage,
		Category:  r.ProductCategory,
		AddedAt:   r.CreatedAt,
	}
}

// FromWishlistRows converts rows preserving order.
func FromWishlistRows(rows []repository.WishlistRow) []model.WishlistEntry {
	out := make([]model.WishlistEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromWishlistRow(r))
	}
	return out
}

// --- Catalog ---

// ToCatalogRow converts a catalog item to its remote row.
func ToCatalogRow(c model.CatalogItem) repository.CatalogRow {
	return repository.CatalogRow{
		ID:              c.ID,
		VendorID:        c.VendorID,
		Name:            c.Name,
		Description:     c.Description,
		Price:           c.Price,
		OriginalPrice:   c.OriginalPrice,
		Category:        c.Category,
		Images:          orEmpty(c.Images),
		Sizes:           orEmpty(c.Sizes),
		Status:          string(c.Status),
		IsActive:        c.IsActive,
		RejectionReason: strPtr(c.RejectionReason),
		ReviewedBy:      uuidPtr(c.ReviewedBy),
		ReviewedAt:      timePtr(c.ReviewedAt),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// FromCatalogRow converts a remote row to a catalog item.
func FromCatalogRow(r repository.CatalogRow) model.CatalogItem {
	return model.CatalogItem{
		ID:              r.ID,
		VendorID:        r.VendorID,
		Name:            r.Name,
		Description:     r.Description,
		Price:           r.Price,
		OriginalPrice:   r.OriginalPrice,
		Category:        r.Category,
		Images:          r.Images,
		Sizes:           r.Sizes,
		Status:          model.ModerationStatus(r.Status),
		IsActive:        r.IsActive,
		RejectionReason: deref(r.RejectionReason),
		ReviewedBy:      deref(r.ReviewedBy),
		ReviewedAt:      deref(r.ReviewedAt),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// FromCatalogRows converts rows preserving order.
func FromCatalogRows(rows []repository.CatalogRow) []model.CatalogItem {
	out := make([]model.CatalogItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromCatalogRow(r))
	}
	return out
}

// --- Moderation ---

// ToStatusChange builds the conditional update for moving item from its
// current status to next. An empty reason clears the stored one.
func ToStatusChange(from, to model.ModerationStatus, reason string, reviewer u.UUID, at time.Time) repository.StatusChange {
	return repository.StatusChange{
		From:            string(from),
		To:              string(to),
		RejectionReason: strPtr(reason),
		ReviewedBy:      reviewer,
		At:              at,
	}
}

// --- Vendor ---

// FromVendorRow converts a vendor row.
func FromVendorRow(r repository.VendorRow) model.Vendor {
	return model.Vendor{
		ID:           r.ID,
		UserID:       r.UserID,
		BusinessName: r.BusinessName,
		IsApproved:   r.IsApproved,
		CreatedAt:    r.CreatedAt,
	}
}

// ToVendorRow converts a vendor to its row.
func ToVendorRow(v model.Vendor) repository.VendorRow {
	return repository.VendorRow{
		ID:           v.ID,
		UserID:       v.UserID,
		BusinessName: v.BusinessName,
		IsApproved:   v.IsApproved,
		CreatedAt:    v.CreatedAt,
	}
}
