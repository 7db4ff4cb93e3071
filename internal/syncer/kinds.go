package syncer

import (
	"github.com/and161185/storefront/internal/localcache"
	"github.com/and161185/storefront/internal/model"
)

// CartKind merges lines by (product, size): quantities add up, every other
// field is overwritten by the incoming line.
type CartKind struct{}

func (CartKind) Name() string                { return "cart" }
func (CartKind) CacheKey() string            { return localcache.KeyCart }
func (CartKind) Key(l model.CartLine) string { return l.Key() }
func (CartKind) Drop(l model.CartLine) bool  { return l.Quantity <= 0 }

func (CartKind) Merge(existing, incoming model.CartLine) model.CartLine {
	out := incoming
	out.Quantity = existing.Quantity + incoming.Quantity
	if !existing.AddedAt.IsZero() {
		out.AddedAt = existing.AddedAt
	}
	return out
}

// WishlistKind keeps one entry per product.
type WishlistKind struct{}

func (WishlistKind) Name() string                     { return "wishlist" }
func (WishlistKind) CacheKey() string                 { return localcache.KeyWishlist }
func (WishlistKind) Key(w model.WishlistEntry) string { return w.Key() }
func (WishlistKind) Drop(model.WishlistEntry) bool    { return false }

func (WishlistKind) Merge(existing, incoming model.WishlistEntry) model.WishlistEntry {
	out := incoming
	if !existing.AddedAt.IsZero() {
		out.AddedAt = existing.AddedAt
	}
	return out
}

// CatalogKind tracks a vendor's own items by id.
type CatalogKind struct{}

func (CatalogKind) Name() string                   { return "catalog" }
func (CatalogKind) CacheKey() string               { return localcache.KeyVendorProducts }
func (CatalogKind) Key(c model.CatalogItem) string { return c.ID.String() }
func (CatalogKind) Drop(model.CatalogItem) bool    { return false }

func (CatalogKind) Merge(existing, incoming model.CatalogItem) model.CatalogItem {
	out := incoming
	if !existing.CreatedAt.IsZero() {
		out.CreatedAt = existing.CreatedAt
	}
	return out
}

// Cart, Wishlist and Catalog are the engines used by the storefront.
type (
	Cart     = Engine[model.CartLine]
	Wishlist = Engine[model.WishlistEntry]
	Catalog  = Engine[model.CatalogItem]
)
