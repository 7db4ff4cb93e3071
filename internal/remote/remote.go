// Package remote adapts the relational repositories to per-owner collections
// consumed by the sync engine. Every failure is reported as *Error, which
// matches errs.ErrRemoteUnavailable.
package remote

import (
	"context"
	"fmt"

	"github.com/and161185/storefront/internal/convert"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/repository"
)

// Error describes a failed remote call.
type Error struct {
	Kind string // collection name
	Op   string // fetch, upsert, delete, clear
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote %s %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap exposes both the availability sentinel and the cause.
func (e *Error) Unwrap() []error { return []error{errs.ErrRemoteUnavailable, e.Err} }

func wrap(kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func requireAccount(kind, op string, o model.Owner) error {
	if !o.Authenticated() {
		return wrap(kind, op, errs.ErrUnauthorized)
	}
	return nil
}

// Cart persists cart lines in CartRepository.
type Cart struct{ repo repository.CartRepository }

// NewCart constructs a cart adapter.
func NewCart(repo repository.CartRepository) *Cart { return &Cart{repo: repo} }

// FetchAll returns the owner's lines, newest first.
func (c *Cart) FetchAll(ctx context.Context, o model.Owner) ([]model.CartLine, error) {
	if err := requireAccount("cart", "fetch", o); err != nil {
		return nil, err
	}
	rows, err := c.repo.ListCart(ctx, o.ID)
	if err != nil {
		return nil, wrap("cart", "fetch", err)
	}
	return convert.FromCartRows(rows), nil
}

// Upsert writes the absolute quantity of a line.
func (c *Cart) Upsert(ctx context.Context, o model.Owner, l model.CartLine) error {
	if err := requireAccount("cart", "upsert", o); err != nil {
		return err
	}
	return wrap("cart", "upsert", c.repo.UpsertCart(ctx, convert.ToCartRow(o.ID, l)))
}

// Delete removes a line by natural key.
func (c *Cart) Delete(ctx context.Context, o model.Owner, l model.CartLine) error {
	if err := requireAccount("cart", "delete", o); err != nil {
		return err
	}
	return wrap("cart", "delete", c.repo.DeleteCart(ctx, o.ID, l.ProductID, l.Size))
}

// DeleteAll empties the owner's cart.
func (c *Cart) DeleteAll(ctx context.Context, o model.Owner) error {
	if err := requireAccount("cart", "clear", o); err != nil {
		return err
	}
	return wrap("cart", "clear", c.repo.ClearCart(ctx, o.ID))
}

// Wishlist persists wishlist entries in WishlistRepository.
type Wishlist struct{ repo repository.WishlistRepository }

// NewWishlist constructs a wishlist adapter.
func NewWishlist(repo repository.WishlistRepository) *Wishlist { return &Wishlist{repo: repo} }

func (w *Wishlist) FetchAll(ctx context.Context, o model.Owner) ([]model.WishlistEntry, error) {
	if err := requireAccount("wishlist", "fetch", o); err != nil {
		return nil, err
	}
	rows, err := w.repo.ListWishlist(ctx, o.ID)
	if err != nil {
		return nil, wrap("wishlist", "fetch", err)
	}
	return convert.FromWishlistRows(rows), nil
}

func (w *Wishlist) Upsert(ctx context.Context, o model.Owner, e model.WishlistEntry) error {
	if err := requireAccount("wishlist", "upsert", o); err != nil {
		return err
	}
	return wrap("wishlist", "upsert", w.repo.UpsertWishlist(ctx, convert.ToWishlistRow(o.ID, e)))
}

func (w *Wishlist) Delete(ctx context.Context, o model.Owner, e model.WishlistEntry) error {
	if err := requireAccount("wishlist", "delete", o); err != nil {
		return err
	}
	return wrap("wishlist", "delete", w.repo.DeleteWishlist(ctx, o.ID, e.ProductID))
}

func (w *Wishlist) DeleteAll(ctx context.Context, o model.Owner) error {
	if err := requireAccount("wishlist", "clear", o); err != nil {
		return err
	}
	return wrap("wishlist", "clear", w.repo.ClearWishlist(ctx, o.ID))
}

// Catalog persists a vendor's own items in CatalogRepository. The owner
// account is the vendor id.
type Catalog struct{ repo repository.CatalogRepository }

// NewCatalog constructs a catalog adapter.
func NewCatalog(repo repository.CatalogRepository) *Catalog { return &Catalog{repo: repo} }

func (c *Catalog) FetchAll(ctx context.Context, o model.Owner) ([]model.CatalogItem, error) {
	if err := requireAccount("catalog", "fetch", o); err != nil {
		return nil, err
	}
	rows, err := c.repo.ListByVendor(ctx, o.ID)
	if err != nil {
		return nil, wrap("catalog", "fetch", err)
	}
	return convert.FromCatalogRows(rows), nil
}

func (c *Catalog) Upsert(ctx context.Context, o model.Owner, item model.CatalogItem) error {
	if err := requireAccount("catalog", "upsert", o); err != nil {
		return err
	}
	item.VendorID = o.ID
	return wrap("catalog", "upsert", c.repo.Upsert(ctx, convert.ToCatalogRow(item)))
}

func (c *Catalog) Delete(ctx context.Context, o model.Owner, item model.CatalogItem) error {
	if err := requireAccount("catalog", "delete", o); err != nil {
		return err
	}
	return wrap("catalog", "delete", c.repo.Delete(ctx, o.ID, item.ID))
}

func (c *Catalog) DeleteAll(ctx context.Context, o model.Owner) error {
	if err := requireAccount("catalog", "clear", o); err != nil {
		return err
	}
	return wrap("catalog", "clear", c.repo.DeleteAllByVendor(ctx, o.ID))
}
