// Package localcache is the durable, device-scoped cache tier.
//
// Values are addressed by (scope, key). A scope groups the collections of one
// owner; keys name collections ("cart", "wishlist", "vendor_products").
// Collections are stored as JSON arrays.
package localcache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
)

// Collection keys.
const (
	KeyCart           = "cart"
	KeyWishlist       = "wishlist"
	KeyVendorProducts = "vendor_products"
)

// MetaScope holds device metadata (device id, session token).
const MetaScope = "meta"

// Store is key-addressed durable storage. Get returns errs.ErrNotFound for a missing key.
type Store interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Put(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
	DeleteScope(ctx context.Context, scope string) error
}

// Scope returns the cache scope of an owner. Account ids are hashed so the
// device cache never holds them in clear.
func Scope(o model.Owner) string {
	if o.Authenticated() {
		sum := blake2b.Sum256(o.ID.Bytes())
		return "account:" + hex.EncodeToString(sum[:16])
	}
	return "device:" + o.ID.String()
}

// ReadList decodes a JSON array stored under (scope, key). A missing key yields an empty list.
func ReadList[T any](ctx context.Context, s Store, scope, key string) ([]T, error) {
	raw, err := s.Get(ctx, scope, key)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", scope, key, err)
	}
	return out, nil
}

// WriteList stores items as a JSON array, replacing the previous value.
func WriteList[T any](ctx context.Context, s Store, scope, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", scope, key, err)
	}
	return s.Put(ctx, scope, key, raw)
}
