// Package memrepo holds in-memory repository implementations used by tests and
// by the daemon's -dev mode. Fail injects an error into every call.
package memrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/repository"
)

// Store keeps every table of the remote tier in maps.
type Store struct {
	mu       sync.Mutex
	cart     map[uuid.UUID]map[string]repository.CartRow
	wishlist map[uuid.UUID]map[string]repository.WishlistRow
	catalog  map[uuid.UUID]repository.CatalogRow
	vendors  map[uuid.UUID]repository.VendorRow

	// Fail, when set, is returned by every call.
	Fail error
	// Calls counts invocations per method name.
	Calls map[string]int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		cart:     map[uuid.UUID]map[string]repository.CartRow{},
		wishlist: map[uuid.UUID]map[string]repository.WishlistRow{},
		catalog:  map[uuid.UUID]repository.CatalogRow{},
		vendors:  map[uuid.UUID]repository.VendorRow{},
		Calls:    map[string]int{},
	}
}

var (
	_ repository.CartRepository     = (*Store)(nil)
	_ repository.WishlistRepository = (*Store)(nil)
	_ repository.CatalogRepository  = (*Store)(nil)
	_ repository.VendorRepository   = (*Store)(nil)
)

func (s *Store) enter(name string) error {
	s.Calls[name]++
	return s.Fail
}

// SetFail swaps the injected error.
func (s *Store) SetFail(err error) {
	s.mu.Lock()
	s.Fail = err
	s.mu.Unlock()
}

// CallCount returns the number of calls to method name.
func (s *Store) CallCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[name]
}

// TotalCalls sums every recorded call.
func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.Calls {
		n += c
	}
	return n
}

// --- cart ---

func (s *Store) ListCart(_ context.Context, userID uuid.UUID) ([]repository.CartRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListCart"); err != nil {
		return nil, err
	}
	out := make([]repository.CartRow, 0, len(s.cart[userID]))
	for _, r := range s.cart[userID] {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpsertCart(_ context.Context, r repository.CartRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertCart"); err != nil {
		return err
	}
	m := s.cart[r.UserID]
	if m == nil {
		m = map[string]repository.CartRow{}
		s.cart[r.UserID] = m
	}
	k := model.CartKey(r.ProductID, r.Size)
	if old, ok := m[k]; ok {
		r.CreatedAt = old.CreatedAt
	}
	m[k] = r
	return nil
}

func (s *Store) DeleteCart(_ context.Context, userID uuid.UUID, productID, size string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteCart"); err != nil {
		return err
	}
	delete(s.cart[userID], model.CartKey(productID, size))
	return nil
}

func (s *Store) ClearCart(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ClearCart"); err != nil {
		return err
	}
	delete(s.cart, userID)
	return nil
}

// --- wishlist ---

func (s *Store) ListWishlist(_ context.Context, userID uuid.UUID) ([]repository.WishlistRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListWishlist"); err != nil {
		return nil, err
	}
	out := make([]repository.WishlistRow, 0, len(s.wishlist[userID]))
	for _, r := range s.wishlist[userID] {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpsertWishlist(_ context.Context, r repository.WishlistRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertWishlist"); err != nil {
		return err
	}
	m := s.wishlist[r.UserID]
	if m == nil {
		m = map[string]repository.WishlistRow{}
		s.wishlist[r.UserID] = m
	}
	if old, ok := m[r.ProductID]; ok {
		r.CreatedAt = old.CreatedAt
	}
	m[r.ProductID] = r
	return nil
}

func (s *Store) DeleteWishlist(_ context.Context, userID uuid.UUID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteWishlist"); err != nil {
		return err
	}
	delete(s.wishlist[userID], productID)
	return nil
}

func (s *Store) ClearWishlist(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ClearWishlist"); err != nil {
		return err
	}
	delete(s.wishlist, userID)
	return nil
}

// --- catalog ---

func (s *Store) filterCatalog(keep func(repository.CatalogRow) bool, newestFirst bool) []repository.CatalogRow {
	var out []repository.CatalogRow
	for _, r := range s.catalog {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) ListByVendor(_ context.Context, vendorID uuid.UUID) ([]repository.CatalogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListByVendor"); err != nil {
		return nil, err
	}
	return s.filterCatalog(func(r repository.CatalogRow) bool { return r.VendorID == vendorID }, true), nil
}

func (s *Store) ListByStatus(_ context.Context, status string) ([]repository.CatalogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListByStatus"); err != nil {
		return nil, err
	}
	return s.filterCatalog(func(r repository.CatalogRow) bool { return r.Status == status }, false), nil
}

func (s *Store) ListVisible(_ context.Context) ([]repository.CatalogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListVisible"); err != nil {
		return nil, err
	}
	return s.filterCatalog(func(r repository.CatalogRow) bool { return r.Status == "approved" && r.IsActive }, true), nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (repository.CatalogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Get"); err != nil {
		return repository.CatalogRow{}, err
	}
	r, ok := s.catalog[id]
	if !ok {
		return repository.CatalogRow{}, errs.ErrNotFound
	}
	return r, nil
}

func (s *Store) Upsert(_ context.Context, r repository.CatalogRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Upsert"); err != nil {
		return err
	}
	old, ok := s.catalog[r.ID]
	if ok {
		if old.VendorID != r.VendorID {
			return errs.ErrPermissionDenied
		}
		status := old.Status
		if old.Status == "draft" && (r.Status == "draft" || r.Status == "pending") {
			status = r.Status
		}
		r.Status = status
		r.CreatedAt = old.CreatedAt
		r.RejectionReason, r.ReviewedBy, r.ReviewedAt = old.RejectionReason, old.ReviewedBy, old.ReviewedAt
	} else {
		r.RejectionReason, r.ReviewedBy, r.ReviewedAt = nil, nil, nil
	}
	s.catalog[r.ID] = r
	return nil
}

func (s *Store) Delete(_ context.Context, vendorID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Delete"); err != nil {
		return err
	}
	if r, ok := s.catalog[id]; ok && r.VendorID == vendorID {
		delete(s.catalog, id)
	}
	return nil
}

func (s *Store) DeleteAllByVendor(_ context.Context, vendorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteAllByVendor"); err != nil {
		return err
	}
	for id, r := range s.catalog {
		if r.VendorID == vendorID {
			delete(s.catalog, id)
		}
	}
	return nil
}

func (s *Store) UpdateStatus(_ context.Context, id uuid.UUID, ch repository.StatusChange) (repository.CatalogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateStatus"); err != nil {
		return repository.CatalogRow{}, err
	}
	r, ok := s.catalog[id]
	if !ok {
		return repository.CatalogRow{}, errs.ErrNotFound
	}
	if r.Status != ch.From {
		return repository.CatalogRow{}, errs.ErrVersionConflict
	}
	reviewer, at := ch.ReviewedBy, ch.At
	r.Status = ch.To
	r.RejectionReason = ch.RejectionReason
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &at
	r.UpdatedAt = at
	s.catalog[id] = r
	return r, nil
}

// --- vendors ---

func (s *Store) Create(_ context.Context, v repository.VendorRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Create"); err != nil {
		return err
	}
	if _, ok := s.vendors[v.UserID]; ok {
		return errs.ErrAlreadyExists
	}
	v.IsApproved = false
	s.vendors[v.UserID] = v
	return nil
}

func (s *Store) GetByUserID(_ context.Context, userID uuid.UUID) (repository.VendorRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetByUserID"); err != nil {
		return repository.VendorRow{}, err
	}
	v, ok := s.vendors[userID]
	if !ok {
		return repository.VendorRow{}, errs.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetApproved(_ context.Context, userID uuid.UUID, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SetApproved"); err != nil {
		return err
	}
	v, ok := s.vendors[userID]
	if !ok {
		return errs.ErrNotFound
	}
	v.IsApproved = approved
	s.vendors[userID] = v
	return nil
}
