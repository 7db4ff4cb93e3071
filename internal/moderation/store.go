package moderation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/storefront/internal/convert"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/repository"
	"github.com/and161185/storefront/internal/syncer"
)

// Change is a reviewed status change.
type Change struct {
	To     model.ModerationStatus
	Reason string
	By     uuid.UUID
	At     time.Time
}

// Store reads and conditionally writes item status. SetStatus must fail with
// errs.ErrVersionConflict when the item is no longer in status from.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (model.CatalogItem, error)
	SetStatus(ctx context.Context, id uuid.UUID, from model.ModerationStatus, ch Change) (model.CatalogItem, error)
	ListByStatus(ctx context.Context, status model.ModerationStatus) ([]model.CatalogItem, error)
}

// RemoteStore moderates the authoritative catalog table.
type RemoteStore struct{ repo repository.CatalogRepository }

// NewRemoteStore wraps a catalog repository.
func NewRemoteStore(repo repository.CatalogRepository) *RemoteStore {
	return &RemoteStore{repo: repo}
}

func (s *RemoteStore) Get(ctx context.Context, id uuid.UUID) (model.CatalogItem, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.CatalogItem{}, err
	}
	return convert.FromCatalogRow(row), nil
}

func (s *RemoteStore) SetStatus(ctx context.Context, id uuid.UUID, from model.ModerationStatus, ch Change) (model.CatalogItem, error) {
	row, err := s.repo.UpdateStatus(ctx, id, convert.ToStatusChange(from, ch.To, ch.Reason, ch.By, ch.At))
	if err != nil {
		return model.CatalogItem{}, err
	}
	return convert.FromCatalogRow(row), nil
}

func (s *RemoteStore) ListByStatus(ctx context.Context, status model.ModerationStatus) ([]model.CatalogItem, error) {
	rows, err := s.repo.ListByStatus(ctx, string(status))
	if err != nil {
		return nil, err
	}
	return convert.FromCatalogRows(rows), nil
}

// LocalStore moderates a catalog collection held by a sync engine. It serves
// local-only setups where no remote catalog exists.
type LocalStore struct{ e *syncer.Catalog }

// NewLocalStore wraps a catalog engine.
func NewLocalStore(e *syncer.Catalog) *LocalStore { return &LocalStore{e: e} }

func (s *LocalStore) Get(_ context.Context, id uuid.UUID) (model.CatalogItem, error) {
	for _, it := range s.e.Items() {
		if it.ID == id {
			return it, nil
		}
	}
	return model.CatalogItem{}, errs.ErrNotFound
}

// SetStatus checks the expected status and writes the change under the
// engine lock, so a concurrent change or delete is reported, never skipped.
func (s *LocalStore) SetStatus(ctx context.Context, id uuid.UUID, from model.ModerationStatus, ch Change) (model.CatalogItem, error) {
	var (
		out   model.CatalogItem
		found bool
	)
	_, applied := s.e.UpdateIf(ctx, id.String(), func(c model.CatalogItem) (model.CatalogItem, bool) {
		found = true
		if c.Status != from {
			return c, false
		}
		c.Status = ch.To
		c.RejectionReason = ch.Reason
		c.ReviewedBy = ch.By
		c.ReviewedAt = ch.At
		c.UpdatedAt = ch.At
		out = c
		return c, true
	})
	switch {
	case !found:
		return model.CatalogItem{}, errs.ErrNotFound
	case !applied:
		return model.CatalogItem{}, errs.ErrVersionConflict
	}
	return out, nil
}

func (s *LocalStore) ListByStatus(_ context.Context, status model.ModerationStatus) ([]model.CatalogItem, error) {
	var out []model.CatalogItem
	for _, it := range s.e.Items() {
		if it.Status == status {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// conflictAsTransition reports a lost race as an invalid transition: the
// item left the expected status before the write landed.
func conflictAsTransition(err error, from, to model.ModerationStatus) error {
	if errors.Is(err, errs.ErrVersionConflict) {
		return fmt.Errorf("%w: %s -> %s (status changed concurrently)", errs.ErrInvalidTransition, from, to)
	}
	return err
}
