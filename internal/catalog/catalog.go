// Package catalog holds the vendor-side catalog operations and the shopper
// listing built on the visibility gate.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/convert"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/media"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/moderation"
	"github.com/and161185/storefront/internal/repository"
	"github.com/and161185/storefront/internal/syncer"
)

// Action selects the initial status of a new item.
type Action int

const (
	// Save keeps the item as a draft.
	Save Action = iota
	// SubmitForReview sends it straight to the review queue.
	SubmitForReview
)

// Draft carries the vendor-editable content of an item.
type Draft struct {
	Name          string
	Description   string
	Price         int64
	OriginalPrice *int64
	Category      string
	Images        []string
	Sizes         []string
	Active        bool
}

// Validate checks d. Drafts only need a name; submissions need every field
// shoppers rely on.
func Validate(d Draft, submit bool) error {
	var bad []string
	if strings.TrimSpace(d.Name) == "" {
		bad = append(bad, "name")
	}
	if d.Price < 0 {
		bad = append(bad, "price")
	}
	if submit {
		if d.Price == 0 {
			bad = append(bad, "price")
		}
		if strings.TrimSpace(d.Category) == "" {
			bad = append(bad, "category")
		}
		if len(d.Images) == 0 {
			bad = append(bad, "images")
		}
		if len(d.Sizes) == 0 {
			bad = append(bad, "sizes")
		}
	}
	if d.OriginalPrice != nil && *d.OriginalPrice < d.Price {
		bad = append(bad, "original_price")
	}
	if len(bad) > 0 {
		return errs.NewValidation(bad...)
	}
	return nil
}

func draftOf(c model.CatalogItem) Draft {
	return Draft{
		Name: c.Name, Description: c.Description, Price: c.Price, OriginalPrice: c.OriginalPrice,
		Category: c.Category, Images: c.Images, Sizes: c.Sizes, Active: c.IsActive,
	}
}

// Uploader presigns image uploads.
type Uploader interface {
	PresignUpload(ctx context.Context, vendorID, itemID uuid.UUID, contentType string) (media.Upload, error)
}

// Service runs vendor operations against the vendor's own collection.
type Service struct {
	items  *syncer.Catalog
	upload Uploader
	log    *zap.Logger
	now    func() time.Time
}

// NewService builds a service over the vendor's catalog engine. upload may be nil.
func NewService(items *syncer.Catalog, upload Uploader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{items: items, upload: upload, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) ownerCheck(actor model.Actor) error {
	if actor.Role != model.RoleVendor {
		return fmt.Errorf("%w: vendor role required", errs.ErrPermissionDenied)
	}
	if s.items.Owner() != actor.Owner() {
		return fmt.Errorf("%w: collection belongs to another owner", errs.ErrPermissionDenied)
	}
	return nil
}

func (s *Service) find(id uuid.UUID) (model.CatalogItem, error) {
	for _, it := range s.items.Items() {
		if it.ID == id {
			return it, nil
		}
	}
	return model.CatalogItem{}, errs.ErrNotFound
}

// List returns the vendor's items, newest first.
func (s *Service) List() []model.CatalogItem { return s.items.Items() }

// Create adds a new item as a draft or straight into review.
func (s *Service) Create(ctx context.Context, actor model.Actor, d Draft, action Action) (model.CatalogItem, error) {
	if err := s.ownerCheck(actor); err != nil {
		return model.CatalogItem{}, err
	}
	to := model.StatusDraft
	if action == SubmitForReview {
		to = model.StatusPending
	}
	if err := moderation.Check(actor, model.CatalogItem{VendorID: actor.ID}, to, ""); err != nil {
		return model.CatalogItem{}, err
	}
	if err := Validate(d, to == model.StatusPending); err != nil {
		return model.CatalogItem{}, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return model.CatalogItem{}, err
	}
	now := s.now()
	item := model.CatalogItem{
		ID:            id,
		VendorID:      actor.ID,
		Name:          strings.TrimSpace(d.Name),
		Description:   d.Description,
		Price:         d.Price,
		OriginalPrice: d.OriginalPrice,
		Category:      d.Category,
		Images:        d.Images,
		Sizes:         d.Sizes,
		Status:        to,
		IsActive:      d.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.items.Add(ctx, item)
	s.log.Info("catalog item created", zap.String("item", id.String()), zap.String("status", string(to)))
	return item, nil
}

// UpdateContent replaces the content fields of an item. The status is kept;
// drafts only need a name, other items must stay complete.
func (s *Service) UpdateContent(ctx context.Context, actor model.Actor, id uuid.UUID, d Draft) (model.CatalogItem, error) {
	if err := s.ownerCheck(actor); err != nil {
		return model.CatalogItem{}, err
	}
	cur, err := s.find(id)
	if err != nil {
		return model.CatalogItem{}, err
	}
	if err := Validate(d, cur.Status != model.StatusDraft); err != nil {
		return model.CatalogItem{}, err
	}

	var out model.CatalogItem
	s.items.Update(ctx, id.String(), func(c model.CatalogItem) model.CatalogItem {
		c.Name = strings.TrimSpace(d.Name)
		c.Description = d.Description
		c.Price = d.Price
		c.OriginalPrice = d.OriginalPrice
		c.Category = d.Category
		c.Images = d.Images
		c.Sizes = d.Sizes
		c.IsActive = d.Active
		c.UpdatedAt = s.now()
		out = c
		return c
	})
	return out, nil
}

// Submit sends a draft to the review queue.
func (s *Service) Submit(ctx context.Context, actor model.Actor, id uuid.UUID) (model.CatalogItem, error) {
	if err := s.ownerCheck(actor); err != nil {
		return model.CatalogItem{}, err
	}
	cur, err := s.find(id)
	if err != nil {
		return model.CatalogItem{}, err
	}
	if err := moderation.Check(actor, cur, model.StatusPending, ""); err != nil {
		return model.CatalogItem{}, err
	}
	if err := Validate(draftOf(cur), true); err != nil {
		return model.CatalogItem{}, err
	}

	var out model.CatalogItem
	s.items.Update(ctx, id.String(), func(c model.CatalogItem) model.CatalogItem {
		c.Status = model.StatusPending
		c.UpdatedAt = s.now()
		out = c
		return c
	})
	s.log.Info("catalog item submitted", zap.String("item", id.String()))
	return out, nil
}

// Delete hard-deletes an item the vendor owns.
func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := s.ownerCheck(actor); err != nil {
		return err
	}
	cur, err := s.find(id)
	if err != nil {
		return err
	}
	if cur.VendorID != actor.ID {
		return fmt.Errorf("%w: item belongs to another vendor", errs.ErrPermissionDenied)
	}
	s.items.Remove(ctx, id.String())
	return nil
}

// UploadURL presigns an image upload for one of the vendor's items.
func (s *Service) UploadURL(ctx context.Context, actor model.Actor, id uuid.UUID, contentType string) (media.Upload, error) {
	if err := s.ownerCheck(actor); err != nil {
		return media.Upload{}, err
	}
	if _, err := s.find(id); err != nil {
		return media.Upload{}, err
	}
	if s.upload == nil {
		return media.Upload{}, fmt.Errorf("image uploads are not configured")
	}
	return s.upload.PresignUpload(ctx, actor.ID, id, contentType)
}

// Visible keeps only shopper-visible items.
func Visible(items []model.CatalogItem) []model.CatalogItem {
	var out []model.CatalogItem
	for _, it := range items {
		if it.Visible() {
			out = append(out, it)
		}
	}
	return out
}

// Listing returns the shopper-visible catalog from the remote tier.
func Listing(ctx context.Context, repo repository.CatalogRepository) ([]model.CatalogItem, error) {
	rows, err := repo.ListVisible(ctx)
	if err != nil {
		return nil, err
	}
	return convert.FromCatalogRows(rows), nil
}
