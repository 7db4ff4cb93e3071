package catalog

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/storefront/internal/convert"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/localcache"
	"github.com/and161185/storefront/internal/media"
	"github.com/and161185/storefront/internal/mode"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/remote"
	"github.com/and161185/storefront/internal/repository/memrepo"
	"github.com/and161185/storefront/internal/syncer"
)

type fakeUploader struct{ gotVendor, gotItem uuid.UUID }

func (f *fakeUploader) PresignUpload(_ context.Context, vendorID, itemID uuid.UUID, contentType string) (media.Upload, error) {
	f.gotVendor, f.gotItem = vendorID, itemID
	return media.Upload{Key: "k", URL: "https://signed", Method: "PUT"}, nil
}

func complete() Draft {
	orig := int64(15000)
	return Draft{Name: "Wool coat", Price: 9900, OriginalPrice: &orig, Category: "outerwear",
		Images: []string{"https://img/1.png"}, Sizes: []string{"M"}, Active: true}
}

func newService(t *testing.T) (*Service, *memrepo.Store, model.Actor, *syncer.Catalog) {
	t.Helper()
	repo := memrepo.New()
	vendor := model.Actor{ID: uuid.Must(uuid.NewV4()), Role: model.RoleVendor}
	e := syncer.New[model.CatalogItem](vendor.Owner(), syncer.Config[model.CatalogItem]{
		Kind: syncer.CatalogKind{}, Cache: localcache.NewMemory(), Remote: remote.NewCatalog(repo),
		Mode: mode.RemoteBacked(), Logger: zaptest.NewLogger(t), KeepOnSignOut: true,
	})
	return NewService(e, &fakeUploader{}, zaptest.NewLogger(t)), repo, vendor, e
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Draft{Name: "x"}, false))
	require.NoError(t, Validate(complete(), true))

	err := Validate(Draft{}, true)
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"name", "price", "category", "images", "sizes"}, ve.Fields)

	low := int64(1)
	d := complete()
	d.OriginalPrice = &low
	assert.ErrorIs(t, Validate(d, true), errs.ErrValidation)
}

func TestCreate_SaveAndSubmit(t *testing.T) {
	s, repo, vendor, e := newService(t)
	ctx := context.Background()

	draft, err := s.Create(ctx, vendor, Draft{Name: "Idea"}, Save)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, draft.Status)
	assert.False(t, draft.Visible())

	_, err = s.Create(ctx, vendor, Draft{Name: "Incomplete"}, SubmitForReview)
	require.ErrorIs(t, err, errs.ErrValidation)

	sub, err := s.Create(ctx, vendor, complete(), SubmitForReview)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, sub.Status)
	e.Wait()

	assert.Len(t, s.List(), 2)
	rows, err := repo.ListByVendor(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSubmit_DraftToPending(t *testing.T) {
	s, repo, vendor, e := newService(t)
	ctx := context.Background()

	d, err := s.Create(ctx, vendor, Draft{Name: "Idea"}, Save)
	require.NoError(t, err)
	e.Wait()

	_, err = s.Submit(ctx, vendor, d.ID)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.UpdateContent(ctx, vendor, d.ID, complete())
	require.NoError(t, err)
	e.Wait()
	got, err := s.Submit(ctx, vendor, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	_, err = s.Submit(ctx, vendor, d.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	e.Wait()
	row, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", row.Status)
	assert.Equal(t, "Wool coat", row.Name)
}

func TestUpdateContent_KeepsModerationDecision(t *testing.T) {
	s, repo, vendor, e := newService(t)
	ctx := context.Background()

	item, err := s.Create(ctx, vendor, complete(), SubmitForReview)
	require.NoError(t, err)
	e.Wait()
	_, err = repo.UpdateStatus(ctx, item.ID, convert.ToStatusChange(model.StatusPending, model.StatusApproved, "", uuid.Must(uuid.NewV4()), item.CreatedAt))
	require.NoError(t, err)

	edit := complete()
	edit.Description = "now with pockets"
	_, err = s.UpdateContent(ctx, vendor, item.ID, edit)
	require.NoError(t, err)
	e.Wait()

	row, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", row.Status)
	assert.Equal(t, "now with pockets", row.Description)

	edit.Images = nil
	_, err = s.UpdateContent(ctx, vendor, item.ID, edit)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestDelete(t *testing.T) {
	s, repo, vendor, e := newService(t)
	ctx := context.Background()

	item, err := s.Create(ctx, vendor, Draft{Name: "Idea"}, Save)
	require.NoError(t, err)
	e.Wait()

	other := model.Actor{ID: uuid.Must(uuid.NewV4()), Role: model.RoleVendor}
	assert.ErrorIs(t, s.Delete(ctx, other, item.ID), errs.ErrPermissionDenied)
	require.NoError(t, s.Delete(ctx, vendor, item.ID))
	assert.ErrorIs(t, s.Delete(ctx, vendor, item.ID), errs.ErrNotFound)
	e.Wait()

	_, err = repo.Get(ctx, item.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreate_RequiresVendor(t *testing.T) {
	s, _, vendor, _ := newService(t)
	shopper := model.Actor{ID: vendor.ID, Role: model.RoleShopper}
	_, err := s.Create(context.Background(), shopper, complete(), Save)
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestUploadURL(t *testing.T) {
	s, _, vendor, _ := newService(t)
	ctx := context.Background()
	item, err := s.Create(ctx, vendor, Draft{Name: "Idea"}, Save)
	require.NoError(t, err)

	up, err := s.UploadURL(ctx, vendor, item.ID, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://signed", up.URL)
	fu := s.upload.(*fakeUploader)
	assert.Equal(t, vendor.ID, fu.gotVendor)
	assert.Equal(t, item.ID, fu.gotItem)

	_, err = s.UploadURL(ctx, vendor, uuid.Must(uuid.NewV4()), "image/png")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestVisible(t *testing.T) {
	items := []model.CatalogItem{
		{Name: "approved inactive", Status: model.StatusApproved, IsActive: false},
		{Name: "pending active", Status: model.StatusPending, IsActive: true},
		{Name: "draft active", Status: model.StatusDraft, IsActive: true},
		{Name: "approved active", Status: model.StatusApproved, IsActive: true},
	}
	got := Visible(items)
	require.Len(t, got, 1)
	assert.Equal(t, "approved active", got[0].Name)
}

func TestListing(t *testing.T) {
	s, repo, vendor, e := newService(t)
	ctx := context.Background()
	item, err := s.Create(ctx, vendor, complete(), SubmitForReview)
	require.NoError(t, err)
	e.Wait()

	got, err := Listing(ctx, repo)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = repo.UpdateStatus(ctx, item.ID, convert.ToStatusChange(model.StatusPending, model.StatusApproved, "", uuid.Must(uuid.NewV4()), item.CreatedAt))
	require.NoError(t, err)
	got, err = Listing(ctx, repo)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
