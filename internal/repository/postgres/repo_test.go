package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/repository"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var catalogCols = []string{"id", "vendor_id", "name", "description", "price", "original_price", "category",
	"images", "sizes", "status", "is_active", "rejection_reason", "reviewed_by", "reviewed_at", "created_at", "updated_at"}

func TestCartRepo_ListCart_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCartRepo(db)

	userID := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM cart_items WHERE user_id=\$1`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "product_id", "size", "quantity", "product_name",
			"product_price", "product_image", "product_category", "created_at"}).
			AddRow(userID, "p2", "M", 1, "Scarf", int64(1500), "s.png", "acc", now).
			AddRow(userID, "p1", "L", 3, "Coat", int64(9900), "c.png", "outer", now.Add(-time.Minute)))

	out, err := r.ListCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "p2", out[0].ProductID)
	require.Equal(t, 3, out[1].Quantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepo_UpsertAndDelete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCartRepo(db)
	ctx := context.Background()

	row := repository.CartRow{UserID: uuid.Must(uuid.NewV4()), ProductID: "p1", Size: "M", Quantity: 2,
		ProductName: "Coat", ProductPrice: 9900, CreatedAt: time.Now().UTC()}

	mock.ExpectExec(`INSERT INTO cart_items .* ON CONFLICT \(user_id, product_id, size\) DO UPDATE`).
		WithArgs(row.UserID, row.ProductID, row.Size, row.Quantity, row.ProductName,
			row.ProductPrice, row.ProductImage, row.ProductCategory, row.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM cart_items WHERE user_id=\$1 AND product_id=\$2 AND size=\$3`).
		WithArgs(row.UserID, "p1", "M").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM cart_items WHERE user_id=\$1`).
		WithArgs(row.UserID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, r.UpsertCart(ctx, row))
	require.NoError(t, r.DeleteCart(ctx, row.UserID, "p1", "M"))
	require.NoError(t, r.ClearCart(ctx, row.UserID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepo_ListError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewWishlistRepo(db)

	userID := uuid.Must(uuid.NewV4())
	boom := errors.New("boom")
	mock.ExpectQuery(`FROM wishlist_items WHERE user_id=\$1`).WithArgs(userID).WillReturnError(boom)

	_, err := r.ListWishlist(context.Background(), userID)
	require.ErrorIs(t, err, boom)
}

func TestWishlistRepo_Upsert(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewWishlistRepo(db)

	row := repository.WishlistRow{UserID: uuid.Must(uuid.NewV4()), ProductID: "p1", ProductName: "Coat",
		ProductPrice: 100, CreatedAt: time.Now().UTC()}
	mock.ExpectExec(`ON CONFLICT \(user_id, product_id\) DO UPDATE`).
		WithArgs(row.UserID, row.ProductID, row.ProductName, row.ProductPrice, row.ProductImage,
			row.ProductCategory, row.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.UpsertWishlist(context.Background(), row))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCatalogRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`FROM vendor_products WHERE id=\$1`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err := r.Get(context.Background(), id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCatalogRepo_ListByStatus_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCatalogRepo(db)

	id := uuid.Must(uuid.NewV4())
	vendor := uuid.Must(uuid.NewV4())
	orig := int64(12000)
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM vendor_products WHERE status=\$1 ORDER BY created_at ASC`).
		WithArgs("pending").
		WillReturnRows(pgxmock.NewRows(catalogCols).AddRow(
			id, vendor, "Coat", "warm", int64(9900), &orig, "outer",
			[]string{"a.png"}, []string{"M", "L"}, "pending", true, nil, nil, nil, now, now))

	out, err := r.ListByStatus(context.Background(), "pending")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, id, out[0].ID)
	require.Equal(t, int64(12000), *out[0].OriginalPrice)
	require.Nil(t, out[0].RejectionReason)
	require.Equal(t, []string{"M", "L"}, out[0].Sizes)
}

func TestCatalogRepo_Upsert_ForeignID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCatalogRepo(db)

	now := time.Now().UTC()
	row := repository.CatalogRow{ID: uuid.Must(uuid.NewV4()), VendorID: uuid.Must(uuid.NewV4()), Name: "Coat",
		Price: 100, Status: "draft", IsActive: true, CreatedAt: now, UpdatedAt: now}
	mock.ExpectExec(`INSERT INTO vendor_products`).
		WithArgs(row.ID, row.VendorID, row.Name, row.Description, row.Price, row.OriginalPrice,
			row.Category, row.Images, row.Sizes, row.Status, row.IsActive, row.CreatedAt, row.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := r.Upsert(context.Background(), row)
	require.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestCatalogRepo_UpdateStatus(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	admin := uuid.Must(uuid.NewV4())
	at := time.Now().UTC()
	reason := "blurry photos"
	ch := repository.StatusChange{From: "pending", To: "rejected", RejectionReason: &reason, ReviewedBy: admin, At: at}

	t.Run("ok", func(t *testing.T) {
		db, mock := newDB(t)
		defer mock.Close()
		r := NewCatalogRepo(db)

		mock.ExpectQuery(`UPDATE vendor_products\s+SET status=\$3.*WHERE id=\$1 AND status=\$2`).
			WithArgs(id, ch.From, ch.To, ch.RejectionReason, ch.ReviewedBy, ch.At).
			WillReturnRows(pgxmock.NewRows(catalogCols).AddRow(
				id, uuid.Must(uuid.NewV4()), "Coat", "", int64(100), nil, "outer",
				[]string{"a.png"}, []string{"M"}, "rejected", true, &reason, &admin, &at, at, at))

		got, err := r.UpdateStatus(context.Background(), id, ch)
		require.NoError(t, err)
		require.Equal(t, "rejected", got.Status)
		require.Equal(t, reason, *got.RejectionReason)
	})

	t.Run("conflict", func(t *testing.T) {
		db, mock := newDB(t)
		defer mock.Close()
		r := NewCatalogRepo(db)

		mock.ExpectQuery(`UPDATE vendor_products`).
			WithArgs(id, ch.From, ch.To, ch.RejectionReason, ch.ReviewedBy, ch.At).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(`SELECT status FROM vendor_products WHERE id=\$1`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("approved"))

		_, err := r.UpdateStatus(context.Background(), id, ch)
		require.ErrorIs(t, err, errs.ErrVersionConflict)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newDB(t)
		defer mock.Close()
		r := NewCatalogRepo(db)

		mock.ExpectQuery(`UPDATE vendor_products`).
			WithArgs(id, ch.From, ch.To, ch.RejectionReason, ch.ReviewedBy, ch.At).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(`SELECT status FROM vendor_products WHERE id=\$1`).
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err := r.UpdateStatus(context.Background(), id, ch)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestVendorRepo_Create_Duplicate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVendorRepo(db)

	v := repository.VendorRow{ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4()), BusinessName: "Acme"}
	mock.ExpectExec(`INSERT INTO vendors`).
		WithArgs(v.ID, v.UserID, v.BusinessName).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	require.ErrorIs(t, r.Create(context.Background(), v), errs.ErrAlreadyExists)
}

func TestVendorRepo_SetApproved(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVendorRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`UPDATE vendors SET is_approved=\$2 WHERE user_id=\$1`).
		WithArgs(userID, true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE vendors SET is_approved=\$2 WHERE user_id=\$1`).
		WithArgs(userID, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, r.SetApproved(ctx, userID, true))
	require.ErrorIs(t, r.SetApproved(ctx, userID, false), errs.ErrNotFound)
}

func TestVendorRepo_GetByUserID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVendorRepo(db)

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM vendors WHERE user_id=\$1`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "business_name", "is_approved", "created_at"}).
			AddRow(id, userID, "Acme", true, now))

	v, err := r.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, v.IsApproved)
	require.Equal(t, "Acme", v.BusinessName)
}
