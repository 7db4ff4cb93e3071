package grpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/and161185/storefront/internal/convert"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/identity"
	"github.com/and161185/storefront/internal/limiter"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/moderation"
	"github.com/and161185/storefront/internal/repository"
	"github.com/and161185/storefront/internal/repository/memrepo"
)

const bufSize = 1 << 20

var jwtKey = []byte("grpc-test-key")

type harness struct {
	repo *memrepo.Store
	lis  *bufconn.Listener
}

func startBufGRPC(t *testing.T) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	repo := memrepo.New()
	mach := moderation.New(moderation.NewRemoteStore(repo), repo, log)

	lis := bufconn.Listen(bufSize)
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoverUnary(log),
		LoggingUnary(log),
		AuthUnary(identity.NewVerifier(jwtKey), MethodPrefix, limiter.NewMemory(limiter.DefaultPolicy), log),
	))
	Register(gs, New(mach))
	healthpb.RegisterHealthServer(gs, health.NewServer())
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(func() { gs.Stop(); _ = lis.Close() })
	return &harness{repo: repo, lis: lis}
}

func (h *harness) client(t *testing.T, a *model.Actor) (*Client, *grpc.ClientConn) {
	t.Helper()
	o := DialOptions{Plaintext: true}
	if a != nil {
		tok, err := identity.Sign(jwtKey, *a, time.Minute)
		require.NoError(t, err)
		o.Token = tok
	}
	cli, cc, err := Dial("passthrough:///bufnet", o,
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return h.lis.Dial() }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return cli, cc
}

func (h *harness) pending(t *testing.T, name string, images ...string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	item := model.CatalogItem{ID: uuid.Must(uuid.NewV4()), VendorID: uuid.Must(uuid.NewV4()),
		Name: name, Price: 1500, Category: "tops", Images: images, Sizes: []string{"M"},
		Status: model.StatusPending, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, h.repo.Upsert(ctx, convert.ToCatalogRow(item)))
	return item.ID
}

var (
	moderator = model.Actor{ID: uuid.Must(uuid.NewV4()), Role: model.RoleAdmin,
		Capabilities: []model.Capability{model.CapProductsApprove, model.CapProductsReject, model.CapVendorsApprove}}
	readOnlyAdmin = model.Actor{ID: uuid.Must(uuid.NewV4()), Role: model.RoleAdmin}
)

func TestServer_E2E_ModerationFlow(t *testing.T) {
	h := startBufGRPC(t)
	cli, _ := h.client(t, &moderator)
	ctx := context.Background()

	sparse := h.pending(t, "Sparse")
	rich := h.pending(t, "Rich", "a.jpg", "b.jpg")

	queue, err := cli.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, rich, queue[0].Item.ID)
	assert.Greater(t, queue[0].Score, queue[1].Score)

	got, err := cli.Approve(ctx, rich)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.Equal(t, moderator.ID, got.ReviewedBy)

	got, err = cli.Reject(ctx, sparse, "needs photos")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)
	assert.Equal(t, "needs photos", got.RejectionReason)

	queue, err = cli.Queue(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestServer_ErrorMapping(t *testing.T) {
	h := startBufGRPC(t)
	ctx := context.Background()
	admin, _ := h.client(t, &moderator)
	viewer, _ := h.client(t, &readOnlyAdmin)

	id := h.pending(t, "Item")

	_, err := admin.Reject(ctx, id, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = viewer.Approve(ctx, id)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = admin.Approve(ctx, uuid.Must(uuid.NewV4()))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = admin.Approve(ctx, id)
	require.NoError(t, err)
	_, err = admin.Approve(ctx, id)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestServer_Unauthenticated(t *testing.T) {
	h := startBufGRPC(t)
	anon, cc := h.client(t, nil)

	_, err := anon.Queue(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	// health stays reachable without a token
	resp, err := healthpb.NewHealthClient(cc).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestServer_BadIDs(t *testing.T) {
	h := startBufGRPC(t)
	cli, _ := h.client(t, &moderator)
	ctx := context.Background()

	err := cli.invoke(ctx, "Approve", &ItemRequest{ID: "nope"}, &ItemResponse{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = cli.invoke(ctx, "BulkApprove", &BulkRequest{IDs: []string{"x"}}, &BulkResponse{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_BulkPartialFailure(t *testing.T) {
	h := startBufGRPC(t)
	cli, _ := h.client(t, &moderator)
	ctx := context.Background()

	a := h.pending(t, "A")
	b := h.pending(t, "B")
	_, err := cli.Approve(ctx, b)
	require.NoError(t, err)
	missing := uuid.Must(uuid.NewV4())

	res, err := cli.BulkApprove(ctx, []uuid.UUID{a, b, missing})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 1, res.Succeeded)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, b, res.Failed[0].ID)
	assert.NotEmpty(t, res.Failed[0].Message)
	assert.Equal(t, missing, res.Failed[1].ID)

	c := h.pending(t, "C")
	res, err = cli.BulkReject(ctx, []uuid.UUID{c}, "off-brand")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	row, err := h.repo.Get(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusRejected), row.Status)
}

func TestServer_SetVendorApproval(t *testing.T) {
	h := startBufGRPC(t)
	cli, _ := h.client(t, &moderator)
	viewer, _ := h.client(t, &readOnlyAdmin)
	ctx := context.Background()

	vendor := uuid.Must(uuid.NewV4())
	require.NoError(t, h.repo.Create(ctx, repository.VendorRow{UserID: vendor, BusinessName: "Shop"}))

	require.NoError(t, cli.SetVendorApproval(ctx, vendor, true))
	row, err := h.repo.GetByUserID(ctx, vendor)
	require.NoError(t, err)
	assert.True(t, row.IsApproved)

	err = viewer.SetVendorApproval(ctx, vendor, false)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	err = cli.SetVendorApproval(ctx, uuid.Must(uuid.NewV4()), true)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestToStatus_Fallback(t *testing.T) {
	t.Parallel()
	assert.Equal(t, codes.Unauthenticated, status.Code(toStatus("x", errs.ErrUnauthorized)))
	assert.Equal(t, codes.Internal, status.Code(toStatus("x", context.DeadlineExceeded)))
}
