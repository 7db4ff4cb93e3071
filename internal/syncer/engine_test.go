package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/localcache"
	"github.com/and161185/storefront/internal/mode"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/remote"
	"github.com/and161185/storefront/internal/repository/memrepo"
)

type results struct {
	mu  sync.Mutex
	all []Result
}

func (r *results) observe(res Result) {
	r.mu.Lock()
	r.all = append(r.all, res)
	r.mu.Unlock()
}

func (r *results) list() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.all...)
}

type fixture struct {
	repo  *memrepo.Store
	cache *localcache.Memory
	res   *results
}

func newFixture() *fixture {
	return &fixture{repo: memrepo.New(), cache: localcache.NewMemory(), res: &results{}}
}

func (f *fixture) cart(t *testing.T, owner model.Owner, m Mode) *Cart {
	t.Helper()
	return New[model.CartLine](owner, Config[model.CartLine]{
		Kind:     CartKind{},
		Cache:    f.cache,
		Remote:   remote.NewCart(f.repo),
		Mode:     m,
		Logger:   zaptest.NewLogger(t),
		Observer: f.res.observe,
	})
}

func (f *fixture) wishlist(t *testing.T, owner model.Owner, m Mode) *Wishlist {
	t.Helper()
	return New[model.WishlistEntry](owner, Config[model.WishlistEntry]{
		Kind:     WishlistKind{},
		Cache:    f.cache,
		Remote:   remote.NewWishlist(f.repo),
		Mode:     m,
		Logger:   zaptest.NewLogger(t),
		Observer: f.res.observe,
	})
}

func account() model.Owner { return model.Account(uuid.Must(uuid.NewV4())) }
func device() model.Owner  { return model.Device(uuid.Must(uuid.NewV4())) }

func line(product, size string, qty int, price int64) model.CartLine {
	return model.CartLine{ProductID: product, Size: size, Quantity: qty, Name: product, Price: price, AddedAt: time.Now().UTC()}
}

func TestCart_AddSameKeyMerges(t *testing.T) {
	f := newFixture()
	e := f.cart(t, account(), mode.RemoteBacked())
	ctx := context.Background()

	e.Add(ctx, line("p1", "M", 2, 100))
	e.Wait()
	out := e.Add(ctx, line("p1", "M", 5, 100))
	e.Wait()

	require.Len(t, out, 1)
	assert.Equal(t, 7, out[0].Quantity)

	rows, err := f.repo.ListCart(ctx, e.Owner().ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 7, rows[0].Quantity)
}

func TestCart_ScenarioTotals(t *testing.T) {
	f := newFixture()
	e := f.cart(t, device(), mode.LocalOnly())
	ctx := context.Background()

	require.Empty(t, e.Load(ctx))
	e.Add(ctx, line("A", "M", 1, 2500))
	out := e.Add(ctx, line("A", "M", 2, 2500))

	assert.Equal(t, 3, model.ItemCount(out))
	assert.Equal(t, int64(3*2500), model.Total(out))
}

func TestCart_NewItemsFirst(t *testing.T) {
	f := newFixture()
	e := f.cart(t, device(), mode.LocalOnly())
	ctx := context.Background()

	e.Add(ctx, line("A", "M", 1, 1))
	e.Add(ctx, line("B", "M", 1, 1))
	out := e.Add(ctx, line("A", "M", 1, 1))

	require.Len(t, out, 2)
	assert.Equal(t, "B", out[0].ProductID)
	assert.Equal(t, 2, out[1].Quantity)
}

func TestCart_LocalDurabilityUnderRemoteFailure(t *testing.T) {
	f := newFixture()
	f.repo.SetFail(errors.New("connection refused"))
	owner := account()
	ctx := context.Background()

	e := f.cart(t, owner, mode.RemoteBacked())
	out := e.Add(ctx, line("p1", "L", 1, 900))
	require.Len(t, out, 1)
	e.Wait()

	res := f.res.list()
	require.Len(t, res, 1)
	assert.Equal(t, OpUpsert, res[0].Op)
	assert.ErrorIs(t, res[0].Err, errs.ErrRemoteUnavailable)

	// a fresh engine, remote still down
	again := f.cart(t, owner, mode.RemoteBacked())
	got := again.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ProductID)
}

func TestWishlist_LocalOnlyNeverCallsRemote(t *testing.T) {
	f := newFixture()
	owner := account()
	ctx := context.Background()

	e := f.wishlist(t, owner, mode.LocalOnly())
	e.Add(ctx, model.WishlistEntry{ProductID: "p7", Name: "Hat", Price: 500})
	e.Wait()

	got := f.wishlist(t, owner, mode.LocalOnly()).Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "p7", got[0].ProductID)
	assert.Zero(t, f.repo.TotalCalls())
	assert.Empty(t, f.res.list())
}

func TestEngine_AnonymousOwnerSkipsRemote(t *testing.T) {
	f := newFixture()
	e := f.cart(t, device(), mode.RemoteBacked())
	ctx := context.Background()

	e.Add(ctx, line("p1", "M", 1, 1))
	e.Load(ctx)
	e.Wait()
	assert.Zero(t, f.repo.TotalCalls())
}

func TestCart_UpdateAndRemove(t *testing.T) {
	f := newFixture()
	e := f.cart(t, account(), mode.RemoteBacked())
	ctx := context.Background()

	e.Add(ctx, line("p1", "M", 2, 100))
	e.Add(ctx, line("p2", "S", 1, 100))
	e.Wait()

	out := e.Update(ctx, model.CartKey("p1", "M"), func(l model.CartLine) model.CartLine {
		l.Quantity = 5
		return l
	})
	require.Len(t, out, 2)
	assert.Equal(t, 5, out[1].Quantity)

	out = e.Update(ctx, model.CartKey("p2", "S"), func(l model.CartLine) model.CartLine {
		l.Quantity = 0
		return l
	})
	require.Len(t, out, 1)

	e.Wait()
	before := f.repo.TotalCalls()
	out = e.Update(ctx, "missing|X", func(l model.CartLine) model.CartLine { return l })
	require.Len(t, out, 1)
	out = e.Remove(ctx, "missing|X")
	require.Len(t, out, 1)
	e.Wait()
	assert.Equal(t, before, f.repo.TotalCalls(), "no remote call for missing keys")

	out = e.Remove(ctx, model.CartKey("p1", "M"))
	require.Empty(t, out)
	e.Wait()

	rows, err := f.repo.ListCart(ctx, e.Owner().ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCart_UpdateChangesSize(t *testing.T) {
	f := newFixture()
	e := f.cart(t, account(), mode.RemoteBacked())
	ctx := context.Background()

	e.Add(ctx, line("p1", "L", 1, 100))
	e.Add(ctx, line("p1", "M", 2, 100))
	e.Wait()
	out := e.Update(ctx, model.CartKey("p1", "M"), func(l model.CartLine) model.CartLine {
		l.Size = "L"
		return l
	})
	e.Wait()

	require.Len(t, out, 1)
	assert.Equal(t, "L", out[0].Size)
	assert.Equal(t, 3, out[0].Quantity)

	rows, err := f.repo.ListCart(ctx, e.Owner().ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Quantity)
}

func TestCart_Clear(t *testing.T) {
	f := newFixture()
	e := f.cart(t, account(), mode.RemoteBacked())
	ctx := context.Background()

	e.Add(ctx, line("p1", "M", 1, 1))
	e.Wait()
	require.Empty(t, e.Clear(ctx))
	e.Wait()

	_, err := f.cache.Get(ctx, localcache.Scope(e.Owner()), localcache.KeyCart)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, 1, f.repo.CallCount("ClearCart"))
}

func TestEngine_LoadHydratesCache(t *testing.T) {
	f := newFixture()
	owner := account()
	ctx := context.Background()

	older := line("old", "M", 1, 1)
	older.AddedAt = time.Now().Add(-time.Hour).UTC()
	newer := line("new", "M", 1, 1)
	require.NoError(t, remote.NewCart(f.repo).Upsert(ctx, owner, older))
	require.NoError(t, remote.NewCart(f.repo).Upsert(ctx, owner, newer))

	got := f.cart(t, owner, mode.RemoteBacked()).Load(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ProductID)

	cached, err := localcache.ReadList[model.CartLine](ctx, f.cache, localcache.Scope(owner), localcache.KeyCart)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestEngine_CorruptCacheIsEmpty(t *testing.T) {
	f := newFixture()
	owner := device()
	ctx := context.Background()
	require.NoError(t, f.cache.Put(ctx, localcache.Scope(owner), localcache.KeyCart, []byte("{not json")))

	core, logs := observer.New(zap.WarnLevel)
	e := New[model.CartLine](owner, Config[model.CartLine]{Kind: CartKind{}, Cache: f.cache, Logger: zap.New(core)})

	assert.Empty(t, e.Load(ctx))
	assert.Equal(t, 1, logs.FilterMessage("local cache read failed, treating as empty").Len())
}

func TestCart_UpdateIfDeclinedSendsNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.cart(t, account(), mode.RemoteBacked())
	e.Add(ctx, line("p1", "M", 1, 100))
	e.Wait()

	out, applied := e.UpdateIf(ctx, model.CartKey("p1", "M"), func(l model.CartLine) (model.CartLine, bool) {
		l.Quantity = 9
		return l, false
	})
	e.Wait()
	assert.False(t, applied)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Quantity)
	assert.Equal(t, 1, f.repo.CallCount("UpsertCart"))

	_, applied = e.UpdateIf(ctx, model.CartKey("p9", "M"), func(l model.CartLine) (model.CartLine, bool) {
		return l, true
	})
	assert.False(t, applied, "missing key")

	out, applied = e.UpdateIf(ctx, model.CartKey("p1", "M"), func(l model.CartLine) (model.CartLine, bool) {
		l.Quantity = 4
		return l, true
	})
	e.Wait()
	assert.True(t, applied)
	assert.Equal(t, 4, out[0].Quantity)
	assert.Equal(t, 2, f.repo.CallCount("UpsertCart"))
}

// quotaCache fails every write the way a full disk would.
type quotaCache struct {
	localcache.Store
}

var errQuota = errors.New("disk quota exceeded")

func (quotaCache) Put(context.Context, string, string, []byte) error { return errQuota }
func (quotaCache) Delete(context.Context, string, string) error      { return errQuota }

func TestEngine_CacheWriteFailuresDoNotFailMutations(t *testing.T) {
	f := newFixture()
	owner := account()
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	e := New[model.CartLine](owner, Config[model.CartLine]{
		Kind:     CartKind{},
		Cache:    quotaCache{Store: localcache.NewMemory()},
		Remote:   remote.NewCart(f.repo),
		Mode:     mode.RemoteBacked(),
		Logger:   zap.New(core),
		Observer: f.res.observe,
	})

	items := e.Add(ctx, line("p1", "M", 1, 100))
	items = e.Add(ctx, line("p2", "L", 2, 50))
	require.Len(t, items, 2)
	assert.Equal(t, 3, model.ItemCount(items))

	items = e.Remove(ctx, model.CartKey("p1", "M"))
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)

	assert.Empty(t, e.Clear(ctx))
	assert.Empty(t, e.Items())
	e.Wait()

	assert.Equal(t, 2, f.repo.CallCount("UpsertCart"))
	assert.Equal(t, 1, f.repo.CallCount("DeleteCart"))
	assert.Equal(t, 1, f.repo.CallCount("ClearCart"))
	for _, r := range f.res.list() {
		assert.True(t, r.OK(), "%s %s", r.Op, r.Key)
	}

	assert.Equal(t, 3, logs.FilterMessage("local cache write failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("local cache clear failed").Len())
	for _, entry := range logs.All() {
		assert.Equal(t, zap.WarnLevel, entry.Level)
	}
}

// blockingRemote holds every call until release is closed or ctx ends.
type blockingRemote struct {
	release chan struct{}
}

func (b *blockingRemote) wait(ctx context.Context) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blockingRemote) FetchAll(ctx context.Context, _ model.Owner) ([]model.CartLine, error) {
	return nil, b.wait(ctx)
}
func (b *blockingRemote) Upsert(ctx context.Context, _ model.Owner, _ model.CartLine) error {
	return b.wait(ctx)
}
func (b *blockingRemote) Delete(ctx context.Context, _ model.Owner, _ model.CartLine) error {
	return b.wait(ctx)
}
func (b *blockingRemote) DeleteAll(ctx context.Context, _ model.Owner) error { return b.wait(ctx) }

func TestEngine_AddReturnsBeforeRemote(t *testing.T) {
	br := &blockingRemote{release: make(chan struct{})}
	res := &results{}
	e := New[model.CartLine](account(), Config[model.CartLine]{
		Kind: CartKind{}, Remote: br, Mode: mode.RemoteBacked(), Observer: res.observe,
	})
	ctx, cancel := context.WithCancel(context.Background())

	out := e.Add(ctx, line("p1", "M", 1, 1))
	require.Len(t, out, 1)
	// caller cancellation does not abort the background write
	cancel()
	assert.Empty(t, res.list())

	close(br.release)
	e.Wait()
	require.Len(t, res.list(), 1)
	assert.True(t, res.list()[0].OK())
	assert.False(t, res.list()[0].Discarded)
}

func TestEngine_ResultsAfterSignOutAreDiscarded(t *testing.T) {
	br := &blockingRemote{release: make(chan struct{})}
	res := &results{}
	e := New[model.CartLine](account(), Config[model.CartLine]{
		Kind: CartKind{}, Remote: br, Mode: mode.RemoteBacked(), Observer: res.observe,
	})
	ctx := context.Background()

	e.Add(ctx, line("p1", "M", 1, 1))
	e.SignOut(ctx, device())
	close(br.release)
	e.Wait()

	require.Len(t, res.list(), 1)
	assert.True(t, res.list()[0].Discarded)
	assert.Empty(t, e.Items())
}

func TestEngine_Timeout(t *testing.T) {
	br := &blockingRemote{release: make(chan struct{})}
	res := &results{}
	e := New[model.CartLine](account(), Config[model.CartLine]{
		Kind: CartKind{}, Remote: br, Mode: mode.RemoteBacked(), Observer: res.observe,
		Timeout: 20 * time.Millisecond,
	})

	e.Add(context.Background(), line("p1", "M", 1, 1))
	e.Wait()

	require.Len(t, res.list(), 1)
	assert.ErrorIs(t, res.list()[0].Err, context.DeadlineExceeded)
}
