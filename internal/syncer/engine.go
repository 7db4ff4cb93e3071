// Package syncer keeps one owner's mutable collection consistent across the
// local cache and the remote store.
//
// Every mutation is applied in memory, persisted to the local cache and
// returned to the caller before the matching remote call is dispatched on its
// own goroutine. Remote outcomes never reach the caller; they are logged and
// handed to the optional Observer.
package syncer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/localcache"
	"github.com/and161185/storefront/internal/model"
)

// Kind describes how the engine treats one entity type.
type Kind[T any] interface {
	// Name is used in logs and results.
	Name() string
	// CacheKey is the local cache key of the collection.
	CacheKey() string
	// Key returns the natural key of an item within one owner.
	Key(T) string
	// Merge folds incoming into an existing item with the same key.
	Merge(existing, incoming T) T
	// Drop reports whether an item should be removed instead of stored.
	Drop(T) bool
}

// Remote is the per-owner remote collection.
type Remote[T any] interface {
	FetchAll(ctx context.Context, owner model.Owner) ([]T, error)
	Upsert(ctx context.Context, owner model.Owner, item T) error
	Delete(ctx context.Context, owner model.Owner, item T) error
	DeleteAll(ctx context.Context, owner model.Owner) error
}

// Mode is the process-wide remote availability decision.
type Mode interface {
	RemoteAvailable() bool
}

// Op names a remote call.
type Op string

const (
	OpFetch  Op = "fetch"
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
	OpClear  Op = "clear"
)

// Result is the outcome of one remote call.
type Result struct {
	Kind  string
	Op    Op
	Owner model.Owner
	Key   string
	Err   error
	// Discarded is set when the collection was replaced (sign-in, sign-out,
	// reload) while the call was in flight.
	Discarded bool
}

// OK reports whether the remote call succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Observer receives remote results. It is called from background goroutines
// and must be safe for concurrent use.
type Observer func(Result)

// Config wires an engine.
type Config[T any] struct {
	Kind     Kind[T]
	Cache    localcache.Store
	Remote   Remote[T]
	Mode     Mode
	Logger   *zap.Logger
	Observer Observer
	// Timeout bounds each remote call; zero means no deadline.
	Timeout time.Duration
	// KeepOnSignOut keeps the account-scoped cache entry on sign-out.
	KeepOnSignOut bool
}

// Engine is the sync engine of one collection. It is safe for concurrent use.
type Engine[T any] struct {
	kind          Kind[T]
	cache         localcache.Store
	remote        Remote[T]
	mode          Mode
	log           *zap.Logger
	observer      Observer
	timeout       time.Duration
	keepOnSignOut bool

	mu    sync.Mutex
	owner model.Owner
	items []T
	gen   uint64

	wg sync.WaitGroup
}

// New builds an engine for owner with an empty in-memory collection; call Load
// to populate it.
func New[T any](owner model.Owner, cfg Config[T]) *Engine[T] {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cache := cfg.Cache
	if cache == nil {
		cache = localcache.NewMemory()
	}
	return &Engine[T]{
		kind:          cfg.Kind,
		cache:         cache,
		remote:        cfg.Remote,
		mode:          cfg.Mode,
		log:           log.With(zap.String("kind", cfg.Kind.Name())),
		observer:      cfg.Observer,
		timeout:       cfg.Timeout,
		keepOnSignOut: cfg.KeepOnSignOut,
		owner:         owner,
	}
}

// Owner returns the current owner.
func (e *Engine[T]) Owner() model.Owner {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// Items returns a snapshot of the in-memory collection.
func (e *Engine[T]) Items() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.items)
}

// Wait blocks until every dispatched remote call has finished.
func (e *Engine[T]) Wait() { e.wg.Wait() }

// Load replaces the in-memory collection. Authenticated owners read the remote
// store when it is available and fall back to the local cache on failure;
// anonymous owners read the local cache only.
func (e *Engine[T]) Load(ctx context.Context) []T {
	e.mu.Lock()
	owner, gen := e.owner, e.gen
	e.mu.Unlock()

	items, fromRemote := e.fetch(ctx, owner)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		// replaced while loading
		return clone(e.items)
	}
	e.gen++
	e.items = items
	if fromRemote {
		e.persistLocked(ctx)
	}
	return clone(e.items)
}

func (e *Engine[T]) fetch(ctx context.Context, owner model.Owner) ([]T, bool) {
	if e.remoteEnabled(owner) {
		cctx, cancel := e.callContext(ctx)
		items, err := e.remote.FetchAll(cctx, owner)
		cancel()
		e.report(Result{Kind: e.kind.Name(), Op: OpFetch, Owner: owner, Err: err})
		if err == nil {
			return items, true
		}
		e.log.Warn("remote load failed, using local cache",
			zap.Stringer("owner", owner), zap.Error(err))
	}
	return e.readLocal(ctx, owner), false
}

// Add inserts item or merges it into the item with the same key.
func (e *Engine[T]) Add(ctx context.Context, item T) []T {
	key := e.kind.Key(item)

	e.mu.Lock()
	idx := e.indexLocked(key)
	var existing T
	merged := item
	if idx >= 0 {
		existing = e.items[idx]
		merged = e.kind.Merge(existing, item)
	}

	if e.kind.Drop(merged) {
		if idx < 0 {
			out := clone(e.items)
			e.mu.Unlock()
			return out
		}
		e.items = append(e.items[:idx:idx], e.items[idx+1:]...)
		out, owner, gen := e.commitLocked(ctx)
		e.mu.Unlock()
		e.dispatch(ctx, owner, gen, OpDelete, key, func(c context.Context) error {
			return e.remote.Delete(c, owner, existing)
		})
		return out
	}

	if idx >= 0 {
		e.items[idx] = merged
	} else {
		e.items = append([]T{merged}, e.items...)
	}
	out, owner, gen := e.commitLocked(ctx)
	e.mu.Unlock()

	e.dispatch(ctx, owner, gen, OpUpsert, key, func(c context.Context) error {
		return e.remote.Upsert(c, owner, merged)
	})
	return out
}

// Remove deletes the item with key. A missing key is a no-op.
func (e *Engine[T]) Remove(ctx context.Context, key string) []T {
	e.mu.Lock()
	idx := e.indexLocked(key)
	if idx < 0 {
		out := clone(e.items)
		e.mu.Unlock()
		return out
	}
	gone := e.items[idx]
	e.items = append(e.items[:idx:idx], e.items[idx+1:]...)
	out, owner, gen := e.commitLocked(ctx)
	e.mu.Unlock()

	e.dispatch(ctx, owner, gen, OpDelete, key, func(c context.Context) error {
		return e.remote.Delete(c, owner, gone)
	})
	return out
}

// Update applies patch to the item with key. A patched item the kind drops
// (e.g. quantity <= 0) is removed. When patch changes the natural key the old
// item is deleted and the result merged into any item already holding the new
// key. A missing key is a no-op.
func (e *Engine[T]) Update(ctx context.Context, key string, patch func(T) T) []T {
	out, _ := e.UpdateIf(ctx, key, func(cur T) (T, bool) { return patch(cur), true })
	return out
}

// UpdateIf is Update with a guard: patch runs under the engine lock and may
// decline by returning false, in which case nothing is persisted or sent.
// The bool result reports whether a patch was applied.
func (e *Engine[T]) UpdateIf(ctx context.Context, key string, patch func(T) (T, bool)) ([]T, bool) {
	e.mu.Lock()
	idx := e.indexLocked(key)
	if idx < 0 {
		out := clone(e.items)
		e.mu.Unlock()
		return out, false
	}
	cur := e.items[idx]
	next, ok := patch(cur)
	if !ok {
		out := clone(e.items)
		e.mu.Unlock()
		return out, false
	}

	if e.kind.Drop(next) {
		e.items = append(e.items[:idx:idx], e.items[idx+1:]...)
		out, owner, gen := e.commitLocked(ctx)
		e.mu.Unlock()
		e.dispatch(ctx, owner, gen, OpDelete, key, func(c context.Context) error {
			return e.remote.Delete(c, owner, cur)
		})
		return out, true
	}

	newKey := e.kind.Key(next)
	if newKey == key {
		e.items[idx] = next
		out, owner, gen := e.commitLocked(ctx)
		e.mu.Unlock()
		e.dispatch(ctx, owner, gen, OpUpsert, key, func(c context.Context) error {
			return e.remote.Upsert(c, owner, next)
		})
		return out, true
	}

	// re-keyed: fold into an existing item or take the old position
	if j := e.indexLocked(newKey); j >= 0 {
		next = e.kind.Merge(e.items[j], next)
		e.items[j] = next
		e.items = append(e.items[:idx:idx], e.items[idx+1:]...)
	} else {
		e.items[idx] = next
	}
	out, owner, gen := e.commitLocked(ctx)
	e.mu.Unlock()

	e.dispatch(ctx, owner, gen, OpDelete, key, func(c context.Context) error {
		return e.remote.Delete(c, owner, cur)
	})
	e.dispatch(ctx, owner, gen, OpUpsert, newKey, func(c context.Context) error {
		return e.remote.Upsert(c, owner, next)
	})
	return out, true
}

// Clear empties the collection locally and remotely.
func (e *Engine[T]) Clear(ctx context.Context) []T {
	e.mu.Lock()
	e.items = nil
	owner, gen := e.owner, e.gen
	if err := e.cache.Delete(ctx, localcache.Scope(owner), e.kind.CacheKey()); err != nil {
		e.log.Warn("local cache clear failed", zap.Stringer("owner", owner), zap.Error(err))
	}
	e.mu.Unlock()

	e.dispatch(ctx, owner, gen, OpClear, "", func(c context.Context) error {
		return e.remote.DeleteAll(c, owner)
	})
	return nil
}

func (e *Engine[T]) indexLocked(key string) int {
	for i, it := range e.items {
		if e.kind.Key(it) == key {
			return i
		}
	}
	return -1
}

// commitLocked persists the collection and returns what the caller and the
// remote dispatch need.
func (e *Engine[T]) commitLocked(ctx context.Context) ([]T, model.Owner, uint64) {
	e.persistLocked(ctx)
	return clone(e.items), e.owner, e.gen
}

func (e *Engine[T]) persistLocked(ctx context.Context) {
	e.writeLocal(ctx, e.owner, e.items)
}

func (e *Engine[T]) writeLocal(ctx context.Context, owner model.Owner, items []T) {
	if err := localcache.WriteList(ctx, e.cache, localcache.Scope(owner), e.kind.CacheKey(), items); err != nil {
		e.log.Warn("local cache write failed", zap.Stringer("owner", owner), zap.Error(err))
	}
}

func (e *Engine[T]) readLocal(ctx context.Context, owner model.Owner) []T {
	items, err := localcache.ReadList[T](ctx, e.cache, localcache.Scope(owner), e.kind.CacheKey())
	if err != nil {
		e.log.Warn("local cache read failed, treating as empty", zap.Stringer("owner", owner), zap.Error(err))
		return nil
	}
	return items
}

func (e *Engine[T]) remoteEnabled(owner model.Owner) bool {
	return e.remote != nil && e.mode != nil && e.mode.RemoteAvailable() && owner.Authenticated()
}

func (e *Engine[T]) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

// dispatch runs call in the background. It is skipped outright when the
// remote tier is disabled or the owner is anonymous.
func (e *Engine[T]) dispatch(ctx context.Context, owner model.Owner, gen uint64, op Op, key string, call func(context.Context) error) {
	if !e.remoteEnabled(owner) {
		return
	}
	ctx = context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		cctx, cancel := e.callContext(ctx)
		err := call(cctx)
		cancel()

		e.mu.Lock()
		discarded := e.gen != gen
		e.mu.Unlock()

		if err != nil {
			e.log.Warn("remote write failed, kept locally",
				zap.String("op", string(op)),
				zap.Stringer("owner", owner),
				zap.String("key", key),
				zap.Error(err))
		}
		e.report(Result{Kind: e.kind.Name(), Op: op, Owner: owner, Key: key, Err: err, Discarded: discarded})
	}()
}

func (e *Engine[T]) report(r Result) {
	if e.observer != nil {
		e.observer(r)
	}
}

func clone[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	return append([]T(nil), items...)
}
