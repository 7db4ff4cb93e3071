package syncer

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/localcache"
	"github.com/and161185/storefront/internal/model"
)

// Strategy decides what happens to the guest collection on sign-in.
type Strategy int

const (
	// Replace loads the account collection and ignores guest items.
	Replace Strategy = iota
	// Union loads the account collection, merges guest items into it with the
	// kind's merge rule and upserts the merged items remotely.
	Union
	// Carry keeps working local-only: guest items move into the account scope
	// of the local cache.
	Carry
)

func (s Strategy) String() string {
	switch s {
	case Replace:
		return "replace"
	case Union:
		return "union"
	case Carry:
		return "carry"
	}
	return "unknown"
}

// SignIn rebinds the engine to account and reconciles the guest collection
// according to strategy. Remote calls still in flight for the previous owner
// are reported as discarded.
func (e *Engine[T]) SignIn(ctx context.Context, account model.Owner, strategy Strategy) []T {
	e.mu.Lock()
	guestOwner := e.owner
	guest := clone(e.items)
	e.owner = account
	e.items = nil
	e.gen++
	e.mu.Unlock()

	e.log.Info("sign-in",
		zap.Stringer("from", guestOwner),
		zap.Stringer("to", account),
		zap.Stringer("strategy", strategy),
		zap.Int("guest_items", len(guest)))

	switch strategy {
	case Carry:
		e.mu.Lock()
		e.items = e.readLocal(ctx, account)
		e.mergeAllLocked(guest)
		e.persistLocked(ctx)
		out := clone(e.items)
		e.mu.Unlock()
		e.dropScope(ctx, guestOwner)
		return out

	case Union:
		e.Load(ctx)
		var out []T
		for _, it := range guest {
			out = e.Add(ctx, it)
		}
		e.dropScope(ctx, guestOwner)
		if out == nil {
			out = e.Items()
		}
		return out

	default:
		return e.Load(ctx)
	}
}

// SignOut rebinds the engine to the anonymous device owner. The in-memory
// collection is emptied and, unless the engine keeps it, the account-scoped
// cache entry is purged together with the device-scoped one.
func (e *Engine[T]) SignOut(ctx context.Context, device model.Owner) []T {
	e.mu.Lock()
	prev := e.owner
	e.owner = device
	e.items = nil
	e.gen++
	e.mu.Unlock()

	e.log.Info("sign-out", zap.Stringer("from", prev), zap.Stringer("to", device))

	if !e.keepOnSignOut {
		e.dropScope(ctx, prev)
		e.dropScope(ctx, device)
	}
	return nil
}

func (e *Engine[T]) mergeAllLocked(incoming []T) {
	for _, it := range incoming {
		key := e.kind.Key(it)
		if i := e.indexLocked(key); i >= 0 {
			e.items[i] = e.kind.Merge(e.items[i], it)
			continue
		}
		e.items = append(e.items, it)
	}
}

func (e *Engine[T]) dropScope(ctx context.Context, owner model.Owner) {
	if owner.IsZero() {
		return
	}
	if err := e.cache.Delete(ctx, localcache.Scope(owner), e.kind.CacheKey()); err != nil {
		e.log.Warn("local cache purge failed", zap.Stringer("owner", owner), zap.Error(err))
	}
}
