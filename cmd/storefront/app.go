package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/config"
	"github.com/and161185/storefront/internal/identity"
	"github.com/and161185/storefront/internal/localcache"
	"github.com/and161185/storefront/internal/migrate"
	"github.com/and161185/storefront/internal/mode"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/remote"
	"github.com/and161185/storefront/internal/repository/postgres"
	"github.com/and161185/storefront/internal/syncer"
)

// options are the global flags.
type options struct {
	configPath string
	cachePath  string
	local      bool
	logLevel   string

	server     string
	caPath     string
	skipVerify bool
	plaintext  bool
	vendor     string
}

// app is everything one CLI invocation works with: one device, at most one
// signed-in actor, one engine per collection.
type app struct {
	cfg  config.Config
	log  *zap.Logger
	out  io.Writer
	errw io.Writer
	opts *options

	cache   localcache.Store
	closers []func() error
	mode    *mode.Controller
	device  model.Owner
	sess    *session
	db      *postgres.DB

	cart     *syncer.Cart
	wishlist *syncer.Wishlist
	catalog  *syncer.Catalog
	ident    *identity.Handler

	mu     sync.Mutex
	failed int
}

func newApp(ctx context.Context, opts *options, out, errw io.Writer) (_ *app, err error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.cachePath != "" {
		cfg.Local.Path = opts.cachePath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	log, err := cfg.Log.Logger()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, out: out, errw: errw, opts: opts}
	migrate.UseLogger(log)
	defer func() {
		if err != nil {
			for i := len(a.closers) - 1; i >= 0; i-- {
				_ = a.closers[i]()
			}
		}
	}()

	sqlite, err := localcache.Open(ctx, cfg.Local.Path)
	if err != nil {
		return nil, err
	}
	a.cache = sqlite
	a.closers = append(a.closers, sqlite.Close)

	a.mode = mode.Detect(cfg.Remote)
	if opts.local {
		a.mode = mode.LocalOnly()
	}
	if a.mode.RemoteAvailable() {
		db, err := postgres.New(ctx, cfg.Remote.DSN())
		if err != nil {
			log.Warn("remote tier unusable, staying local-only", zap.Error(err))
			a.mode = mode.LocalOnly()
		} else {
			a.db = db
			a.closers = append(a.closers, func() error { db.Close(); return nil })
		}
	}

	if a.device, err = deviceOwner(ctx, a.cache); err != nil {
		return nil, err
	}
	if a.sess, err = loadSession(ctx, a.cache); err != nil {
		return nil, err
	}
	owner := a.device
	if a.sess.signedIn() {
		owner = a.sess.actor.Owner()
	}

	a.cart = syncer.New(owner, engineConfig[model.CartLine](a, syncer.CartKind{}, a.cartRemote()))
	a.wishlist = syncer.New(owner, engineConfig[model.WishlistEntry](a, syncer.WishlistKind{}, a.wishlistRemote()))
	// vendor items outlive the session; only explicit deletes remove them
	catalogCfg := engineConfig[model.CatalogItem](a, syncer.CatalogKind{}, a.catalogRemote())
	catalogCfg.KeepOnSignOut = true
	a.catalog = syncer.New(owner, catalogCfg)

	policy, err := identity.ParsePolicy(cfg.Sync.GuestMerge)
	if err != nil {
		return nil, err
	}
	a.ident = identity.NewHandler(a.device, a.mode, policy, log,
		identity.Track(a.cart), identity.Track(a.wishlist), identity.Track(a.catalog))
	if a.sess.signedIn() {
		a.ident.Resume(owner)
	}
	return a, nil
}

func engineConfig[T any](a *app, kind syncer.Kind[T], r syncer.Remote[T]) syncer.Config[T] {
	return syncer.Config[T]{
		Kind:     kind,
		Cache:    a.cache,
		Remote:   r,
		Mode:     a.mode,
		Logger:   a.log,
		Observer: a.observe,
		Timeout:  a.cfg.Sync.RemoteTimeout,
	}
}

// The remote adapters stay nil interfaces when no database is configured.
func (a *app) cartRemote() syncer.Remote[model.CartLine] {
	if a.db == nil {
		return nil
	}
	return remote.NewCart(postgres.NewCartRepo(a.db))
}

func (a *app) wishlistRemote() syncer.Remote[model.WishlistEntry] {
	if a.db == nil {
		return nil
	}
	return remote.NewWishlist(postgres.NewWishlistRepo(a.db))
}

func (a *app) catalogRemote() syncer.Remote[model.CatalogItem] {
	if a.db == nil {
		return nil
	}
	return remote.NewCatalog(postgres.NewCatalogRepo(a.db))
}

func (a *app) observe(r syncer.Result) {
	if r.OK() || r.Discarded {
		return
	}
	a.mu.Lock()
	a.failed++
	a.mu.Unlock()
}

// actor returns the signed-in actor or ErrUnauthorized wrapped with a hint.
func (a *app) actor() (model.Actor, error) {
	if !a.sess.signedIn() {
		return model.Actor{}, errLoginRequired
	}
	return a.sess.actor, nil
}

// close drains in-flight remote calls and releases resources.
func (a *app) close() error {
	a.cart.Wait()
	a.wishlist.Wait()
	a.catalog.Wait()

	a.mu.Lock()
	failed := a.failed
	a.mu.Unlock()
	if failed > 0 {
		fmt.Fprintf(a.errw, "note: %d remote call(s) failed; changes are kept on this device\n", failed)
	}

	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	_ = a.log.Sync()
	return first
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
