package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"

	"github.com/and161185/storefront/internal/config"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/identity"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/moderation"
	"github.com/and161185/storefront/internal/repository"
	"github.com/and161185/storefront/internal/repository/postgres"
	"github.com/and161185/storefront/internal/syncer"
	grpcserver "github.com/and161185/storefront/internal/server/grpc"
)

// moderator is the admin surface, served either by a storefrontd over gRPC
// or by a moderation machine in this process.
type moderator interface {
	Approve(ctx context.Context, id uuid.UUID) (model.CatalogItem, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (model.CatalogItem, error)
	BulkApprove(ctx context.Context, ids []uuid.UUID) (moderation.BulkResult, error)
	BulkReject(ctx context.Context, ids []uuid.UUID, reason string) (moderation.BulkResult, error)
	Queue(ctx context.Context) ([]moderation.QueueEntry, error)
	SetVendorApproval(ctx context.Context, vendorUserID uuid.UUID, approved bool) error
}

var _ moderator = (*grpcserver.Client)(nil)

// machineModerator binds an in-process machine to the signed-in actor.
type machineModerator struct {
	m     *moderation.Machine
	actor model.Actor
}

func (l machineModerator) Approve(ctx context.Context, id uuid.UUID) (model.CatalogItem, error) {
	return l.m.Approve(ctx, l.actor, id)
}

func (l machineModerator) Reject(ctx context.Context, id uuid.UUID, reason string) (model.CatalogItem, error) {
	return l.m.Reject(ctx, l.actor, id, reason)
}

func (l machineModerator) BulkApprove(ctx context.Context, ids []uuid.UUID) (moderation.BulkResult, error) {
	return l.m.BulkApprove(ctx, l.actor, ids), nil
}

func (l machineModerator) BulkReject(ctx context.Context, ids []uuid.UUID, reason string) (moderation.BulkResult, error) {
	return l.m.BulkReject(ctx, l.actor, ids, reason), nil
}

func (l machineModerator) Queue(ctx context.Context) ([]moderation.QueueEntry, error) {
	return l.m.Queue(ctx, l.actor)
}

func (l machineModerator) SetVendorApproval(ctx context.Context, vendorUserID uuid.UUID, approved bool) error {
	return l.m.SetVendorApproval(ctx, l.actor, vendorUserID, approved)
}

// moderatorFor picks gRPC when --server is set, the remote tier directly when
// configured, and a vendor's cached catalog otherwise.
func moderatorFor(cmd *cobra.Command, rt *runtime) (moderator, error) {
	a := rt.app
	actor, err := a.actor()
	if err != nil {
		return nil, err
	}
	if rt.opts.server != "" {
		cli, cc, err := grpcserver.Dial(rt.opts.server, grpcserver.DialOptions{
			CAPath:     rt.opts.caPath,
			SkipVerify: rt.opts.skipVerify,
			Plaintext:  rt.opts.plaintext,
			Token:      a.sess.token,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, cc.Close)
		return cli, nil
	}

	var (
		store   moderation.Store
		vendors repository.VendorRepository
	)
	if a.db != nil {
		if actor, err = verifiedActor(a); err != nil {
			return nil, err
		}
		store = moderation.NewRemoteStore(postgres.NewCatalogRepo(a.db))
		vendors = postgres.NewVendorRepo(a.db)
	} else {
		// local-only: moderate one vendor's collection cached on this device
		if rt.opts.vendor == "" {
			return nil, errors.New("local-only moderation needs --vendor or --server")
		}
		vid, err := parseID(rt.opts.vendor)
		if err != nil {
			return nil, err
		}
		items := syncer.New(model.Account(vid),
			engineConfig[model.CatalogItem](a, syncer.CatalogKind{}, nil))
		items.Load(cmd.Context())
		store = moderation.NewLocalStore(items)
	}
	return machineModerator{m: moderation.New(store, vendors, a.log), actor: actor}, nil
}

// verifiedActor checks the session signature. In-process moderation of the
// remote tier has no storefrontd in front of it to do so.
func verifiedActor(a *app) (model.Actor, error) {
	if !a.sess.signedIn() {
		return model.Actor{}, errLoginRequired
	}
	if a.cfg.Server.JWTKey == "" {
		return model.Actor{}, fmt.Errorf("%w: moderating the remote tier directly needs %sJWT_KEY (or use --server)",
			errs.ErrUnauthorized, config.EnvPrefix)
	}
	return identity.NewVerifier([]byte(a.cfg.Server.JWTKey)).Verify(a.sess.token)
}

func parseIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, s := range args {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newAdminCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Moderate catalog items and vendors"}
	f := cmd.PersistentFlags()
	f.StringVar(&rt.opts.server, "server", "", "storefrontd address; empty moderates in-process")
	f.StringVar(&rt.opts.caPath, "cacert", "", "CA cert (PEM)")
	f.BoolVar(&rt.opts.skipVerify, "insecure", false, "skip cert verify (dev)")
	f.BoolVar(&rt.opts.plaintext, "plaintext", false, "no TLS (loopback dev servers)")
	f.StringVar(&rt.opts.vendor, "vendor", "", "vendor user id whose cached items to moderate (local-only)")

	// run resolves the moderator and hands it to fn.
	run := func(fn func(ctx context.Context, m moderator, args []string) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, err := moderatorFor(cmd, rt)
			if err != nil {
				return err
			}
			out, err := fn(cmd.Context(), m, args)
			if err != nil {
				return err
			}
			return rt.app.printJSON(out)
		}
	}

	queue := &cobra.Command{
		Use:   "queue",
		Short: "List pending items, most complete first",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, m moderator, _ []string) (any, error) {
			entries, err := m.Queue(ctx)
			return nonNil(entries), err
		}),
	}

	approve := &cobra.Command{
		Use:  "approve <id>",
		Args: cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, m moderator, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			return m.Approve(ctx, id)
		}),
	}

	var reason string
	reject := &cobra.Command{
		Use:  "reject <id>",
		Args: cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, m moderator, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			return m.Reject(ctx, id, reason)
		}),
	}
	reject.Flags().StringVar(&reason, "reason", "", "reason shown to the vendor")

	bulkApprove := &cobra.Command{
		Use:  "bulk-approve <id>...",
		Args: cobra.MinimumNArgs(1),
		RunE: run(func(ctx context.Context, m moderator, args []string) (any, error) {
			ids, err := parseIDs(args)
			if err != nil {
				return nil, err
			}
			return m.BulkApprove(ctx, ids)
		}),
	}

	var bulkReason string
	bulkReject := &cobra.Command{
		Use:  "bulk-reject <id>...",
		Args: cobra.MinimumNArgs(1),
		RunE: run(func(ctx context.Context, m moderator, args []string) (any, error) {
			ids, err := parseIDs(args)
			if err != nil {
				return nil, err
			}
			return m.BulkReject(ctx, ids, bulkReason)
		}),
	}
	bulkReject.Flags().StringVar(&bulkReason, "reason", "", "reason shared by every item")

	var revoke bool
	vendor := &cobra.Command{
		Use:   "vendor-approve <vendor-user-id>",
		Short: "Approve (or --revoke) a vendor account",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, m moderator, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			if err := m.SetVendorApproval(ctx, id, !revoke); err != nil {
				return nil, err
			}
			return map[string]any{"vendor": id.String(), "approved": !revoke}, nil
		}),
	}
	vendor.Flags().BoolVar(&revoke, "revoke", false, "withdraw approval")

	cmd.AddCommand(queue, approve, reject, bulkApprove, bulkReject, vendor)
	return cmd
}
