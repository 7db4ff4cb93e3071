package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/repository"
)

// Machine applies moderation transitions.
type Machine struct {
	store   Store
	vendors repository.VendorRepository
	log     *zap.Logger
	now     func() time.Time
}

// New builds a machine. vendors may be nil when vendor approval is not served.
func New(store Store, vendors repository.VendorRepository, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{store: store, vendors: vendors, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Transition moves item id to status to on behalf of actor. A refused
// transition performs no mutation.
func (m *Machine) Transition(ctx context.Context, actor model.Actor, id uuid.UUID, to model.ModerationStatus, reason string) (model.CatalogItem, error) {
	item, err := m.store.Get(ctx, id)
	if err != nil {
		return model.CatalogItem{}, err
	}
	if err := Check(actor, item, to, reason); err != nil {
		m.log.Info("moderation refused",
			zap.String("item", id.String()),
			zap.String("from", string(item.Status)),
			zap.String("to", string(to)),
			zap.String("actor", actor.ID.String()),
			zap.Error(err))
		return item, err
	}

	ch := Change{To: to, By: actor.ID, At: m.now()}
	if to == model.StatusRejected {
		ch.Reason = reason
	}
	out, err := m.store.SetStatus(ctx, id, item.Status, ch)
	if err != nil {
		return item, conflictAsTransition(err, item.Status, to)
	}
	m.log.Info("moderation applied",
		zap.String("item", id.String()),
		zap.String("from", string(item.Status)),
		zap.String("to", string(to)),
		zap.String("actor", actor.ID.String()))
	return out, nil
}

// Approve moves a pending item to approved.
func (m *Machine) Approve(ctx context.Context, actor model.Actor, id uuid.UUID) (model.CatalogItem, error) {
	return m.Transition(ctx, actor, id, model.StatusApproved, "")
}

// Reject moves a pending item to rejected; reason must not be empty.
func (m *Machine) Reject(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (model.CatalogItem, error) {
	return m.Transition(ctx, actor, id, model.StatusRejected, reason)
}

// BulkFailure is one item a bulk operation could not move.
type BulkFailure struct {
	ID  uuid.UUID `json:"id"`
	Err error     `json:"-"`
	// Message is Err rendered for transport.
	Message string `json:"error"`
}

// BulkResult reports a non-atomic bulk operation.
type BulkResult struct {
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    []BulkFailure `json:"failed,omitempty"`
}

// BulkApprove approves each id in order. Failures do not roll back items
// already approved; they are collected in the result.
func (m *Machine) BulkApprove(ctx context.Context, actor model.Actor, ids []uuid.UUID) BulkResult {
	return m.bulk(ctx, actor, ids, model.StatusApproved, "")
}

// BulkReject rejects each id with one shared reason, reporting like BulkApprove.
func (m *Machine) BulkReject(ctx context.Context, actor model.Actor, ids []uuid.UUID, reason string) BulkResult {
	return m.bulk(ctx, actor, ids, model.StatusRejected, reason)
}

func (m *Machine) bulk(ctx context.Context, actor model.Actor, ids []uuid.UUID, to model.ModerationStatus, reason string) BulkResult {
	res := BulkResult{Requested: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			res.Failed = append(res.Failed, BulkFailure{ID: id, Err: err, Message: err.Error()})
			continue
		}
		if _, err := m.Transition(ctx, actor, id, to, reason); err != nil {
			res.Failed = append(res.Failed, BulkFailure{ID: id, Err: err, Message: err.Error()})
			continue
		}
		res.Succeeded++
	}
	m.log.Info("bulk moderation",
		zap.String("to", string(to)),
		zap.Int("requested", res.Requested),
		zap.Int("succeeded", res.Succeeded))
	return res
}

// Queue lists pending items in triage order. Only admins may read it.
func (m *Machine) Queue(ctx context.Context, actor model.Actor) ([]QueueEntry, error) {
	if actor.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: queue requires role admin", errs.ErrPermissionDenied)
	}
	items, err := m.store.ListByStatus(ctx, model.StatusPending)
	if err != nil {
		return nil, err
	}
	return Triage(items), nil
}

// SetVendorApproval toggles the vendor-wide approval flag, independent of the
// per-item lifecycle.
func (m *Machine) SetVendorApproval(ctx context.Context, actor model.Actor, vendorUserID uuid.UUID, approved bool) error {
	if actor.Role != model.RoleAdmin || !actor.Can(model.CapVendorsApprove) {
		return fmt.Errorf("%w: missing capability %s", errs.ErrPermissionDenied, model.CapVendorsApprove)
	}
	if m.vendors == nil {
		return errors.New("vendor approval not configured")
	}
	if err := m.vendors.SetApproved(ctx, vendorUserID, approved); err != nil {
		return err
	}
	m.log.Info("vendor approval",
		zap.String("vendor", vendorUserID.String()),
		zap.Bool("approved", approved),
		zap.String("actor", actor.ID.String()))
	return nil
}
