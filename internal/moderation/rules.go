// Package moderation implements the review lifecycle of vendor catalog items:
// draft, pending, approved, rejected. Only approved and active items are
// visible to shoppers.
package moderation

import (
	"fmt"
	"strings"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
)

type rule struct {
	from, to   model.ModerationStatus
	role       model.Role
	capability model.Capability
	ownerOnly  bool
	needReason bool
}

// Approved and rejected are terminal; no rule leaves them.
var rules = []rule{
	{from: model.StatusNone, to: model.StatusDraft, role: model.RoleVendor},
	{from: model.StatusNone, to: model.StatusPending, role: model.RoleVendor},
	{from: model.StatusDraft, to: model.StatusPending, role: model.RoleVendor, ownerOnly: true},
	{from: model.StatusPending, to: model.StatusApproved, role: model.RoleAdmin, capability: model.CapProductsApprove},
	{from: model.StatusPending, to: model.StatusRejected, role: model.RoleAdmin, capability: model.CapProductsReject, needReason: true},
}

func lookup(from, to model.ModerationStatus) (rule, bool) {
	for _, r := range rules {
		if r.from == from && r.to == to {
			return r, true
		}
	}
	return rule{}, false
}

// Check reports whether actor may move item to status to. The zero item
// (StatusNone) stands for creation. Errors match errs.ErrInvalidTransition,
// errs.ErrPermissionDenied or errs.ErrValidation.
func Check(actor model.Actor, item model.CatalogItem, to model.ModerationStatus, reason string) error {
	r, ok := lookup(item.Status, to)
	if !ok {
		return fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, label(item.Status), label(to))
	}
	if actor.Role != r.role {
		return fmt.Errorf("%w: %s -> %s requires role %s", errs.ErrPermissionDenied, label(item.Status), to, r.role)
	}
	if r.capability != "" && !actor.Can(r.capability) {
		return fmt.Errorf("%w: missing capability %s", errs.ErrPermissionDenied, r.capability)
	}
	if r.ownerOnly && actor.ID != item.VendorID {
		return fmt.Errorf("%w: item belongs to another vendor", errs.ErrPermissionDenied)
	}
	if r.needReason && strings.TrimSpace(reason) == "" {
		return errs.NewValidation("reason")
	}
	return nil
}

// Allowed lists the statuses actor may move item to.
func Allowed(actor model.Actor, item model.CatalogItem) []model.ModerationStatus {
	var out []model.ModerationStatus
	for _, r := range rules {
		if r.from != item.Status {
			continue
		}
		reason := ""
		if r.needReason {
			reason = "-"
		}
		if Check(actor, item, r.to, reason) == nil {
			out = append(out, r.to)
		}
	}
	return out
}

func label(s model.ModerationStatus) string {
	if s == model.StatusNone {
		return "new"
	}
	return string(s)
}
