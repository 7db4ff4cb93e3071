// Package identity reconciles tracked collections when the device signs in
// or out, and turns bearer tokens into actors.
package identity

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/syncer"
)

// Policy is the configured treatment of guest items on sign-in when the
// remote tier is available.
type Policy string

const (
	PolicyReplace Policy = "replace"
	PolicyUnion   Policy = "union"
)

// ParsePolicy maps a configuration value; empty means replace.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyReplace:
		return PolicyReplace, nil
	case PolicyUnion:
		return PolicyUnion, nil
	}
	return "", errors.New("unknown guest merge policy " + s)
}

// Participant is a collection that follows the owner.
type Participant interface {
	SignIn(ctx context.Context, account model.Owner, s syncer.Strategy)
	SignOut(ctx context.Context, device model.Owner)
}

type tracked[T any] struct{ e *syncer.Engine[T] }

func (t tracked[T]) SignIn(ctx context.Context, account model.Owner, s syncer.Strategy) {
	t.e.SignIn(ctx, account, s)
}

func (t tracked[T]) SignOut(ctx context.Context, device model.Owner) { t.e.SignOut(ctx, device) }

// Track adapts an engine to Participant.
func Track[T any](e *syncer.Engine[T]) Participant { return tracked[T]{e: e} }

// Transition is what a call to Handler.Transition did.
type Transition int

const (
	None Transition = iota
	SignedIn
	SignedOut
	Switched
)

func (t Transition) String() string {
	switch t {
	case SignedIn:
		return "signed-in"
	case SignedOut:
		return "signed-out"
	case Switched:
		return "switched"
	}
	return "none"
}

// Handler runs identity transitions across every participant exactly once.
type Handler struct {
	device model.Owner
	mode   syncer.Mode
	policy Policy
	log    *zap.Logger
	parts  []Participant

	mu      sync.Mutex
	current model.Owner
}

// NewHandler starts anonymous on device.
func NewHandler(device model.Owner, m syncer.Mode, policy Policy, log *zap.Logger, parts ...Participant) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if policy == "" {
		policy = PolicyReplace
	}
	return &Handler{device: device, mode: m, policy: policy, log: log, parts: parts, current: device}
}

// Current returns the owner collections are bound to.
func (h *Handler) Current() model.Owner {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Resume binds to an owner restored from a stored session without running a
// transition; the participants must already be bound to it.
func (h *Handler) Resume(o model.Owner) {
	h.mu.Lock()
	h.current = o
	h.mu.Unlock()
}

// Strategy returns the sign-in strategy for the current mode and policy.
func (h *Handler) Strategy() syncer.Strategy {
	if h.mode == nil || !h.mode.RemoteAvailable() {
		return syncer.Carry
	}
	if h.policy == PolicyUnion {
		return syncer.Union
	}
	return syncer.Replace
}

// Transition moves every participant to next. An anonymous next means sign-out
// to the handler's device owner. Repeating the current state does nothing.
func (h *Handler) Transition(ctx context.Context, next model.Owner) Transition {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.current
	switch {
	case !next.Authenticated() && !prev.Authenticated():
		return None
	case next == prev:
		return None
	case !next.Authenticated():
		h.signOutLocked(ctx)
		return SignedOut
	case !prev.Authenticated():
		h.signInLocked(ctx, next)
		return SignedIn
	default:
		h.signOutLocked(ctx)
		h.signInLocked(ctx, next)
		return Switched
	}
}

func (h *Handler) signInLocked(ctx context.Context, account model.Owner) {
	s := h.Strategy()
	h.log.Info("identity transition", zap.String("to", account.String()), zap.Stringer("strategy", s))
	for _, p := range h.parts {
		p.SignIn(ctx, account, s)
	}
	h.current = account
}

func (h *Handler) signOutLocked(ctx context.Context) {
	h.log.Info("identity transition", zap.String("to", h.device.String()))
	for _, p := range h.parts {
		p.SignOut(ctx, h.device)
	}
	h.current = h.device
}
