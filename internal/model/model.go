// Package model defines domain entities shared by the sync engine, the remote tier and moderation.
package model

import (
	"slices"

	"github.com/gofrs/uuid/v5"
)

// OwnerKind tells an anonymous device identity apart from an authenticated account.
type OwnerKind int

const (
	// OwnerDevice is an anonymous, device-scoped identity with no network presence.
	OwnerDevice OwnerKind = iota
	// OwnerAccount is an authenticated account identity.
	OwnerAccount
)

// Owner is the identity a tracked collection belongs to.
type Owner struct {
	Kind OwnerKind
	ID   uuid.UUID
}

// Device returns an anonymous owner for the given device id.
func Device(id uuid.UUID) Owner { return Owner{Kind: OwnerDevice, ID: id} }

// Account returns an authenticated owner for the given account id.
func Account(id uuid.UUID) Owner { return Owner{Kind: OwnerAccount, ID: id} }

// Authenticated reports whether the owner is an account identity.
func (o Owner) Authenticated() bool { return o.Kind == OwnerAccount && o.ID != uuid.Nil }

// IsZero reports whether the owner was never set.
func (o Owner) IsZero() bool { return o.ID == uuid.Nil }

func (o Owner) String() string {
	if o.Kind == OwnerAccount {
		return "account:" + o.ID.String()
	}
	return "device:" + o.ID.String()
}

// Role is the tenant an actor belongs to.
type Role string

const (
	RoleShopper Role = "shopper"
	RoleVendor  Role = "vendor"
	RoleAdmin   Role = "admin"
)

// Capability is a fine-grained admin permission carried in the bearer token.
type Capability string

const (
	CapProductsApprove Capability = "products:approve"
	CapProductsReject  Capability = "products:reject"
	CapVendorsApprove  Capability = "vendors:approve"
)

// Actor is whoever invokes an operation: a vendor, an admin or a shopper.
type Actor struct {
	ID           uuid.UUID
	Role         Role
	Capabilities []Capability
}

// Can reports whether the actor holds the capability.
func (a Actor) Can(c Capability) bool {
	return slices.Contains(a.Capabilities, c)
}

// Owner returns the account owner matching the actor.
func (a Actor) Owner() Owner { return Account(a.ID) }
