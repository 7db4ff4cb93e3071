package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// ModerationStatus is the review state of a vendor catalog item.
type ModerationStatus string

const (
	// StatusNone marks an item that does not exist yet (creation transitions).
	StatusNone     ModerationStatus = ""
	StatusDraft    ModerationStatus = "draft"
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

// Valid reports whether s is one of the persisted statuses.
func (s ModerationStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CatalogItem is a vendor-submitted product. VendorID is the vendor's account id.
type CatalogItem struct {
	ID              uuid.UUID        `json:"id"`
	VendorID        uuid.UUID        `json:"vendorId"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Price           int64            `json:"price"`
	OriginalPrice   *int64           `json:"originalPrice,omitempty"`
	Category        string           `json:"category"`
	Images          []string         `json:"images"`
	Sizes           []string         `json:"sizes"`
	Status          ModerationStatus `json:"status"`
	IsActive        bool             `json:"isActive"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	ReviewedBy      uuid.UUID        `json:"reviewedBy,omitempty"`
	ReviewedAt      time.Time        `json:"reviewedAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Visible reports whether shoppers may see the item.
func (c CatalogItem) Visible() bool {
	return c.Status == StatusApproved && c.IsActive
}

// Vendor is the coarse, vendor-wide approval record.
type Vendor struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	BusinessName string
	IsApproved   bool
	CreatedAt    time.Time
}
