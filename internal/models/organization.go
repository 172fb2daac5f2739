package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the vetting state of a partner organization.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Organization is a climate-action organization fans can be routed to.
type Organization struct {
	ID             uuid.UUID      `json:"id"`
	OrgName        string         `json:"org_name"`
	CountryCode    string         `json:"country_code"`
	Website        *string        `json:"website,omitempty"`
	CTAURL         *string        `json:"cta_url,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	Notes          string         `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// WebsiteURL returns the website or an empty string.
func (o *Organization) WebsiteURL() string {
	if o.Website == nil {
		return ""
	}
	return *o.Website
}

// OrgOverride is an admin kill-switch for routing to an organization.
type OrgOverride struct {
	OrgID     uuid.UUID `json:"org_id"`
	Enabled   bool      `json:"enabled"`
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
