package models

import (
	"time"

	"github.com/google/uuid"
)

// CountryDefault maps a country to its default organization. A nil EffectiveFrom marks the permanent default.
type CountryDefault struct {
	ID            uuid.UUID  `json:"id"`
	CountryCode   string     `json:"country_code"`
	OrgID         uuid.UUID  `json:"org_id"`
	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Permanent reports whether the row is the undated default.
func (d *CountryDefault) Permanent() bool {
	return d.EffectiveFrom == nil
}

// CoversDay reports whether a dated row applies on day. Open-ended EffectiveTo runs forever.
func (d *CountryDefault) CoversDay(day time.Time) bool {
	if d.EffectiveFrom == nil {
		return false
	}
	if day.Before(*d.EffectiveFrom) {
		return false
	}
	return d.EffectiveTo == nil || !day.After(*d.EffectiveTo)
}
