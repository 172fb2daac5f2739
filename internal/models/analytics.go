package models

import (
	"time"

	"github.com/google/uuid"
)

// RouterAnalytics is one append-only row per routing decision. FallbackRef is empty on success.
type RouterAnalytics struct {
	ID             uuid.UUID  `json:"id"`
	ArtistHandle   string     `json:"artist_handle"`
	CountryCode    string     `json:"country_code,omitempty"`
	OrgID          *uuid.UUID `json:"org_id,omitempty"`
	TourID         *uuid.UUID `json:"tour_id,omitempty"`
	ReasonCode     string     `json:"reason_code"`
	DestinationURL string     `json:"destination_url"`
	FallbackRef    string     `json:"fallback_ref,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

// FallbackCount is one diagnostics row: how often a fallback ref was hit.
type FallbackCount struct {
	FallbackRef string    `json:"fallback_ref"`
	Count       int       `json:"count"`
	LastSeen    time.Time `json:"last_seen"`
}
