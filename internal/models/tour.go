package models

import (
	"time"

	"github.com/google/uuid"
)

// Tour is a dated run of shows for one artist. StartDate and EndDate are calendar dates (UTC midnight).
type Tour struct {
	ID                 uuid.UUID `json:"id"`
	ArtistID           uuid.UUID `json:"artist_id"`
	Name               string    `json:"name"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	PreTourWindowDays  int       `json:"pre_tour_window_days"`
	PostTourWindowDays int       `json:"post_tour_window_days"`
	Enabled            bool      `json:"enabled"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// WindowStart is the first instant the tour routes fans.
func (t *Tour) WindowStart() time.Time {
	return t.StartDate.AddDate(0, 0, -t.PreTourWindowDays)
}

// WindowEnd is the first instant after the tour stops routing fans. The final calendar day is included.
func (t *Tour) WindowEnd() time.Time {
	return t.EndDate.AddDate(0, 0, t.PostTourWindowDays+1)
}

// ActiveAt reports whether now falls inside [start - pre, end + post].
func (t *Tour) ActiveAt(now time.Time) bool {
	return !now.Before(t.WindowStart()) && now.Before(t.WindowEnd())
}

// TourCountryConfig maps a country to an organization for one tour.
// A nil OrgID defers to the country-level default.
type TourCountryConfig struct {
	ID          uuid.UUID     `json:"id"`
	TourID      uuid.UUID     `json:"tour_id"`
	CountryCode string        `json:"country_code"`
	OrgID       *uuid.UUID    `json:"org_id,omitempty"`
	Enabled     bool          `json:"enabled"`
	Org         *Organization `json:"org,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TourWithCountries is a tour joined with its country overrides and their organizations.
type TourWithCountries struct {
	Tour
	Countries []TourCountryConfig `json:"countries"`
}
