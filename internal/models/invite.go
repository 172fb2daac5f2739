package models

import (
	"time"

	"github.com/google/uuid"
)

// Invite lets an admin onboard an artist by email. Accepting it creates the artist and their user.
type Invite struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	ArtistName string     `json:"artist_name"`
	Token      string     `json:"-"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Usable reports whether the invite can still be accepted at now.
func (i *Invite) Usable(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}
