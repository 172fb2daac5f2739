package models

import (
	"time"

	"github.com/google/uuid"
)

// Artist is the identity anchor for a fan link (/a/{handle}).
type Artist struct {
	ID        uuid.UUID `json:"id"`
	Handle    string    `json:"handle"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
