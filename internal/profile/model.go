package profile

import (
	"context"
	"time"
)

// Profile is the read model the matching subsystem consumes: what a user can
// do, where they are, and whether they are active at all.
type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Bio            string    `json:"bio,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Skills         []string  `json:"skills"`
	Categories     []string  `json:"categories"`
	City           string    `json:"city,omitempty"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Directory is the profile lookup consumed by the recommendation engine.
type Directory interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}
