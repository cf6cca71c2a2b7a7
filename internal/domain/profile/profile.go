package profile

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Profile is the account level information of a user, kept apart from the
// resume sections so it survives resume resets.
type Profile struct {
	UserID      uuid.UUID      `json:"user_id"`
	Phone       string         `json:"phone"`
	Location    string         `json:"location"`
	Bio         string         `json:"bio"`
	Preferences map[string]any `json:"preferences"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}
