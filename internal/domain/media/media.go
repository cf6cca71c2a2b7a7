package media

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type MediaStatus string

const (
	StatusPending MediaStatus = "pending"
	StatusReady   MediaStatus = "ready"
	StatusError   MediaStatus = "error"
)

// Kind says what an uploaded image is used for.
type Kind string

const (
	KindAvatar            Kind = "avatar"
	KindTemplateThumbnail Kind = "template_thumbnail"
)

type Media struct {
	ID           uuid.UUID      `json:"id"`
	OwnerID      uuid.UUID      `json:"owner_id"`
	Kind         Kind           `json:"kind"`
	Provider     string         `json:"provider"`
	URL          string         `json:"url"`
	ThumbnailURL *string        `json:"thumbnail_url"`
	Status       MediaStatus    `json:"status"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, media *Media) error
	Update(ctx context.Context, media *Media) error
	FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*Media, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, kind Kind, limit, offset int) ([]*Media, error)
}
