package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Template is a resume design users can pick and favourite. Customization
// holds the preview settings it starts from.
type Template struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	ThumbnailURL  *string        `json:"thumbnail_url"`
	Customization map[string]any `json:"customization"`
	IsActive      bool           `json:"is_active"`
	IsPremium     bool           `json:"is_premium"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

var ErrInvalidTemplate = errors.New("invalid template")

func (t *Template) Validate() error {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if len(name) > 100 {
		return fmt.Errorf("%w: name must be at most 100 characters", ErrInvalidTemplate)
	}
	if len(t.Description) > 1000 {
		return fmt.Errorf("%w: description must be at most 1000 characters", ErrInvalidTemplate)
	}
	return nil
}

// Patch carries the fields of a partial update; nil fields are left alone.
type Patch struct {
	Name          *string
	Description   *string
	Category      *string
	ThumbnailURL  *string
	Customization map[string]any
	IsActive      *bool
	IsPremium     *bool
}

// Apply copies the provided fields onto t.
func (p Patch) Apply(t *Template) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.ThumbnailURL != nil {
		t.ThumbnailURL = p.ThumbnailURL
	}
	if p.Customization != nil {
		t.Customization = p.Customization
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if p.IsPremium != nil {
		t.IsPremium = *p.IsPremium
	}
}

type FavoriteCount struct {
	TemplateID uuid.UUID `json:"template_id"`
	Name       string    `json:"name"`
	Favorites  int       `json:"favorites"`
}

type Stats struct {
	Total     int             `json:"total"`
	Active    int             `json:"active"`
	Premium   int             `json:"premium"`
	Favorites []FavoriteCount `json:"favorites"`
}

type Repository interface {
	Save(ctx context.Context, t *Template) error
	Update(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Template, error)
	List(ctx context.Context, activeOnly bool) ([]*Template, error)
	Stats(ctx context.Context) (*Stats, error)
}
