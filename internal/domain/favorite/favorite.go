package favorite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/resume-builder/internal/domain/template"
)

type Favorite struct {
	UserID     uuid.UUID          `json:"user_id"`
	TemplateID uuid.UUID          `json:"template_id"`
	Template   *template.Template `json:"template,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

type Repository interface {
	// Add is idempotent: favouriting twice keeps one row.
	Add(ctx context.Context, f *Favorite) error
	Remove(ctx context.Context, userID, templateID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Favorite, error)
}
