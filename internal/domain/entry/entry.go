// Package entry is the persisted form of resume sections. List sections keep
// one entry per item (the entry id is the item id); every other section
// keeps a single entry per user.
package entry

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Entry struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	SectionID string         `json:"section_id"`
	Position  int            `json:"position"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, e *Entry) error
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*Entry, error)
	ListBySection(ctx context.Context, userID uuid.UUID, sectionID string) ([]*Entry, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Entry, error)
	// ReplaceSection makes entries the full content of the section, in order.
	ReplaceSection(ctx context.Context, userID uuid.UUID, sectionID string, entries []*Entry) error
	NextPosition(ctx context.Context, userID uuid.UUID, sectionID string) (int, error)
	CountBySection(ctx context.Context) (map[string]int, error)
}
