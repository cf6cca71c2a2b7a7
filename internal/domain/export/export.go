package export

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/resume-builder/internal/render/document"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Job is one asynchronous export request.
type Job struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Format    document.Format `json:"format"`
	Status    Status          `json:"status"`
	FileName  string          `json:"file_name"`
	URL       *string         `json:"url"`
	Pages     int             `json:"pages"`
	SizeBytes int64           `json:"size_bytes"`
	Error     *string         `json:"error"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, j *Job) error
	Update(ctx context.Context, j *Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)
	FindForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*Job, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
