package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/khoahotran/resume-builder/internal/domain/media"
)

// ListMediaUseCase lists the uploads of one user, newest first.
type ListMediaUseCase struct {
	mediaRepo media.Repository
}

func NewListMediaUseCase(r media.Repository) *ListMediaUseCase {
	return &ListMediaUseCase{mediaRepo: r}
}

type ListMediaInput struct {
	OwnerID       uuid.UUID
	Kind          media.Kind
	Limit, Offset int
}
type ListMediaOutput struct{ Medias []*media.Media }

func (uc *ListMediaUseCase) Execute(ctx context.Context, in ListMediaInput) (*ListMediaOutput, error) {
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 30
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	medias, err := uc.mediaRepo.ListByOwner(ctx, in.OwnerID, in.Kind, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("list media failed: %w", err)
	}
	return &ListMediaOutput{Medias: medias}, nil
}
