package favorite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/resume-builder/internal/domain/favorite"
	"github.com/khoahotran/resume-builder/internal/domain/template"
	"github.com/khoahotran/resume-builder/pkg/apperror"
)

type FavoriteUseCase struct {
	repo         favorite.Repository
	templateRepo template.Repository
}

func NewFavoriteUseCase(r favorite.Repository, tr template.Repository) *FavoriteUseCase {
	return &FavoriteUseCase{repo: r, templateRepo: tr}
}

func (uc *FavoriteUseCase) ListFavorites(ctx context.Context, userID uuid.UUID) ([]*favorite.Favorite, error) {
	return uc.repo.ListByUser(ctx, userID)
}

type AddFavoriteInput struct {
	UserID     uuid.UUID
	TemplateID uuid.UUID
}

// AddFavorite only accepts active templates. Adding twice is not an error.
func (uc *FavoriteUseCase) AddFavorite(ctx context.Context, in AddFavoriteInput) (*favorite.Favorite, error) {
	t, err := uc.templateRepo.FindByID(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, apperror.NewNotFound("template", in.TemplateID.String())
	}
	f := &favorite.Favorite{
		UserID:     in.UserID,
		TemplateID: in.TemplateID,
		Template:   t,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.repo.Add(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (uc *FavoriteUseCase) RemoveFavorite(ctx context.Context, userID, templateID uuid.UUID) error {
	return uc.repo.Remove(ctx, userID, templateID)
}
