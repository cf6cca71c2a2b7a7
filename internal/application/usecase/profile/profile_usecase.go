package profile

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/resume-builder/internal/domain/profile"
	"github.com/khoahotran/resume-builder/internal/domain/user"
	"github.com/khoahotran/resume-builder/pkg/apperror"
)

type ProfileUseCase struct {
	profileRepo profile.Repository
	userRepo    user.Repository
}

func NewProfileUseCase(repo profile.Repository, userRepo user.Repository) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: repo,
		userRepo:    userRepo,
	}
}

type GetProfileInput struct {
	UserID uuid.UUID
}

type GetProfileOutput struct {
	User    *user.User
	Profile *profile.Profile
}

func (uc *ProfileUseCase) ExecuteGetProfile(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	u, err := uc.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	p, err := uc.profileRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return &GetProfileOutput{User: u, Profile: p}, nil
}

// UpdateProfileInput replaces the profile. Name is optional; nil keeps the
// current display name and an empty string clears it.
type UpdateProfileInput struct {
	UserID      uuid.UUID
	Name        *string
	Phone       string
	Location    string
	Bio         string
	Preferences map[string]any
}

type UpdateProfileOutput = GetProfileOutput

func (uc *ProfileUseCase) ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput) (*UpdateProfileOutput, error) {
	var fields []apperror.FieldError
	if len(input.Bio) > 2000 {
		fields = append(fields, apperror.FieldError{Path: "bio", Message: "must be at most 2000 characters"})
	}
	if len(input.Phone) > 30 {
		fields = append(fields, apperror.FieldError{Path: "phone", Message: "must be at most 30 characters"})
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	u, err := uc.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		var np *string
		if name != "" {
			np = &name
		}
		if err := uc.userRepo.UpdateName(ctx, u.ID, np); err != nil {
			return nil, err
		}
		u.Name = np
	}

	p := &profile.Profile{
		UserID:      input.UserID,
		Phone:       strings.TrimSpace(input.Phone),
		Location:    strings.TrimSpace(input.Location),
		Bio:         strings.TrimSpace(input.Bio),
		Preferences: input.Preferences,
		UpdatedAt:   time.Now().UTC(),
	}
	if p.Preferences == nil {
		p.Preferences = map[string]any{}
	}
	if err := uc.profileRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return &UpdateProfileOutput{User: u, Profile: p}, nil
}
