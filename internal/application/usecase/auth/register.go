package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/domain/user"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/auth"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

const minPasswordLength = 8

// SetPasswordUseCase creates the account of an email that passed OTP
// verification.
type SetPasswordUseCase struct {
	userRepo user.Repository
	otps     service.OTPStore
	jwtSvc   *auth.JWTService
	logger   logger.Logger
}

func NewSetPasswordUseCase(repo user.Repository, otps service.OTPStore, jwtSvc *auth.JWTService, log logger.Logger) *SetPasswordUseCase {
	return &SetPasswordUseCase{userRepo: repo, otps: otps, jwtSvc: jwtSvc, logger: log}
}

type SetPasswordInput struct {
	Email    string
	Password string
	Name     string
}

func (uc *SetPasswordUseCase) Execute(ctx context.Context, input SetPasswordInput) (*LoginOutput, error) {
	ctx, span := tracer.Start(ctx, "SetPasswordUseCase.Execute")
	defer span.End()

	email, err := parseEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(input.Password); err != nil {
		return nil, err
	}

	ok, err := uc.otps.ConsumeVerified(ctx, string(PurposeRegister), email)
	if err != nil {
		return nil, apperror.NewUnavailable("failed to read verification", err)
	}
	if !ok {
		return nil, apperror.NewUnauthorized("email has not been verified", nil)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal("failed to hash password", err)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		u.Name = &name
	}
	if err := uc.userRepo.Save(ctx, u); err != nil {
		span.RecordError(err)
		return nil, err
	}

	token, err := uc.jwtSvc.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		return nil, apperror.NewInternal("failed to generate token", err)
	}
	uc.logger.Info("User registered", zap.String("user_id", u.ID.String()))
	return &LoginOutput{AccessToken: token, User: u}, nil
}

// ResetPasswordUseCase sets a new password with a reset code.
type ResetPasswordUseCase struct {
	userRepo user.Repository
	otps     *OTPUseCase
	logger   logger.Logger
}

func NewResetPasswordUseCase(repo user.Repository, otps *OTPUseCase, log logger.Logger) *ResetPasswordUseCase {
	return &ResetPasswordUseCase{userRepo: repo, otps: otps, logger: log}
}

type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

func (uc *ResetPasswordUseCase) Execute(ctx context.Context, input ResetPasswordInput) error {
	ctx, span := tracer.Start(ctx, "ResetPasswordUseCase.Execute")
	defer span.End()

	email, err := parseEmail(input.Email)
	if err != nil {
		return err
	}
	if err := checkPassword(input.NewPassword); err != nil {
		return err
	}
	if err := uc.otps.check(ctx, PurposeReset, email, input.Code); err != nil {
		span.RecordError(err)
		return err
	}

	u, err := uc.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		return apperror.NewInternal("failed to hash password", err)
	}
	if err := uc.userRepo.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}
	uc.logger.Info("Password reset", zap.String("user_id", u.ID.String()))
	return nil
}

func checkPassword(p string) error {
	if len(p) < minPasswordLength {
		return apperror.NewValidation([]apperror.FieldError{{Path: "password", Message: "must be at least 8 characters"}})
	}
	return nil
}
