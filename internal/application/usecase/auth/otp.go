package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/adapters/event"
	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/domain/user"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/auth"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

// Purpose separates registration codes from password reset codes.
type Purpose string

const (
	PurposeRegister Purpose = "register"
	PurposeReset    Purpose = "reset"
)

const otpDigits = 6

// verifiedWindow is how long a verified email may complete registration.
const verifiedWindow = 30 * time.Minute

// OTPUseCase issues and checks one time codes sent by email.
type OTPUseCase struct {
	userRepo  user.Repository
	otps      service.OTPStore
	publisher service.EventPublisher
	ttl       time.Duration
	logger    logger.Logger
}

func NewOTPUseCase(repo user.Repository, otps service.OTPStore, p service.EventPublisher, ttl time.Duration, log logger.Logger) *OTPUseCase {
	return &OTPUseCase{userRepo: repo, otps: otps, publisher: p, ttl: ttl, logger: log}
}

type SendOTPInput struct {
	Email   string
	Purpose Purpose
}

// SendOTP stores a fresh code and publishes the mail notification.
// Registration refuses known emails. Reset requests for unknown emails
// succeed silently so the endpoint cannot be used to probe accounts.
func (uc *OTPUseCase) SendOTP(ctx context.Context, input SendOTPInput) error {
	ctx, span := tracer.Start(ctx, "OTPUseCase.SendOTP")
	defer span.End()

	email, err := parseEmail(input.Email)
	if err != nil {
		return err
	}

	_, err = uc.userRepo.FindByEmail(ctx, email)
	exists := err == nil
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		span.RecordError(err)
		return err
	}

	notification := event.NotificationRegisterOTP
	switch input.Purpose {
	case PurposeRegister:
		if exists {
			return apperror.NewConflict("user", "email", email)
		}
	case PurposeReset:
		if !exists {
			uc.logger.Info("Password reset requested for unknown email")
			return nil
		}
		notification = event.NotificationResetOTP
	default:
		return apperror.NewInvalidInput("unknown otp purpose", nil)
	}

	code, err := auth.GenerateOTP(otpDigits)
	if err != nil {
		return apperror.NewInternal("failed to generate code", err)
	}
	if err := uc.otps.Save(ctx, string(input.Purpose), email, code, uc.ttl); err != nil {
		span.RecordError(err)
		return apperror.NewUnavailable("failed to store code", err)
	}

	payload := event.NotificationPayload{
		Type:  notification,
		Email: email,
		Data: map[string]string{
			"code":       code,
			"expires_in": uc.ttl.String(),
		},
	}
	go func() {
		if err := uc.publisher.PublishNotificationEvent(context.Background(), payload); err != nil {
			uc.logger.Error("Failed to publish OTP notification", err, zap.String("type", string(notification)))
		}
	}()
	return nil
}

type VerifyOTPInput struct {
	Email   string
	Code    string
	Purpose Purpose
}

// VerifyOTP checks a registration code and opens the window in which the
// email may set its password.
func (uc *OTPUseCase) VerifyOTP(ctx context.Context, input VerifyOTPInput) error {
	email, err := parseEmail(input.Email)
	if err != nil {
		return err
	}
	if input.Purpose == "" {
		input.Purpose = PurposeRegister
	}
	if err := uc.check(ctx, input.Purpose, email, input.Code); err != nil {
		return err
	}
	if err := uc.otps.MarkVerified(ctx, string(input.Purpose), email, verifiedWindow); err != nil {
		return apperror.NewUnavailable("failed to store verification", err)
	}
	return nil
}

func (uc *OTPUseCase) check(ctx context.Context, purpose Purpose, email, code string) error {
	code = strings.TrimSpace(code)
	if len(code) != otpDigits {
		return apperror.NewInvalidInput("code must have 6 digits", nil)
	}
	err := uc.otps.Check(ctx, string(purpose), email, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrOTPMismatch),
		errors.Is(err, service.ErrOTPNotFound),
		errors.Is(err, service.ErrOTPTooManyAttempts):
		return apperror.NewUnauthorized(err.Error(), err)
	}
	return apperror.NewUnavailable("failed to check code", err)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func parseEmail(s string) (string, error) {
	email := normalizeEmail(s)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.NewInvalidInput("a valid email is required", err)
	}
	return email, nil
}
