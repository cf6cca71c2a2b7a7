package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/resume-builder/adapters/event"
	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/domain/user"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/auth"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[uuid.UUID]*user.User{}} }

func (m *memUsers) FindByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NewNotFound("user", id.String())
	}
	c := *u
	return &c, nil
}

func (m *memUsers) Save(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.users {
		if o.Email == u.Email {
			return apperror.NewConflict("user", "email", u.Email)
		}
	}
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperror.NewNotFound("user", id.String())
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) UpdateAvatar(context.Context, uuid.UUID, string) error { return nil }
func (m *memUsers) UpdateName(context.Context, uuid.UUID, *string) error  { return nil }
func (m *memUsers) Delete(context.Context, uuid.UUID) error               { return nil }
func (m *memUsers) Stats(context.Context, time.Time) (*user.Stats, error) { return &user.Stats{}, nil }

func (m *memUsers) List(context.Context, user.ListFilter) ([]*user.User, int, error) {
	return nil, 0, nil
}

type memOTPs struct {
	mu       sync.Mutex
	codes    map[string]string
	attempts map[string]int
	verified map[string]bool
}

func newMemOTPs() *memOTPs {
	return &memOTPs{codes: map[string]string{}, attempts: map[string]int{}, verified: map[string]bool{}}
}

func (m *memOTPs) Save(_ context.Context, purpose, email, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[purpose+email] = code
	m.attempts[purpose+email] = 0
	return nil
}

func (m *memOTPs) Check(_ context.Context, purpose, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := purpose + email
	want, ok := m.codes[k]
	if !ok {
		return service.ErrOTPNotFound
	}
	if want == code {
		delete(m.codes, k)
		return nil
	}
	m.attempts[k]++
	if m.attempts[k] >= 5 {
		delete(m.codes, k)
		return service.ErrOTPTooManyAttempts
	}
	return service.ErrOTPMismatch
}

func (m *memOTPs) MarkVerified(_ context.Context, purpose, email string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verified[purpose+email] = true
	return nil
}

func (m *memOTPs) ConsumeVerified(_ context.Context, purpose, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.verified[purpose+email]
	delete(m.verified, purpose+email)
	return ok, nil
}

func (m *memOTPs) code(purpose Purpose, email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[string(purpose)+email]
}

type notifications struct {
	mu   sync.Mutex
	sent []event.NotificationPayload
}

func (n *notifications) PublishExportEvent(context.Context, event.ExportEventPayload) error { return nil }
func (n *notifications) PublishMediaEvent(context.Context, event.MediaEventPayload) error   { return nil }

func (n *notifications) PublishNotificationEvent(_ context.Context, p event.NotificationPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, p)
	return nil
}

func (n *notifications) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type authFixture struct {
	users *memUsers
	otps  *memOTPs
	notes *notifications
	jwt   *auth.JWTService
	otp   *OTPUseCase
}

func newAuthFixture() *authFixture {
	f := &authFixture{users: newMemUsers(), otps: newMemOTPs(), notes: &notifications{}, jwt: auth.NewJWTService("test-secret", time.Hour)}
	f.otp = NewOTPUseCase(f.users, f.otps, f.notes, 10*time.Minute, logger.NewNopLogger())
	return f
}

func TestRegistrationFlow(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	log := logger.NewNopLogger()

	require.NoError(t, f.otp.SendOTP(ctx, SendOTPInput{Email: " Ada@Example.com ", Purpose: PurposeRegister}))
	assert.Eventually(t, func() bool { return f.notes.count() == 1 }, time.Second, 10*time.Millisecond)

	code := f.otps.code(PurposeRegister, "ada@example.com")
	require.Len(t, code, 6)

	setPassword := NewSetPasswordUseCase(f.users, f.otps, f.jwt, log)
	_, err := setPassword.Execute(ctx, SetPasswordInput{Email: "ada@example.com", Password: "analytical"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized, "password cannot be set before verification")

	require.NoError(t, f.otp.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: code}))

	out, err := setPassword.Execute(ctx, SetPasswordInput{Email: "ada@example.com", Password: "analytical", Name: "Ada"})
	require.NoError(t, err)
	claims, err := f.jwt.ValidateToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, claims.UserID)
	assert.Equal(t, auth.RoleUser, claims.Role)

	login := NewLoginUseCase(f.users, f.jwt, log)
	_, err = login.Execute(ctx, LoginInput{Email: "ADA@example.com", Password: "analytical"})
	require.NoError(t, err)
	_, err = login.Execute(ctx, LoginInput{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	err = f.otp.SendOTP(ctx, SendOTPInput{Email: "ada@example.com", Purpose: PurposeRegister})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	require.NoError(t, f.otp.SendOTP(ctx, SendOTPInput{Email: "ada@example.com", Purpose: PurposeRegister}))

	err := f.otp.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: "12345"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	code := f.otps.code(PurposeRegister, "ada@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = f.otp.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: wrong})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestPasswordReset(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	hash, err := auth.HashPassword("old-password")
	require.NoError(t, err)
	require.NoError(t, f.users.Save(ctx, &user.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: hash, Role: user.RoleUser}))

	require.NoError(t, f.otp.SendOTP(ctx, SendOTPInput{Email: "nobody@example.com", Purpose: PurposeReset}))
	assert.Empty(t, f.otps.code(PurposeReset, "nobody@example.com"))

	require.NoError(t, f.otp.SendOTP(ctx, SendOTPInput{Email: "ada@example.com", Purpose: PurposeReset}))
	code := f.otps.code(PurposeReset, "ada@example.com")

	reset := NewResetPasswordUseCase(f.users, f.otp, logger.NewNopLogger())
	err = reset.Execute(ctx, ResetPasswordInput{Email: "ada@example.com", Code: code, NewPassword: "short"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, reset.Execute(ctx, ResetPasswordInput{Email: "ada@example.com", Code: code, NewPassword: "new-password"}))

	_, err = NewLoginUseCase(f.users, f.jwt, logger.NewNopLogger()).
		Execute(ctx, LoginInput{Email: "ada@example.com", Password: "new-password"})
	assert.NoError(t, err)

	err = reset.Execute(ctx, ResetPasswordInput{Email: "ada@example.com", Code: code, NewPassword: "another-one"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized, "codes are single use")
}
