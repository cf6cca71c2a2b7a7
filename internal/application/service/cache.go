package service

import (
	"context"
	"errors"
	"time"
)

var (
	ErrOTPNotFound        = errors.New("code expired or was never requested")
	ErrOTPMismatch        = errors.New("code does not match")
	ErrOTPTooManyAttempts = errors.New("too many attempts, request a new code")
)

// OTPStore keeps one pending code per purpose and email. Check burns one
// attempt per call and deletes the code once it matches or attempts run out.
type OTPStore interface {
	Save(ctx context.Context, purpose, email, code string, ttl time.Duration) error
	Check(ctx context.Context, purpose, email, code string) error
	MarkVerified(ctx context.Context, purpose, email string, ttl time.Duration) error
	ConsumeVerified(ctx context.Context, purpose, email string) (bool, error)
}

// Locker guards work that must not run twice at once. Acquire reports
// ok == false when someone else holds the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// PageCache holds rendered pages.
type PageCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, page string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
