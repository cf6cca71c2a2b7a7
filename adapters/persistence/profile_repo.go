package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/internal/domain/profile"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type postgresProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresProfileRepo(db *pgxpool.Pool, logger logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: logger}
}

// GetByUserID returns an empty profile when the user never saved one.
func (r *postgresProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	query := `
		SELECT user_id, phone, location, bio, preferences, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	p := &profile.Profile{}
	var preferencesBytes []byte

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Phone,
		&p.Location,
		&p.Bio,
		&preferencesBytes,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &profile.Profile{UserID: userID, Preferences: map[string]any{}}, nil
		}
		return nil, apperror.NewInternal("failed to query profile", err)
	}

	if err := json.Unmarshal(preferencesBytes, &p.Preferences); err != nil || p.Preferences == nil {
		r.logger.Warn("Failed to unmarshal preferences", zap.String("user_id", userID.String()), zap.Error(err))
		p.Preferences = map[string]any{}
	}
	return p, nil
}

func (r *postgresProfileRepo) Upsert(ctx context.Context, p *profile.Profile) error {
	if p.Preferences == nil {
		p.Preferences = map[string]any{}
	}
	preferencesBytes, err := json.Marshal(p.Preferences)
	if err != nil {
		return apperror.NewInternal("failed to marshal preferences", err)
	}

	query := `
		INSERT INTO profiles (user_id, phone, location, bio, preferences, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			phone = EXCLUDED.phone,
			location = EXCLUDED.location,
			bio = EXCLUDED.bio,
			preferences = EXCLUDED.preferences,
			updated_at = NOW()
	`
	_, err = r.db.Exec(ctx, query,
		p.UserID,
		p.Phone,
		p.Location,
		p.Bio,
		preferencesBytes,
		p.UpdatedAt,
	)
	if err != nil {
		return apperror.NewInternal("failed to upsert profile", err)
	}
	return nil
}
