package persistence

import (
	"context"
	"encoding/json"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/resume-builder/internal/domain/media"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type postgresMediaRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresMediaRepo(db *pgxpool.Pool, logger logger.Logger) media.Repository {
	return &postgresMediaRepo{db: db, logger: logger}
}

const mediaColumns = "id, owner_id, kind, provider, url, thumbnail_url, status, metadata, created_at, updated_at"

func scanMedia(row pgx.Row) (*media.Media, error) {
	m := &media.Media{}
	var metadataBytes []byte

	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Kind, &m.Provider, &m.URL,
		&m.ThumbnailURL, &m.Status, &metadataBytes,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("media", "")
		}
		return nil, apperror.NewInternal("failed to scan media row", err)
	}

	if err := json.Unmarshal(metadataBytes, &m.Metadata); err != nil || m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	return m, nil
}

func (r *postgresMediaRepo) Save(ctx context.Context, m *media.Media) error {
	metadataBytes, err := json.Marshal(m.Metadata)
	if err != nil {
		return apperror.NewInternal("failed to marshal media metadata", err)
	}

	query := `
		INSERT INTO media (id, owner_id, kind, provider, url, thumbnail_url, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.Exec(ctx, query,
		m.ID, m.OwnerID, m.Kind, m.Provider, m.URL, m.ThumbnailURL, m.Status,
		metadataBytes, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return apperror.NewInternal("failed to save media", err)
	}
	return nil
}

func (r *postgresMediaRepo) Update(ctx context.Context, m *media.Media) error {
	metadataBytes, err := json.Marshal(m.Metadata)
	if err != nil {
		return apperror.NewInternal("failed to marshal media metadata", err)
	}

	query := `
		UPDATE media SET
			url = $3, thumbnail_url = $4, status = $5,
			metadata = $6, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`
	cmdTag, err := r.db.Exec(ctx, query,
		m.ID, m.OwnerID, m.URL, m.ThumbnailURL, m.Status, metadataBytes,
	)
	if err != nil {
		return apperror.NewInternal("failed to update media", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("media", m.ID.String())
	}
	return nil
}

func (r *postgresMediaRepo) FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*media.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1 AND owner_id = $2`
	m, err := scanMedia(r.db.QueryRow(ctx, query, id, ownerID))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NewNotFound("media", id.String())
	}
	return m, err
}

func (r *postgresMediaRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, kind media.Kind, limit, offset int) ([]*media.Media, error) {
	builder := psql.Select(mediaColumns).
		From("media").
		Where(sq.Eq{"owner_id": ownerID, "kind": kind}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list media by owner query", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query media by owner", err)
	}
	defer rows.Close()

	medias := make([]*media.Media, 0)
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		medias = append(medias, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating media rows", err)
	}
	return medias, nil
}
