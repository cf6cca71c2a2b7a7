package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/resume-builder/internal/domain/export"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type postgresExportRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresExportRepo(db *pgxpool.Pool, logger logger.Logger) export.Repository {
	return &postgresExportRepo{db: db, logger: logger}
}

const exportColumns = "id, user_id, format, status, file_name, url, pages, size_bytes, error, created_at, updated_at"

func scanJob(row pgx.Row) (*export.Job, error) {
	j := &export.Job{}
	err := row.Scan(
		&j.ID, &j.UserID, &j.Format, &j.Status, &j.FileName, &j.URL,
		&j.Pages, &j.SizeBytes, &j.Error, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("export", "")
		}
		return nil, apperror.NewInternal("failed to scan export row", err)
	}
	return j, nil
}

func (r *postgresExportRepo) Save(ctx context.Context, j *export.Job) error {
	query := `
		INSERT INTO export_jobs (id, user_id, format, status, file_name, url, pages, size_bytes, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		j.ID, j.UserID, j.Format, j.Status, j.FileName, j.URL,
		j.Pages, j.SizeBytes, j.Error, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return apperror.NewInternal("failed to save export", err)
	}
	return nil
}

func (r *postgresExportRepo) Update(ctx context.Context, j *export.Job) error {
	query := `
		UPDATE export_jobs SET
			status = $2, url = $3, pages = $4, size_bytes = $5, error = $6, updated_at = NOW()
		WHERE id = $1
	`
	cmdTag, err := r.db.Exec(ctx, query, j.ID, j.Status, j.URL, j.Pages, j.SizeBytes, j.Error)
	if err != nil {
		return apperror.NewInternal("failed to update export", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("export", j.ID.String())
	}
	return nil
}

func (r *postgresExportRepo) FindByID(ctx context.Context, id uuid.UUID) (*export.Job, error) {
	query := `SELECT ` + exportColumns + ` FROM export_jobs WHERE id = $1`
	j, err := scanJob(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NewNotFound("export", id.String())
	}
	return j, err
}

func (r *postgresExportRepo) FindForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*export.Job, error) {
	query := `SELECT ` + exportColumns + ` FROM export_jobs WHERE id = $1 AND user_id = $2`
	j, err := scanJob(r.db.QueryRow(ctx, query, id, userID))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NewNotFound("export", id.String())
	}
	return j, err
}

func (r *postgresExportRepo) CountByStatus(ctx context.Context) (map[export.Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM export_jobs GROUP BY status`)
	if err != nil {
		return nil, apperror.NewInternal("failed to count exports", err)
	}
	defer rows.Close()

	counts := make(map[export.Status]int)
	for rows.Next() {
		var st export.Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, apperror.NewInternal("failed to scan export count", err)
		}
		counts[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating export counts", err)
	}
	return counts, nil
}
