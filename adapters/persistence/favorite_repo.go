package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/resume-builder/internal/domain/favorite"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type postgresFavoriteRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresFavoriteRepo(db *pgxpool.Pool, logger logger.Logger) favorite.Repository {
	return &postgresFavoriteRepo{db: db, logger: logger}
}

func (r *postgresFavoriteRepo) Add(ctx context.Context, f *favorite.Favorite) error {
	query := `
		INSERT INTO favorites (user_id, template_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, template_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, f.UserID, f.TemplateID, f.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewNotFound("template", f.TemplateID.String())
		}
		return apperror.NewInternal("failed to add favorite", err)
	}
	return nil
}

func (r *postgresFavoriteRepo) Remove(ctx context.Context, userID, templateID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND template_id = $2`, userID, templateID)
	if err != nil {
		return apperror.NewInternal("failed to remove favorite", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("favorite", templateID.String())
	}
	return nil
}

func (r *postgresFavoriteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*favorite.Favorite, error) {
	query := `
		SELECT f.user_id, f.created_at,
			t.id, t.name, t.description, t.category, t.thumbnail_url, t.customization,
			t.is_active, t.is_premium, t.created_at, t.updated_at
		FROM favorites f
		JOIN templates t ON t.id = f.template_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, apperror.NewInternal("failed to query favorites", err)
	}
	defer rows.Close()

	favorites := make([]*favorite.Favorite, 0)
	for rows.Next() {
		f := &favorite.Favorite{}
		t, err := scanTemplate(prefixedRow{row: rows, prefix: []any{&f.UserID, &f.CreatedAt}})
		if err != nil {
			return nil, err
		}
		f.TemplateID = t.ID
		f.Template = t
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating favorite rows", err)
	}
	return favorites, nil
}

// prefixedRow lets scanTemplate read a row that starts with extra columns.
type prefixedRow struct {
	row    interface{ Scan(dest ...any) error }
	prefix []any
}

func (p prefixedRow) Scan(dest ...any) error {
	return p.row.Scan(append(p.prefix, dest...)...)
}
