package persistence

import (
	"context"
	"encoding/json"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/resume-builder/internal/domain/template"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type postgresTemplateRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresTemplateRepo(db *pgxpool.Pool, logger logger.Logger) template.Repository {
	return &postgresTemplateRepo{db: db, logger: logger}
}

const templateColumns = "id, name, description, category, thumbnail_url, customization, is_active, is_premium, created_at, updated_at"

func scanTemplate(row pgx.Row) (*template.Template, error) {
	t := &template.Template{}
	var customizationBytes []byte

	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Category, &t.ThumbnailURL,
		&customizationBytes, &t.IsActive, &t.IsPremium, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("template", "")
		}
		return nil, apperror.NewInternal("failed to scan template row", err)
	}
	if err := json.Unmarshal(customizationBytes, &t.Customization); err != nil || t.Customization == nil {
		t.Customization = map[string]any{}
	}
	return t, nil
}

func scanTemplates(rows pgx.Rows) ([]*template.Template, error) {
	defer rows.Close()
	templates := make([]*template.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating template rows", err)
	}
	return templates, nil
}

func conflictOrInternal(err error, resource, field, value, details string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperror.NewConflict(resource, field, value)
	}
	return apperror.NewInternal(details, err)
}

func (r *postgresTemplateRepo) Save(ctx context.Context, t *template.Template) error {
	customizationBytes, err := json.Marshal(t.Customization)
	if err != nil {
		return apperror.NewInternal("failed to marshal template customization", err)
	}

	query := `
		INSERT INTO templates (id, name, description, category, thumbnail_url, customization, is_active, is_premium, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.Exec(ctx, query,
		t.ID, t.Name, t.Description, t.Category, t.ThumbnailURL,
		customizationBytes, t.IsActive, t.IsPremium, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return conflictOrInternal(err, "template", "name", t.Name, "failed to save template")
	}
	return nil
}

func (r *postgresTemplateRepo) Update(ctx context.Context, t *template.Template) error {
	customizationBytes, err := json.Marshal(t.Customization)
	if err != nil {
		return apperror.NewInternal("failed to marshal template customization", err)
	}

	query := `
		UPDATE templates SET
			name = $2, description = $3, category = $4, thumbnail_url = $5,
			customization = $6, is_active = $7, is_premium = $8, updated_at = NOW()
		WHERE id = $1
	`
	cmdTag, err := r.db.Exec(ctx, query,
		t.ID, t.Name, t.Description, t.Category, t.ThumbnailURL,
		customizationBytes, t.IsActive, t.IsPremium,
	)
	if err != nil {
		return conflictOrInternal(err, "template", "name", t.Name, "failed to update template")
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("template", t.ID.String())
	}
	return nil
}

func (r *postgresTemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return apperror.NewInternal("failed to delete template", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("template", id.String())
	}
	return nil
}

func (r *postgresTemplateRepo) FindByID(ctx context.Context, id uuid.UUID) (*template.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`
	t, err := scanTemplate(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NewNotFound("template", id.String())
	}
	return t, err
}

func (r *postgresTemplateRepo) List(ctx context.Context, activeOnly bool) ([]*template.Template, error) {
	builder := psql.Select(templateColumns).From("templates").OrderBy("name")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list templates query", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query templates", err)
	}
	return scanTemplates(rows)
}

func (r *postgresTemplateRepo) Stats(ctx context.Context) (*template.Stats, error) {
	s := &template.Stats{Favorites: []template.FavoriteCount{}}
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active), COUNT(*) FILTER (WHERE is_premium)
		FROM templates
	`).Scan(&s.Total, &s.Active, &s.Premium)
	if err != nil {
		return nil, apperror.NewInternal("failed to query template stats", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.name, COUNT(f.user_id)
		FROM templates t
		LEFT JOIN favorites f ON f.template_id = t.id
		GROUP BY t.id, t.name
		ORDER BY COUNT(f.user_id) DESC, t.name
	`)
	if err != nil {
		return nil, apperror.NewInternal("failed to query favorite counts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var fc template.FavoriteCount
		if err := rows.Scan(&fc.TemplateID, &fc.Name, &fc.Favorites); err != nil {
			return nil, apperror.NewInternal("failed to scan favorite count", err)
		}
		s.Favorites = append(s.Favorites, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating favorite counts", err)
	}
	return s, nil
}
