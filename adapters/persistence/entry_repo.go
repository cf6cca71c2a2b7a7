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
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/internal/domain/entry"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type postgresEntryRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresEntryRepo(db *pgxpool.Pool, logger logger.Logger) entry.Repository {
	return &postgresEntryRepo{db: db, logger: logger}
}

const entryColumns = "id, user_id, section_id, position, data, created_at, updated_at"

func scanEntry(row pgx.Row, l logger.Logger) (*entry.Entry, error) {
	e := &entry.Entry{}
	var dataBytes []byte

	err := row.Scan(&e.ID, &e.UserID, &e.SectionID, &e.Position, &dataBytes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("section entry", "")
		}
		return nil, apperror.NewInternal("failed to scan section entry row", err)
	}

	if err := json.Unmarshal(dataBytes, &e.Data); err != nil || e.Data == nil {
		l.Warn("Failed to unmarshal section entry data", zap.String("entry_id", e.ID.String()), zap.Error(err))
		e.Data = map[string]any{}
	}
	return e, nil
}

func scanEntries(rows pgx.Rows, l logger.Logger) ([]*entry.Entry, error) {
	defer rows.Close()
	entries := make([]*entry.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows, l)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating section entry rows", err)
	}
	return entries, nil
}

func (r *postgresEntryRepo) Save(ctx context.Context, e *entry.Entry) error {
	dataBytes, err := json.Marshal(e.Data)
	if err != nil {
		return apperror.NewInternal("failed to marshal section entry data", err)
	}

	query := `
		INSERT INTO section_entries (id, user_id, section_id, position, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query,
		e.ID, e.UserID, e.SectionID, e.Position, dataBytes, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("section entry", "id", e.ID.String())
		}
		return apperror.NewInternal("failed to save section entry", err)
	}
	return nil
}

func (r *postgresEntryRepo) Update(ctx context.Context, e *entry.Entry) error {
	dataBytes, err := json.Marshal(e.Data)
	if err != nil {
		return apperror.NewInternal("failed to marshal section entry data", err)
	}

	query := `
		UPDATE section_entries SET
			position = $3, data = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	cmdTag, err := r.db.Exec(ctx, query, e.ID, e.UserID, e.Position, dataBytes)
	if err != nil {
		return apperror.NewInternal("failed to update section entry", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("section entry", e.ID.String())
	}
	return nil
}

func (r *postgresEntryRepo) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM section_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperror.NewInternal("failed to delete section entry", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("section entry", id.String())
	}
	return nil
}

func (r *postgresEntryRepo) FindByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM section_entries WHERE id = $1 AND user_id = $2`
	e, err := scanEntry(r.db.QueryRow(ctx, query, id, userID), r.logger)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NewNotFound("section entry", id.String())
	}
	return e, err
}

func (r *postgresEntryRepo) ListBySection(ctx context.Context, userID uuid.UUID, sectionID string) ([]*entry.Entry, error) {
	return r.list(ctx, sq.Eq{"user_id": userID, "section_id": sectionID})
}

func (r *postgresEntryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entry.Entry, error) {
	return r.list(ctx, sq.Eq{"user_id": userID})
}

func (r *postgresEntryRepo) list(ctx context.Context, where sq.Eq) ([]*entry.Entry, error) {
	builder := psql.Select(entryColumns).
		From("section_entries").
		Where(where).
		OrderBy("section_id", "position", "created_at")

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list section entries query", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query section entries", err)
	}
	return scanEntries(rows, r.logger)
}

func (r *postgresEntryRepo) ReplaceSection(ctx context.Context, userID uuid.UUID, sectionID string, entries []*entry.Entry) error {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM section_entries WHERE user_id = $1 AND section_id = $2 AND NOT (id = ANY($3))`,
			userID, sectionID, ids,
		)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO section_entries (id, user_id, section_id, position, data, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			ON CONFLICT (id) DO UPDATE SET
				position = EXCLUDED.position,
				data = EXCLUDED.data,
				updated_at = NOW()
			WHERE section_entries.user_id = EXCLUDED.user_id
				AND section_entries.section_id = EXCLUDED.section_id
		`
		for i, e := range entries {
			dataBytes, err := json.Marshal(e.Data)
			if err != nil {
				return err
			}
			tag, err := tx.Exec(ctx, query, e.ID, userID, sectionID, i, dataBytes)
			if err != nil {
				return err
			}
			// The id is taken by a row of another user or section.
			if tag.RowsAffected() == 0 {
				return apperror.NewConflict("section entry", "id", e.ID.String())
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperror.NewInternal("failed to replace section entries", err)
	}
	return nil
}

func (r *postgresEntryRepo) NextPosition(ctx context.Context, userID uuid.UUID, sectionID string) (int, error) {
	query := `SELECT COALESCE(MAX(position) + 1, 0) FROM section_entries WHERE user_id = $1 AND section_id = $2`
	var next int
	if err := r.db.QueryRow(ctx, query, userID, sectionID).Scan(&next); err != nil {
		return 0, apperror.NewInternal("failed to query next entry position", err)
	}
	return next, nil
}

func (r *postgresEntryRepo) CountBySection(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT section_id, COUNT(*) FROM section_entries GROUP BY section_id`)
	if err != nil {
		return nil, apperror.NewInternal("failed to count section entries", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, apperror.NewInternal("failed to scan section entry count", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating section entry counts", err)
	}
	return counts, nil
}
