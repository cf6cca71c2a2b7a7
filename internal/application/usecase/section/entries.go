package section

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/internal/domain/entry"
	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

// EntryUseCase backs the per-section REST API. List sections get one entry
// per item; other sections hold a single entry that POST upserts.
type EntryUseCase struct {
	reg       *section.Registry
	entryRepo entry.Repository
	syncer    *Syncer
	manager   *resume.Manager
	logger    logger.Logger
}

func NewEntryUseCase(reg *section.Registry, repo entry.Repository, syncer *Syncer, manager *resume.Manager, log logger.Logger) *EntryUseCase {
	return &EntryUseCase{reg: reg, entryRepo: repo, syncer: syncer, manager: manager, logger: log}
}

func (uc *EntryUseCase) schema(sectionID string) (section.SectionSchema, error) {
	schema, ok := uc.reg.GetSectionConfig(sectionID)
	if !ok {
		return section.SectionSchema{}, apperror.NewNotFound("section", sectionID)
	}
	return schema, nil
}

type ListEntriesInput struct {
	UserID    uuid.UUID
	SectionID string
}

func (uc *EntryUseCase) ListEntries(ctx context.Context, in ListEntriesInput) ([]*entry.Entry, error) {
	if _, err := uc.schema(in.SectionID); err != nil {
		return nil, err
	}
	return uc.entryRepo.ListBySection(ctx, in.UserID, in.SectionID)
}

type CreateEntryInput struct {
	UserID    uuid.UUID
	SectionID string
	Data      map[string]any
}

func (uc *EntryUseCase) CreateEntry(ctx context.Context, in CreateEntryInput) (*entry.Entry, error) {
	ctx, span := tracer.Start(ctx, "EntryUseCase.CreateEntry")
	defer span.End()

	schema, err := uc.schema(in.SectionID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if !schema.IsList() {
		e, err := uc.upsertSingle(ctx, schema, in.UserID, in.Data, now)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		uc.refreshStore(ctx, in.UserID, schema)
		return e, nil
	}

	data, err := normalizeItem(schema, in.Data)
	if err != nil {
		return nil, err
	}
	pos, err := uc.entryRepo.NextPosition(ctx, in.UserID, schema.ID)
	if err != nil {
		return nil, err
	}
	e := &entry.Entry{
		ID:        uuid.New(),
		UserID:    in.UserID,
		SectionID: schema.ID,
		Position:  pos,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.entryRepo.Save(ctx, e); err != nil {
		span.RecordError(err)
		return nil, err
	}
	uc.refreshStore(ctx, in.UserID, schema)
	return e, nil
}

func (uc *EntryUseCase) upsertSingle(ctx context.Context, schema section.SectionSchema, userID uuid.UUID, data map[string]any, now time.Time) (*entry.Entry, error) {
	value, err := normalizeSingle(schema, data)
	if err != nil {
		return nil, err
	}

	existing, err := uc.entryRepo.ListBySection(ctx, userID, schema.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		e := existing[0]
		e.Data = entryData(schema, value)
		e.UpdatedAt = now
		return e, uc.entryRepo.Update(ctx, e)
	}

	e := &entry.Entry{
		ID:        uuid.New(),
		UserID:    userID,
		SectionID: schema.ID,
		Data:      entryData(schema, value),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return e, uc.entryRepo.Save(ctx, e)
}

type UpdateEntryInput struct {
	UserID    uuid.UUID
	SectionID string
	EntryID   uuid.UUID
	Data      map[string]any
}

func (uc *EntryUseCase) UpdateEntry(ctx context.Context, in UpdateEntryInput) (*entry.Entry, error) {
	schema, err := uc.schema(in.SectionID)
	if err != nil {
		return nil, err
	}
	e, err := uc.findInSection(ctx, in.UserID, in.SectionID, in.EntryID)
	if err != nil {
		return nil, err
	}

	if schema.IsList() {
		e.Data, err = normalizeItem(schema, in.Data)
	} else {
		var value any
		value, err = normalizeSingle(schema, in.Data)
		e.Data = entryData(schema, value)
	}
	if err != nil {
		return nil, err
	}
	e.UpdatedAt = time.Now().UTC()

	if err := uc.entryRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	uc.refreshStore(ctx, in.UserID, schema)
	return e, nil
}

type DeleteEntryInput struct {
	UserID    uuid.UUID
	SectionID string
	EntryID   uuid.UUID
}

func (uc *EntryUseCase) DeleteEntry(ctx context.Context, in DeleteEntryInput) error {
	schema, err := uc.schema(in.SectionID)
	if err != nil {
		return err
	}
	if _, err := uc.findInSection(ctx, in.UserID, in.SectionID, in.EntryID); err != nil {
		return err
	}
	if err := uc.entryRepo.Delete(ctx, in.EntryID, in.UserID); err != nil {
		return err
	}
	uc.refreshStore(ctx, in.UserID, schema)
	return nil
}

func (uc *EntryUseCase) findInSection(ctx context.Context, userID uuid.UUID, sectionID string, id uuid.UUID) (*entry.Entry, error) {
	e, err := uc.entryRepo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if e.SectionID != sectionID {
		return nil, apperror.NewNotFound(sectionID+" entry", id.String())
	}
	return e, nil
}

// refreshStore copies the persisted section into the user's store so the
// editor and preview see REST writes. Sections with unsynced local edits
// keep them.
func (uc *EntryUseCase) refreshStore(ctx context.Context, userID uuid.UUID, schema section.SectionSchema) {
	uc.syncer.InvalidatePublic(ctx, userID)

	l := uc.logger.With(zap.String("user_id", userID.String()), zap.String("section_id", schema.ID))
	st, err := uc.manager.For(ctx, userID.String())
	if err != nil {
		l.Warn("Failed to load resume store", zap.Error(err))
		return
	}
	rows, err := uc.entryRepo.ListBySection(ctx, userID, schema.ID)
	if err != nil {
		l.Warn("Failed to reload section entries", zap.Error(err))
		return
	}
	v, err := fromEntries(schema, rows)
	if err != nil {
		l.Warn("Failed to decode section entries", zap.Error(err))
		return
	}
	if _, err := st.Merge(map[string]any{schema.ID: v}); err != nil {
		l.Warn("Failed to merge section into store", zap.Error(err))
		return
	}
	if err := st.Save(ctx); err != nil {
		l.Warn("Failed to save resume cache", zap.Error(err))
	}
}

// normalizeItem validates one list item payload and returns its stored form.
func normalizeItem(schema section.SectionSchema, data map[string]any) (map[string]any, error) {
	v, err := section.Normalize(schema, []any{data})
	if err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}
	items := v.([]section.Item)
	if errs := section.Validate(schema, items); len(errs) > 0 {
		return nil, ValidationError(errs)
	}
	out := map[string]any(items[0])
	delete(out, section.ItemIDKey)
	return out, nil
}

// normalizeSingle accepts the object itself for object sections and
// {"value": ...} for the others.
func normalizeSingle(schema section.SectionSchema, data map[string]any) (any, error) {
	var raw any = data
	if schema.Shape != section.ShapeObject {
		raw = data[valueKey]
	}
	v, err := section.Normalize(schema, raw)
	if err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}
	if errs := section.Validate(schema, v); len(errs) > 0 {
		return nil, ValidationError(errs)
	}
	return v, nil
}

// ValidationError converts schema field errors into a 422 application error.
func ValidationError(errs section.FieldErrors) error {
	fields := make([]apperror.FieldError, len(errs))
	for i, e := range errs {
		fields[i] = apperror.FieldError{Path: e.Path, Message: e.Message}
	}
	return apperror.NewValidation(fields)
}
