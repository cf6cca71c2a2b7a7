package section

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/internal/render/form"
	"github.com/khoahotran/resume-builder/internal/render/preview"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
	"github.com/khoahotran/resume-builder/pkg/metrics"
)

// Submit values of the _action field that are not list/tag controls.
const (
	ActionSave   = "save"
	ActionCancel = "cancel"
)

// EditorUseCase drives the server rendered section editor: the form is
// parsed on every submit, written to the store and the preview regenerated.
type EditorUseCase struct {
	reg       *section.Registry
	manager   *resume.Manager
	syncer    *Syncer
	generator *preview.Generator
	logger    logger.Logger
}

func NewEditorUseCase(reg *section.Registry, manager *resume.Manager, syncer *Syncer, generator *preview.Generator, log logger.Logger) *EditorUseCase {
	return &EditorUseCase{reg: reg, manager: manager, syncer: syncer, generator: generator, logger: log}
}

// FormState is everything the editor page shows for one section.
type FormState struct {
	Schema  section.SectionSchema
	Form    form.Markup
	Status  resume.SectionState
	Synced  bool
	Errors  section.FieldErrors
	Preview string
}

type OpenSectionInput struct {
	UserID    uuid.UUID
	SectionID string
}

func (uc *EditorUseCase) OpenSection(ctx context.Context, in OpenSectionInput) (*FormState, error) {
	st, schema, err := uc.load(ctx, in.UserID, in.SectionID)
	if err != nil {
		return nil, err
	}
	value, err := st.Value(schema.ID)
	if err != nil {
		return nil, apperror.NewInternal("failed to read section", err)
	}
	return uc.state(st, schema, value, nil)
}

type FormInput struct {
	UserID    uuid.UUID
	SectionID string
	Values    url.Values
}

// LiveUpdate applies the current form to the store as an unsaved edit and
// returns the regenerated preview.
func (uc *EditorUseCase) LiveUpdate(ctx context.Context, in FormInput) (string, error) {
	st, schema, err := uc.load(ctx, in.UserID, in.SectionID)
	if err != nil {
		return "", err
	}
	value, err := form.Parse(schema, in.Values)
	if err != nil {
		return "", apperror.NewInvalidInput("form could not be parsed", err)
	}
	if err := st.Set(schema.ID, value); err != nil {
		return "", apperror.NewInvalidInput(err.Error(), err)
	}
	metrics.LiveUpdates.WithLabelValues(schema.ID).Inc()
	return uc.render(st)
}

// Submit handles every non-live post of the section form: save (the
// default), cancel, and the add/remove controls.
func (uc *EditorUseCase) Submit(ctx context.Context, in FormInput) (*FormState, error) {
	ctx, span := tracer.Start(ctx, "EditorUseCase.Submit")
	defer span.End()

	st, schema, err := uc.load(ctx, in.UserID, in.SectionID)
	if err != nil {
		return nil, err
	}

	switch action := in.Values.Get(form.ActionField); action {
	case "", ActionSave:
		return uc.save(ctx, st, schema, in.Values)

	case ActionCancel:
		if err := st.Revert(schema.ID); err != nil {
			span.RecordError(err)
			return nil, apperror.NewInternal("failed to restore saved section", err)
		}
		value, err := st.Value(schema.ID)
		if err != nil {
			return nil, apperror.NewInternal("failed to read section", err)
		}
		return uc.state(st, schema, value, nil)

	default:
		value, err := form.Parse(schema, in.Values)
		if err != nil {
			return nil, apperror.NewInvalidInput("form could not be parsed", err)
		}
		value, err = form.ApplyAction(schema, value, action)
		if err != nil {
			if errors.Is(err, form.ErrUnknownAction) || errors.Is(err, form.ErrBadPath) {
				return nil, apperror.NewInvalidInput(err.Error(), err)
			}
			return nil, apperror.NewInternal("failed to apply form action", err)
		}
		if err := st.Set(schema.ID, value); err != nil {
			return nil, apperror.NewInvalidInput(err.Error(), err)
		}
		return uc.state(st, schema, value, nil)
	}
}

// save validates before touching the store. A valid value becomes the saved
// value and is cached right away; the database write that follows only
// decides the sync status, so a failed write leaves the section retryable.
func (uc *EditorUseCase) save(ctx context.Context, st *resume.Store, schema section.SectionSchema, values url.Values) (*FormState, error) {
	value, err := form.Parse(schema, values)
	if err != nil {
		return nil, apperror.NewInvalidInput("form could not be parsed", err)
	}
	if errs := section.Validate(schema, value); len(errs) > 0 {
		state, err := uc.state(st, schema, value, errs)
		if err != nil {
			return nil, err
		}
		return state, ValidationError(errs)
	}

	value = withEntryIDs(schema, value)
	if err := st.Set(schema.ID, value); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}
	if err := st.Checkpoint(schema.ID); err != nil {
		return nil, apperror.NewInternal("failed to keep saved section", err)
	}
	st.MarkPending(schema.ID)
	if err := st.Save(ctx); err != nil {
		return nil, apperror.NewUnavailable("resume cache is unavailable", err)
	}

	if err := uc.syncer.Push(ctx, st, schema.ID); err != nil {
		uc.logger.Warn("Section saved locally but not persisted",
			zap.String("user_id", st.UserID()), zap.String("section_id", schema.ID), zap.Error(err))
	}

	saved, err := st.Value(schema.ID)
	if err != nil {
		return nil, apperror.NewInternal("failed to read section", err)
	}
	return uc.state(st, schema, saved, nil)
}

type RetrySectionInput struct {
	UserID    uuid.UUID
	SectionID string
}

// RetrySection pushes the saved value of a failed section again.
func (uc *EditorUseCase) RetrySection(ctx context.Context, in RetrySectionInput) (*FormState, error) {
	st, schema, err := uc.load(ctx, in.UserID, in.SectionID)
	if err != nil {
		return nil, err
	}
	if _, ok := st.Saved(schema.ID); !ok {
		return nil, apperror.NewNotFound("saved section", schema.ID)
	}
	st.MarkPending(schema.ID)
	if err := uc.syncer.Push(ctx, st, schema.ID); err != nil {
		uc.logger.Warn("Retry failed", zap.String("user_id", st.UserID()), zap.String("section_id", schema.ID), zap.Error(err))
	}
	value, err := st.Value(schema.ID)
	if err != nil {
		return nil, apperror.NewInternal("failed to read section", err)
	}
	return uc.state(st, schema, value, nil)
}

// Preview renders the whole resume of a user as it stands in the store.
func (uc *EditorUseCase) Preview(ctx context.Context, userID uuid.UUID) (string, error) {
	st, err := uc.store(ctx, userID)
	if err != nil {
		return "", err
	}
	return uc.render(st)
}

func (uc *EditorUseCase) Customization(ctx context.Context, userID uuid.UUID) (resume.TemplateCustomization, error) {
	st, err := uc.store(ctx, userID)
	if err != nil {
		return resume.TemplateCustomization{}, err
	}
	return st.Customization(), nil
}

func (uc *EditorUseCase) UpdateCustomization(ctx context.Context, userID uuid.UUID, c resume.TemplateCustomization) (resume.TemplateCustomization, error) {
	st, err := uc.store(ctx, userID)
	if err != nil {
		return resume.TemplateCustomization{}, err
	}
	if err := st.SetCustomization(ctx, c); err != nil {
		if errors.Is(err, resume.ErrInvalidCustomization) {
			return resume.TemplateCustomization{}, apperror.NewInvalidInput(err.Error(), err)
		}
		return resume.TemplateCustomization{}, apperror.NewUnavailable("resume cache is unavailable", err)
	}
	uc.syncer.InvalidatePublic(ctx, userID)
	return st.Customization(), nil
}

func (uc *EditorUseCase) store(ctx context.Context, userID uuid.UUID) (*resume.Store, error) {
	st, err := uc.manager.For(ctx, userID.String())
	if err != nil {
		uc.logger.Error("Failed to load resume store", err, zap.String("user_id", userID.String()))
		return nil, apperror.NewUnavailable("resume could not be loaded", err)
	}
	return st, nil
}

func (uc *EditorUseCase) load(ctx context.Context, userID uuid.UUID, sectionID string) (*resume.Store, section.SectionSchema, error) {
	schema, ok := uc.reg.GetSectionConfig(sectionID)
	if !ok {
		return nil, section.SectionSchema{}, apperror.NewNotFound("section", sectionID)
	}
	st, err := uc.store(ctx, userID)
	if err != nil {
		return nil, section.SectionSchema{}, err
	}
	return st, schema, nil
}

func (uc *EditorUseCase) state(st *resume.Store, schema section.SectionSchema, value any, errs section.FieldErrors) (*FormState, error) {
	markup, err := form.Render(schema, value, form.WithErrors(errs))
	if err != nil {
		return nil, apperror.NewInternal("failed to render form", err)
	}
	page, err := uc.render(st)
	if err != nil {
		return nil, err
	}
	status, synced := st.Status(schema.ID)
	return &FormState{
		Schema:  schema,
		Form:    markup,
		Status:  status,
		Synced:  synced,
		Errors:  errs,
		Preview: page,
	}, nil
}

func (uc *EditorUseCase) render(st *resume.Store) (string, error) {
	start := time.Now()
	page, err := uc.generator.Generate(st.Snapshot(), st.Customization())
	metrics.PreviewDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", apperror.NewInternal("failed to generate preview", err)
	}
	return page, nil
}
