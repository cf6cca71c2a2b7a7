package section

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/adapters/export"
	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/internal/render/preview"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

// ResumeUseCase works on the whole document of a user rather than one section.
type ResumeUseCase struct {
	reg       *section.Registry
	manager   *resume.Manager
	syncer    *Syncer
	generator *preview.Generator
	cache     resume.Cache
	pages     service.PageCache
	pageTTL   time.Duration
	logger    logger.Logger
	schema    *gojsonschema.Schema
}

func NewResumeUseCase(
	reg *section.Registry,
	manager *resume.Manager,
	syncer *Syncer,
	generator *preview.Generator,
	cache resume.Cache,
	pages service.PageCache,
	pageTTL time.Duration,
	log logger.Logger,
) (*ResumeUseCase, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(reg.JSONSchema()))
	if err != nil {
		return nil, err
	}
	return &ResumeUseCase{
		reg:       reg,
		manager:   manager,
		syncer:    syncer,
		generator: generator,
		cache:     cache,
		pages:     pages,
		pageTTL:   pageTTL,
		logger:    log,
		schema:    schema,
	}, nil
}

type ResumeView struct {
	Data          map[string]any                 `json:"data"`
	Statuses      map[string]resume.SectionState `json:"statuses"`
	Customization resume.TemplateCustomization   `json:"customization"`
}

func (uc *ResumeUseCase) GetResume(ctx context.Context, userID uuid.UUID) (*ResumeView, error) {
	st, err := uc.manager.For(ctx, userID.String())
	if err != nil {
		return nil, apperror.NewUnavailable("resume could not be loaded", err)
	}
	return &ResumeView{
		Data:          st.Snapshot(),
		Statuses:      st.Statuses(),
		Customization: st.Customization(),
	}, nil
}

type ImportInput struct {
	UserID   uuid.UUID
	Document map[string]any
}

type ImportResult struct {
	Imported []string          `json:"imported"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// Import replaces every section present in the document. The document is
// checked against the registry's JSON Schema first, so nothing is stored
// unless the whole document is acceptable.
func (uc *ResumeUseCase) Import(ctx context.Context, in ImportInput) (*ImportResult, error) {
	ctx, span := tracer.Start(ctx, "ResumeUseCase.Import")
	defer span.End()

	if len(in.Document) == 0 {
		return nil, apperror.NewInvalidInput("resume document is empty", nil)
	}

	res, err := uc.schema.Validate(gojsonschema.NewGoLoader(in.Document))
	if err != nil {
		return nil, apperror.NewInvalidInput("resume document could not be read", err)
	}
	if !res.Valid() {
		fields := make([]apperror.FieldError, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			fields = append(fields, apperror.FieldError{Path: e.Field(), Message: e.Description()})
		}
		return nil, apperror.NewValidation(fields)
	}

	values := make(map[string]any, len(in.Document))
	var errs section.FieldErrors
	for id, raw := range in.Document {
		schema, _ := uc.reg.GetSectionConfig(id)
		v, err := section.Normalize(schema, raw)
		if err != nil {
			return nil, apperror.NewInvalidInput(err.Error(), err)
		}
		errs = append(errs, section.Validate(schema, v)...)
		values[id] = withEntryIDs(schema, v)
	}
	if len(errs) > 0 {
		return nil, ValidationError(errs)
	}

	st, err := uc.manager.For(ctx, in.UserID.String())
	if err != nil {
		return nil, apperror.NewUnavailable("resume could not be loaded", err)
	}

	ids := make([]string, 0, len(values))
	for id, v := range values {
		if err := st.Set(id, v); err != nil {
			return nil, apperror.NewInternal("failed to store section", err)
		}
		if err := st.Checkpoint(id); err != nil {
			return nil, apperror.NewInternal("failed to store section", err)
		}
		st.MarkPending(id)
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := st.Save(ctx); err != nil {
		span.RecordError(err)
		return nil, apperror.NewUnavailable("resume cache is unavailable", err)
	}

	out := &ImportResult{Imported: ids}
	for _, id := range ids {
		if err := uc.syncer.Push(ctx, st, id); err != nil {
			if out.Failed == nil {
				out.Failed = make(map[string]string)
			}
			out.Failed[id] = err.Error()
		}
	}
	uc.logger.Info("Resume imported", zap.String("user_id", in.UserID.String()),
		zap.Int("sections", len(ids)), zap.Int("failed", len(out.Failed)))
	return out, nil
}

type ImportFileInput struct {
	UserID   uuid.UUID
	FileName string
	Data     []byte
}

type ImportFileResult struct {
	Text          string `json:"text"`
	SummaryFilled bool   `json:"summaryFilled"`
}

// ImportFile extracts the plain text of an uploaded PDF or DOCX resume.
// The text becomes the summary when the user has none yet.
func (uc *ResumeUseCase) ImportFile(ctx context.Context, in ImportFileInput) (*ImportFileResult, error) {
	ctx, span := tracer.Start(ctx, "ResumeUseCase.ImportFile")
	defer span.End()

	text, err := export.ExtractText(in.FileName, in.Data)
	if err != nil {
		if errors.Is(err, export.ErrUnsupportedFile) {
			return nil, apperror.NewInvalidInput("only .pdf and .docx files can be imported", err)
		}
		return nil, apperror.NewInvalidInput("file could not be read", err)
	}
	text = strings.TrimSpace(text)
	out := &ImportFileResult{Text: text}
	if text == "" {
		return out, nil
	}

	schema, ok := uc.reg.GetSectionConfig(section.Summary)
	if !ok {
		return out, nil
	}
	st, err := uc.manager.For(ctx, in.UserID.String())
	if err != nil {
		return nil, apperror.NewUnavailable("resume could not be loaded", err)
	}
	if current, ok := st.Get(schema.ID); ok && !section.IsEmpty(current) {
		return out, nil
	}

	summary := truncateRunes(text, schema.Fields[0].MaxLength)
	if err := st.Set(schema.ID, summary); err != nil {
		return nil, apperror.NewInternal("failed to store summary", err)
	}
	if err := st.Checkpoint(schema.ID); err != nil {
		return nil, apperror.NewInternal("failed to store summary", err)
	}
	st.MarkPending(schema.ID)
	if err := st.Save(ctx); err != nil {
		return nil, apperror.NewUnavailable("resume cache is unavailable", err)
	}
	if err := uc.syncer.Push(ctx, st, schema.ID); err != nil {
		span.RecordError(err)
	}
	out.SummaryFilled = true
	return out, nil
}

// PublicResume renders the persisted resume of a user for anonymous
// visitors. Pages are cached until the user saves again.
func (uc *ResumeUseCase) PublicResume(ctx context.Context, userID uuid.UUID) (string, error) {
	ctx, span := tracer.Start(ctx, "ResumeUseCase.PublicResume")
	defer span.End()

	key := PublicPageKey(userID)
	if uc.pages != nil {
		page, ok, err := uc.pages.Get(ctx, key)
		if err != nil {
			uc.logger.Warn("Public page cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
		} else if ok {
			return page, nil
		}
	}

	doc, err := uc.syncer.Document(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if len(doc) == 0 {
		return "", apperror.NewNotFound("resume", userID.String())
	}

	page, err := uc.generator.Generate(doc, uc.customization(ctx, userID))
	if err != nil {
		return "", apperror.NewInternal("failed to generate resume page", err)
	}

	if uc.pages != nil {
		if err := uc.pages.Set(ctx, key, page, uc.pageTTL); err != nil {
			uc.logger.Warn("Public page cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return page, nil
}

// customization reads the stored choice straight from the cache so that a
// public view does not hydrate a store for the visited user.
func (uc *ResumeUseCase) customization(ctx context.Context, userID uuid.UUID) resume.TemplateCustomization {
	c, err := resume.LoadCustomization(ctx, uc.cache, userID.String())
	if err != nil {
		if !errors.Is(err, resume.ErrCacheMiss) {
			uc.logger.Warn("Falling back to default customization", zap.String("user_id", userID.String()), zap.Error(err))
		}
		return resume.DefaultCustomization()
	}
	return c
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}
