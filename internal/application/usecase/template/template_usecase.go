package template

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mediauc "github.com/khoahotran/resume-builder/internal/application/usecase/media"
	"github.com/khoahotran/resume-builder/internal/domain/media"
	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/template"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

// Customizer applies preview settings to a user's resume.
type Customizer interface {
	UpdateCustomization(ctx context.Context, userID uuid.UUID, c resume.TemplateCustomization) (resume.TemplateCustomization, error)
}

type TemplateUseCase struct {
	repo       template.Repository
	upload     *mediauc.UploadMediaUseCase
	customizer Customizer
	logger     logger.Logger
}

func NewTemplateUseCase(r template.Repository, upload *mediauc.UploadMediaUseCase, c Customizer, log logger.Logger) *TemplateUseCase {
	return &TemplateUseCase{repo: r, upload: upload, customizer: c, logger: log}
}

// ListTemplates returns active templates, or every template for admins.
func (uc *TemplateUseCase) ListTemplates(ctx context.Context, includeInactive bool) ([]*template.Template, error) {
	return uc.repo.List(ctx, !includeInactive)
}

func (uc *TemplateUseCase) GetTemplate(ctx context.Context, id uuid.UUID) (*template.Template, error) {
	return uc.repo.FindByID(ctx, id)
}

type CreateTemplateInput struct {
	AdminID       uuid.UUID
	Name          string
	Description   string
	Category      string
	Customization map[string]any
	IsActive      bool
	IsPremium     bool
	Thumbnail     io.Reader
}

func (uc *TemplateUseCase) CreateTemplate(ctx context.Context, in CreateTemplateInput) (*template.Template, error) {
	custom, err := checkCustomization(in.Customization)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &template.Template{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(in.Category),
		Customization: custom,
		IsActive:      in.IsActive,
		IsPremium:     in.IsPremium,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := t.Validate(); err != nil {
		return nil, apperror.NewInvalidInput("template validation failed", err)
	}
	if err := uc.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	if in.Thumbnail != nil {
		uc.attachThumbnail(ctx, in.AdminID, t, in.Thumbnail)
	}
	return t, nil
}

type UpdateTemplateInput struct {
	ID        uuid.UUID
	AdminID   uuid.UUID
	Patch     template.Patch
	Thumbnail io.Reader
}

// UpdateTemplate changes only the fields present in the patch.
func (uc *TemplateUseCase) UpdateTemplate(ctx context.Context, in UpdateTemplateInput) (*template.Template, error) {
	t, err := uc.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if in.Patch.Customization != nil {
		custom, err := checkCustomization(in.Patch.Customization)
		if err != nil {
			return nil, err
		}
		in.Patch.Customization = custom
	}
	in.Patch.Apply(t)
	t.UpdatedAt = time.Now().UTC()
	if err := t.Validate(); err != nil {
		return nil, apperror.NewInvalidInput("template validation failed", err)
	}
	if err := uc.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	if in.Thumbnail != nil {
		uc.attachThumbnail(ctx, in.AdminID, t, in.Thumbnail)
	}
	return t, nil
}

func (uc *TemplateUseCase) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return uc.repo.Delete(ctx, id)
}

func (uc *TemplateUseCase) Stats(ctx context.Context) (*template.Stats, error) {
	return uc.repo.Stats(ctx)
}

// ApplyTemplate copies a template's customization onto the user's resume.
func (uc *TemplateUseCase) ApplyTemplate(ctx context.Context, userID, templateID uuid.UUID) (resume.TemplateCustomization, error) {
	t, err := uc.repo.FindByID(ctx, templateID)
	if err != nil {
		return resume.TemplateCustomization{}, err
	}
	if !t.IsActive {
		return resume.TemplateCustomization{}, apperror.NewNotFound("template", templateID.String())
	}
	c, err := toCustomization(t.Customization)
	if err != nil {
		return resume.TemplateCustomization{}, apperror.NewInternal("stored template customization is invalid", err)
	}
	return uc.customizer.UpdateCustomization(ctx, userID, c)
}

// attachThumbnail uploads the image and shows the original right away; the
// worker swaps in the resized version later. Failures leave the template
// without a thumbnail.
func (uc *TemplateUseCase) attachThumbnail(ctx context.Context, adminID uuid.UUID, t *template.Template, file io.Reader) {
	if uc.upload == nil {
		return
	}
	out, err := uc.upload.Execute(ctx, mediauc.UploadMediaInput{
		OwnerID:  adminID,
		TargetID: t.ID,
		Kind:     media.KindTemplateThumbnail,
		File:     file,
	})
	if err != nil {
		uc.logger.Error("Failed to upload template thumbnail", err, zap.String("template_id", t.ID.String()))
		return
	}
	url := out.URL
	t.ThumbnailURL = &url
	if err := uc.repo.Update(ctx, t); err != nil {
		uc.logger.Error("Failed to store template thumbnail", err, zap.String("template_id", t.ID.String()))
	}
}

func toCustomization(m map[string]any) (resume.TemplateCustomization, error) {
	var c resume.TemplateCustomization
	b, err := json.Marshal(m)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	c = c.WithDefaults()
	return c, c.Validate()
}

// checkCustomization validates the settings and returns them with defaults
// filled in.
func checkCustomization(m map[string]any) (map[string]any, error) {
	c, err := toCustomization(m)
	if err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}
	return map[string]any{
		"colorScheme": c.ColorScheme,
		"fontFamily":  c.FontFamily,
		"layoutStyle": c.LayoutStyle,
	}, nil
}
